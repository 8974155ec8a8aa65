package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
	formatJSON     = "json"
)

// Formatter renders a table list
type Formatter interface {
	Format(tables []schema.Table) error
}

// New returns the single-stream formatter for format
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case formatText:
		return NewTextFormatter(w), nil
	case formatMarkdown:
		return NewMarkdownFormatter(w), nil
	case formatJSON:
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text', 'markdown' or 'json')", format)
	}
}

// columnFlags lists a column's constraints in a fixed order
func columnFlags(col schema.Column) []string {
	var flags []string
	if col.PrimaryKey {
		flags = append(flags, "PK")
	}
	if col.AutoIncrement {
		flags = append(flags, "AUTO")
	}
	if col.Unique && !col.PrimaryKey {
		flags = append(flags, "UNIQUE")
	}
	if !col.Nullable && !col.PrimaryKey {
		flags = append(flags, "NOT NULL")
	}
	if col.ForeignKey {
		flags = append(flags, fmt.Sprintf("FK → %s.%s", col.ReferencedTable, col.ReferencedColumn))
	}
	return flags
}

// columnType renders the SQL type with its mapped type when one is set
func columnType(col schema.Column) string {
	if col.MappedType == "" {
		return col.Type
	}
	return fmt.Sprintf("%s (%s)", col.Type, col.MappedType)
}

// describeRelationship renders one relationship on a single line
func describeRelationship(rel schema.Relationship) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", rel.Type, rel.TargetTable)

	switch {
	case rel.JoinTable != "":
		fmt.Fprintf(&b, " via %s", rel.JoinTable)
	case rel.MappedBy != "":
		fmt.Fprintf(&b, " on %s.%s", rel.TargetTable, rel.TargetColumn)
	default:
		fmt.Fprintf(&b, " on %s", rel.SourceColumn)
	}

	fmt.Fprintf(&b, " as %s %s", rel.TargetClassName, rel.FieldName)
	if rel.MappedBy != "" {
		fmt.Fprintf(&b, " (mapped by %s)", rel.MappedBy)
	}
	return b.String()
}

// tableTitle renders the table name with its class name and join marker
func tableTitle(table schema.Table) string {
	title := table.Name
	if table.ClassName != "" {
		title += " → " + table.ClassName
	}
	if table.IsJoinTable {
		title += " [join table]"
	}
	return title
}
