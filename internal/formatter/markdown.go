package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// MarkdownFormatter formats tables as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the tables in markdown format
func (f *MarkdownFormatter) Format(tables []schema.Table) error {
	if _, err := fmt.Fprintln(f.writer, "# Database Schema"); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range tables {
		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *MarkdownFormatter) formatTable(table schema.Table) error {
	if _, err := fmt.Fprintf(f.writer, "## %s\n\n", tableTitle(table)); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		flags := columnFlags(col)
		if len(flags) > 0 {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, columnType(col), strings.Join(flags, ", "))
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, columnType(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.Relationships) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Relationships")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range table.Relationships {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", describeRelationship(rel))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	return nil
}
