package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// TextFormatter formats tables as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the tables in compact text format
func (f *TextFormatter) Format(tables []schema.Table) error {
	for i, table := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(table schema.Table) error {
	if _, err := fmt.Fprintf(f.writer, "TABLE %s\n", tableTitle(table)); err != nil {
		return err
	}

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.Relationships) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONSHIPS:")
		for _, rel := range table.Relationships {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", describeRelationship(rel))
		}
	}

	return nil
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", columnType(col)}
	parts = append(parts, columnFlags(col)...)
	return strings.Join(parts, " ")
}
