package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/schemagraph/internal/schema"
)

// JSONFormatter writes tables as an indented JSON array
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes the tables as JSON. A nil list is written as [].
func (f *JSONFormatter) Format(tables []schema.Table) error {
	if tables == nil {
		tables = []schema.Table{}
	}
	if err := encodeJSON(f.writer, tables); err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}
	return nil
}
