package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

const overviewName = "_overview"

// MultiFileFormatter writes an overview plus one file per table into a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text", "markdown" or "json"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the tables to multiple files
func (f *MultiFileFormatter) Format(tables []schema.Table) error {
	if _, err := New(f.OutputFormat, io.Discard); err != nil {
		return err
	}

	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile(overviewName, func(w io.Writer) error { return f.writeOverview(w, tables) }); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range tables {
		table := table
		err := f.writeFile(table.Name, func(w io.Writer) error { return f.writeTable(w, table, tables) })
		if err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer) error) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name+f.getFileExtension()))
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// overviewEntry is one line of the overview
type overviewEntry struct {
	Table       string   `json:"table"`
	ClassName   string   `json:"className"`
	IsJoinTable bool     `json:"isJoinTable"`
	References  []string `json:"references,omitempty"`
}

func overview(tables []schema.Table) []overviewEntry {
	entries := make([]overviewEntry, 0, len(tables))
	for _, table := range tables {
		entry := overviewEntry{Table: table.Name, ClassName: table.ClassName, IsJoinTable: table.IsJoinTable}
		seen := map[string]bool{}
		for _, rel := range table.Relationships {
			if !seen[rel.TargetTable] {
				seen[rel.TargetTable] = true
				entry.References = append(entry.References, rel.TargetTable)
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Table < entries[j].Table })
	return entries
}

func (f *MultiFileFormatter) writeOverview(w io.Writer, tables []schema.Table) error {
	entries := overview(tables)
	ext := f.getFileExtension()

	switch f.OutputFormat {
	case formatJSON:
		return encodeJSON(w, entries)
	case formatMarkdown:
		_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(w, "## Tables\n\n")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "- **%s**%s\n", e.Table, overviewSuffix(e, ", "))
		}
	default:
		_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", ext)
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s%s\n", e.Table, overviewSuffix(e, ","))
		}
	}
	return nil
}

func overviewSuffix(e overviewEntry, sep string) string {
	var s string
	if e.IsJoinTable {
		s += " [join table]"
	}
	if len(e.References) > 0 {
		s += fmt.Sprintf(" (related: %s)", strings.Join(e.References, sep))
	}
	return s
}

// writeTable writes a single table followed by the foreign keys pointing at it
func (f *MultiFileFormatter) writeTable(w io.Writer, table schema.Table, all []schema.Table) error {
	incoming := findIncomingReferences(table.Name, all)

	switch f.OutputFormat {
	case formatJSON:
		return encodeJSON(w, struct {
			schema.Table
			ReferencedBy []IncomingReference `json:"referencedBy,omitempty"`
		}{table, incoming})
	case formatMarkdown:
		if err := NewMarkdownFormatter(w).formatTable(table); err != nil {
			return err
		}
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(w, "### Referenced by\n\n")
			for _, ref := range incoming {
				_, _ = fmt.Fprintf(w, "- %s\n", ref)
			}
			_, _ = fmt.Fprintln(w)
		}
	default:
		if err := NewTextFormatter(w).formatTable(table); err != nil {
			return err
		}
		if len(incoming) > 0 {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "  REFERENCED BY:")
			for _, ref := range incoming {
				_, _ = fmt.Fprintf(w, "    %s\n", ref)
			}
		}
	}
	return nil
}

// IncomingReference is a foreign key column in another table pointing at this one
type IncomingReference struct {
	SourceTable  string `json:"sourceTable"`
	SourceColumn string `json:"sourceColumn"`
	TargetColumn string `json:"targetColumn"`
}

func (r IncomingReference) String() string {
	return fmt.Sprintf("%s.%s → %s", r.SourceTable, r.SourceColumn, r.TargetColumn)
}

// findIncomingReferences finds all foreign keys pointing to tableName
func findIncomingReferences(tableName string, tables []schema.Table) []IncomingReference {
	var incoming []IncomingReference
	for _, table := range tables {
		for _, col := range table.Columns {
			if col.ForeignKey && col.ReferencedTable == tableName {
				incoming = append(incoming, IncomingReference{
					SourceTable:  table.Name,
					SourceColumn: col.Name,
					TargetColumn: col.ReferencedColumn,
				})
			}
		}
	}
	return incoming
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (f *MultiFileFormatter) getFileExtension() string {
	switch f.OutputFormat {
	case formatMarkdown:
		return ".md"
	case formatJSON:
		return ".json"
	default:
		return ".txt"
	}
}
