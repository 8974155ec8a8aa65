package db

import (
	"context"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// TableExtractor reads table definitions with their column constraint flags.
// Relationships are left empty; the inference engine derives them.
type TableExtractor interface {
	// ExtractTables extracts the named tables, or every base table when
	// tables is empty
	ExtractTables(ctx context.Context, tables []string) ([]schema.Table, error)
}

// foreignKey is one column reference read from the catalog
type foreignKey struct {
	column           string
	referencedTable  string
	referencedColumn string
}

// constraints collects the key information for one table
type constraints struct {
	primaryKey    []string
	uniqueColumns []string
	foreignKeys   []foreignKey
}

// apply sets the constraint flags on the table's columns. Names not present
// in the table are ignored.
func (c constraints) apply(table *schema.Table) {
	for _, name := range c.primaryKey {
		if col := table.Column(name); col != nil {
			col.PrimaryKey = true
		}
	}
	for _, name := range c.uniqueColumns {
		if col := table.Column(name); col != nil {
			col.Unique = true
		}
	}
	for _, fk := range c.foreignKeys {
		if col := table.Column(fk.column); col != nil {
			col.ForeignKey = true
			col.ReferencedTable = fk.referencedTable
			col.ReferencedColumn = fk.referencedColumn
		}
	}
}

// isSequenceDefault reports whether a column default draws from a sequence
func isSequenceDefault(def *string) bool {
	return def != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*def)), "nextval(")
}
