package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// MySQLExtractor handles table extraction from MySQL
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates a new MySQL table extractor
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// ExtractTables extracts the specified tables.
// If tables is empty, extracts all base tables in the schema
func (e *MySQLExtractor) ExtractTables(ctx context.Context, tables []string) ([]schema.Table, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted := make([]schema.Table, 0, len(tableNames))
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extracted = append(extracted, *table)
	}

	return extracted, nil
}

func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	return e.queryNames(ctx, query, e.schemaName)
}

func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	var c constraints
	if c.primaryKey, err = e.extractPrimaryKey(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	if c.uniqueColumns, err = e.extractUniqueColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract unique columns: %w", err)
	}
	if c.foreignKeys, err = e.extractForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	c.apply(table)

	return table, nil
}

func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.is_nullable,
			c.extra
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable, extra string

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &extra); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *MySQLExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`
	return e.queryNames(ctx, query, e.schemaName, tableName)
}

// extractUniqueColumns returns columns covered on their own by a unique index
func (e *MySQLExtractor) extractUniqueColumns(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT MIN(s.column_name)
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.non_unique = 0
		GROUP BY s.index_name
		HAVING COUNT(*) = 1
		ORDER BY MIN(s.column_name)
	`
	return e.queryNames(ctx, query, e.schemaName, tableName)
}

func (e *MySQLExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.column, &fk.referencedTable, &fk.referencedColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func (e *MySQLExtractor) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
