package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// SQLiteExtractor handles table extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite table extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractTables extracts the specified tables.
// If tables is empty, extracts all tables in the database in creation order
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, tables []string) ([]schema.Table, error) {
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

	resolveImplicitReferences(extracted)
	return extracted, nil
}

func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	c := constraints{primaryKey: pk}
	if c.uniqueColumns, err = e.extractUniqueColumns(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract unique columns: %w", err)
	}
	if len(pk) == 1 {
		c.uniqueColumns = append(c.uniqueColumns, pk[0])
	}
	if c.foreignKeys, err = e.extractForeignKeys(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	c.apply(table)

	if len(pk) == 1 {
		col := table.Column(pk[0])
		autoInc, err := e.isAutoIncrement(ctx, tableName, col.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to check auto-increment: %w", err)
		}
		col.AutoIncrement = autoInc
	}

	return table, nil
}

// extractColumns reads columns in declaration order and returns the primary
// key columns in key order
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	pkByOrder := map[int]string{}

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		columns = append(columns, schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
		})

		if pk > 0 {
			pkByOrder[pk] = name
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s does not exist", tableName)
	}

	pkColumns := make([]string, 0, len(pkByOrder))
	for i := 1; i <= len(pkByOrder); i++ {
		pkColumns = append(pkColumns, pkByOrder[i])
	}

	return columns, pkColumns, nil
}

// extractUniqueColumns returns columns covered on their own by a unique index
func (e *SQLiteExtractor) extractUniqueColumns(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT il.name
		FROM pragma_index_list(?) il
		WHERE il."unique" = 1
		ORDER BY il.seq
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	var indexNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		indexNames = append(indexNames, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unique []string
	for _, indexName := range indexNames {
		cols, err := e.indexColumns(ctx, indexName)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			unique = append(unique, cols[0])
		}
	}

	return unique, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var colName sql.NullString
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		// Expression indexes have no column name
		if !colName.Valid {
			return nil, rows.Err()
		}
		columns = append(columns, colName.String)
	}

	return columns, rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `SELECT "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`

	rows, err := e.client.GetDB().QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		var toCol sql.NullString

		if err := rows.Scan(&fk.referencedTable, &fk.column, &toCol); err != nil {
			return nil, err
		}
		fk.referencedColumn = toCol.String
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// isAutoIncrement reports whether a single-column primary key is generated by
// SQLite. INTEGER PRIMARY KEY aliases the rowid; serial type names are kept
// from PostgreSQL style DDL.
func (e *SQLiteExtractor) isAutoIncrement(ctx context.Context, tableName, colType string) (bool, error) {
	upper := strings.ToUpper(strings.TrimSpace(colType))
	if upper == "INTEGER" || strings.HasSuffix(upper, "SERIAL") {
		return true, nil
	}

	var ddl sql.NullString
	err := e.client.GetDB().QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName).Scan(&ddl)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

// resolveImplicitReferences fills in the referenced column of foreign keys
// declared as "REFERENCES parent" without a column list. SQLite resolves those
// to the parent's primary key.
func resolveImplicitReferences(tables []schema.Table) {
	for i := range tables {
		for j := range tables[i].Columns {
			col := &tables[i].Columns[j]
			if !col.ForeignKey || col.ReferencedColumn != "" {
				continue
			}
			if target := schema.FindTable(tables, col.ReferencedTable); target != nil {
				if pk := target.PrimaryKey(); len(pk) > 0 {
					col.ReferencedColumn = pk[0]
					continue
				}
			}
			col.ReferencedColumn = "id"
		}
	}
}
