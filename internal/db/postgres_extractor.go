package db

import (
	"context"
	"fmt"

	"github.com/tordrt/schemagraph/internal/schema"
)

const varcharType = "varchar"

// PostgresExtractor handles table extraction from PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates a new PostgreSQL table extractor
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractTables extracts the specified tables.
// If tables is empty, extracts all base tables in the schema
func (e *PostgresExtractor) ExtractTables(ctx context.Context, tables []string) ([]schema.Table, error) {
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

func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
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

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name carries an underscore prefix for arrays, e.g. "_int4" for integer[]
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

// extractColumns reads columns in ordinal order. Serial and identity columns
// are flagged as auto-increment.
func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length,
			c.is_nullable,
			c.column_default,
			c.is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var dataType, udtName, nullable, identity string
		var charMaxLength *int
		var defaultVal *string

		if err := rows.Scan(&col.Name, &dataType, &udtName, &charMaxLength, &nullable, &defaultVal, &identity); err != nil {
			return nil, err
		}

		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		col.Nullable = nullable == "YES"
		col.AutoIncrement = identity == "YES" || isSequenceDefault(defaultVal)

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *PostgresExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`
	return e.queryColumnNames(ctx, query, tableName)
}

// extractUniqueColumns returns columns covered on their own by a unique
// index, including a single-column primary key. Columns that are only part of
// a composite unique index are not unique by themselves.
func (e *PostgresExtractor) extractUniqueColumns(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ix.indkey[0]
		WHERE n.nspname = $1
			AND t.relname = $2
			AND ix.indisunique
			AND ix.indnatts = 1
		ORDER BY a.attnum
	`
	return e.queryColumnNames(ctx, query, tableName)
}

func (e *PostgresExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
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

func (e *PostgresExtractor) queryColumnNames(ctx context.Context, query, tableName string) ([]string, error) {
	rows, err := e.client.GetConnection().Query(ctx, query, e.schema, tableName)
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
