// Package typemap maps SQL column types to target-language types.
package typemap

import (
	"regexp"
	"strings"
)

// Mapper converts a SQL type name to a language type
type Mapper interface {
	Map(sqlType string) string
}

var sizeSuffix = regexp.MustCompile(`\(.*\)`)

// baseType strips size and precision, e.g. "VARCHAR(255)" becomes "VARCHAR"
func baseType(sqlType string) string {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	t = sizeSuffix.ReplaceAllString(t, "")
	t = strings.TrimSuffix(t, " UNSIGNED")
	return strings.TrimSpace(t)
}

// TableMapper is a lookup table keyed by base SQL type
type TableMapper struct {
	mappings map[string]string
	fallback string
}

func (m *TableMapper) Map(sqlType string) string {
	if v, ok := m.mappings[baseType(sqlType)]; ok {
		return v
	}
	return m.fallback
}

// Go returns the mapper for Go struct fields
func Go() *TableMapper {
	return &TableMapper{
		fallback: "string",
		mappings: map[string]string{
			"VARCHAR": "string", "TEXT": "string", "CHAR": "string", "CHARACTER VARYING": "string",
			"LONGTEXT": "string", "MEDIUMTEXT": "string", "TINYTEXT": "string", "CLOB": "string",
			"INT": "int32", "INTEGER": "int32", "SMALLINT": "int16", "MEDIUMINT": "int32", "TINYINT": "int8",
			"BIGINT": "int64", "SERIAL": "int32", "BIGSERIAL": "int64",
			"DOUBLE": "float64", "DOUBLE PRECISION": "float64", "FLOAT": "float64", "REAL": "float32",
			"DECIMAL": "float64", "NUMERIC": "float64", "MONEY": "float64",
			"BOOLEAN": "bool", "BOOL": "bool", "BIT": "bool",
			"DATE": "time.Time", "TIME": "time.Time", "TIMESTAMP": "time.Time", "DATETIME": "time.Time",
			"TIMESTAMPTZ": "time.Time", "TIMESTAMP WITH TIME ZONE": "time.Time", "TIMESTAMP WITHOUT TIME ZONE": "time.Time",
			"BLOB": "[]byte", "BINARY": "[]byte", "VARBINARY": "[]byte", "LONGBLOB": "[]byte", "BYTEA": "[]byte",
			"JSON": "json.RawMessage", "JSONB": "json.RawMessage",
			"UUID": "uuid.UUID",
		},
	}
}

// Java returns the mapper for JPA entity fields
func Java() *TableMapper {
	return &TableMapper{
		fallback: "String",
		mappings: map[string]string{
			"VARCHAR": "String", "TEXT": "String", "CHAR": "String", "CHARACTER VARYING": "String",
			"LONGTEXT": "String", "MEDIUMTEXT": "String", "TINYTEXT": "String", "CLOB": "String",
			"INT": "Integer", "INTEGER": "Integer", "SMALLINT": "Integer", "TINYINT": "Integer", "MEDIUMINT": "Integer",
			"BIGINT": "Long", "SERIAL": "Integer", "BIGSERIAL": "Long",
			"DOUBLE": "Double", "DOUBLE PRECISION": "Double", "FLOAT": "Double", "REAL": "Double",
			"DECIMAL": "BigDecimal", "NUMERIC": "BigDecimal", "MONEY": "BigDecimal",
			"BOOLEAN": "Boolean", "BOOL": "Boolean", "BIT": "Boolean",
			"DATE": "LocalDate", "TIME": "LocalTime", "TIMESTAMP": "LocalDateTime", "DATETIME": "LocalDateTime",
			"TIMESTAMPTZ": "OffsetDateTime", "TIMESTAMP WITH TIME ZONE": "OffsetDateTime", "TIMESTAMP WITHOUT TIME ZONE": "LocalDateTime",
			"BLOB": "byte[]", "BINARY": "byte[]", "VARBINARY": "byte[]", "LONGBLOB": "byte[]", "BYTEA": "byte[]",
			"JSON": "String", "JSONB": "String",
			"UUID": "UUID",
		},
	}
}

// ByName returns the mapper registered under name ("go" or "java").
// ok is false for unknown names.
func ByName(name string) (m Mapper, ok bool) {
	switch strings.ToLower(name) {
	case "go", "golang":
		return Go(), true
	case "java", "spring":
		return Java(), true
	default:
		return nil, false
	}
}
