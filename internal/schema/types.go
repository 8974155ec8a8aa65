package schema

import "strings"

// RelationshipType is the cardinality of a relationship as seen from the table that owns it
type RelationshipType string

const (
	OneToOne   RelationshipType = "ONE_TO_ONE"
	OneToMany  RelationshipType = "ONE_TO_MANY"
	ManyToOne  RelationshipType = "MANY_TO_ONE"
	ManyToMany RelationshipType = "MANY_TO_MANY"
)

// Column represents a table column with its constraint flags
type Column struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	FieldName        string `json:"fieldName,omitempty"`
	MappedType       string `json:"mappedType,omitempty"`
	PrimaryKey       bool   `json:"primaryKey"`
	AutoIncrement    bool   `json:"autoIncrement"`
	Nullable         bool   `json:"nullable"`
	ForeignKey       bool   `json:"foreignKey"`
	ReferencedTable  string `json:"referencedTable,omitempty"`
	ReferencedColumn string `json:"referencedColumn,omitempty"`
	Unique           bool   `json:"unique"`
}

// Relationship links two tables by name. It belongs to the table whose
// Relationships slice holds it.
type Relationship struct {
	Type            RelationshipType `json:"type"`
	SourceTable     string           `json:"sourceTable"`
	TargetTable     string           `json:"targetTable"`
	SourceColumn    string           `json:"sourceColumn"`
	TargetColumn    string           `json:"targetColumn"`
	JoinTable       string           `json:"joinTable,omitempty"`
	MappedBy        string           `json:"mappedBy,omitempty"`
	FieldName       string           `json:"fieldName"`
	TargetClassName string           `json:"targetClassName"`
}

// Table represents a database table
type Table struct {
	Name          string         `json:"name"`
	ClassName     string         `json:"className"`
	Columns       []Column       `json:"columns"`
	Relationships []Relationship `json:"relationships,omitempty"`
	IsJoinTable   bool           `json:"isJoinTable"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ForeignKeys returns the foreign key columns in column order
func (t *Table) ForeignKeys() []Column {
	var fks []Column
	for _, col := range t.Columns {
		if col.ForeignKey {
			fks = append(fks, col)
		}
	}
	return fks
}

// PrimaryKey returns the names of the primary key columns in column order
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, col := range t.Columns {
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	return pk
}

// SetMetadata stores an auxiliary flag on the table
func (t *Table) SetMetadata(key string, value any) {
	if t.Metadata == nil {
		t.Metadata = make(map[string]any)
	}
	t.Metadata[key] = value
}

// NameEquals reports whether the table name matches name, ignoring case
func (t *Table) NameEquals(name string) bool {
	return strings.EqualFold(t.Name, name)
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := t
	if t.Columns != nil {
		out.Columns = make([]Column, len(t.Columns))
		copy(out.Columns, t.Columns)
	}
	if t.Relationships != nil {
		out.Relationships = make([]Relationship, len(t.Relationships))
		copy(out.Relationships, t.Relationships)
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// CloneTables deep-copies a table list. A nil input yields nil.
func CloneTables(tables []Table) []Table {
	if tables == nil {
		return nil
	}
	out := make([]Table, len(tables))
	for i := range tables {
		out[i] = tables[i].Clone()
	}
	return out
}

// FindTable returns the first table whose name equals name exactly, or nil
func FindTable(tables []Table, name string) *Table {
	for i := range tables {
		if tables[i].Name == name {
			return &tables[i]
		}
	}
	return nil
}
