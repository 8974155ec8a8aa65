package formatter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/schema"
)

func sampleTables() []schema.Table {
	return []schema.Table{
		{
			Name:      "users",
			ClassName: "User",
			Columns: []schema.Column{
				{Name: "id", Type: "BIGINT", MappedType: "int64", PrimaryKey: true, AutoIncrement: true},
				{Name: "email", Type: "VARCHAR(255)", Unique: true},
			},
			Relationships: []schema.Relationship{{
				Type: schema.OneToMany, SourceTable: "users", TargetTable: "orders",
				SourceColumn: "id", TargetColumn: "user_id", MappedBy: "user",
				FieldName: "orders", TargetClassName: "Order",
			}},
		},
		{
			Name:      "orders",
			ClassName: "Order",
			Columns: []schema.Column{
				{Name: "id", Type: "BIGINT", PrimaryKey: true},
				{Name: "user_id", Type: "BIGINT", ForeignKey: true, ReferencedTable: "users", ReferencedColumn: "id"},
				{Name: "note", Type: "TEXT", Nullable: true},
			},
			Relationships: []schema.Relationship{{
				Type: schema.ManyToOne, SourceTable: "orders", TargetTable: "users",
				SourceColumn: "user_id", TargetColumn: "id",
				FieldName: "user", TargetClassName: "User",
			}},
		},
		{
			Name:        "user_roles",
			ClassName:   "UserRole",
			IsJoinTable: true,
			Columns: []schema.Column{
				{Name: "user_id", Type: "BIGINT", ForeignKey: true, ReferencedTable: "users", ReferencedColumn: "id"},
			},
		},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"text", "markdown", "json"} {
		f, err := New(format, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("yaml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid format")
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(sampleTables()))

	out := buf.String()
	assert.Contains(t, out, "TABLE users → User\n")
	assert.Contains(t, out, "  id: BIGINT (int64) PK AUTO\n")
	assert.Contains(t, out, "  email: VARCHAR(255) UNIQUE NOT NULL\n")
	assert.Contains(t, out, "  user_id: BIGINT NOT NULL FK → users.id\n")
	assert.Contains(t, out, "  note: TEXT\n")
	assert.Contains(t, out, "    ONE_TO_MANY orders on orders.user_id as Order orders (mapped by user)\n")
	assert.Contains(t, out, "    MANY_TO_ONE users on user_id as User user\n")
	assert.Contains(t, out, "TABLE user_roles → UserRole [join table]\n")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(sampleTables()))

	out := buf.String()
	assert.Contains(t, out, "# Database Schema\n")
	assert.Contains(t, out, "## orders → Order\n")
	assert.Contains(t, out, "- **user_id:** BIGINT, NOT NULL, FK → users.id\n")
	assert.Contains(t, out, "- **note:** TEXT\n")
	assert.Contains(t, out, "### Relationships\n\n- MANY_TO_ONE users on user_id as User user\n")
}

func TestDescribeManyToMany(t *testing.T) {
	rel := schema.Relationship{
		Type: schema.ManyToMany, SourceTable: "users", TargetTable: "roles",
		SourceColumn: "user_id", TargetColumn: "role_id", JoinTable: "user_roles",
		FieldName: "roles", TargetClassName: "Role",
	}
	assert.Equal(t, "MANY_TO_MANY roles via user_roles as Role roles", describeRelationship(rel))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(sampleTables()))

	var decoded []schema.Table
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleTables(), decoded)

	buf.Reset()
	require.NoError(t, NewJSONFormatter(&buf).Format(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestMultiFileFormatter(t *testing.T) {
	tests := []struct {
		format   string
		ext      string
		overview string
		incoming string
	}{
		{format: "markdown", ext: ".md", overview: "- **orders** (related: users)", incoming: "### Referenced by\n\n- orders.user_id → id\n- user_roles.user_id → id\n"},
		{format: "text", ext: ".txt", overview: "user_roles [join table]\n", incoming: "  REFERENCED BY:\n    orders.user_id → id\n"},
		{format: "json", ext: ".json", overview: `"table": "user_roles"`, incoming: `"referencedBy": [`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "schema")
			require.NoError(t, NewMultiFileFormatter(dir, tt.format).Format(sampleTables()))

			overview, err := os.ReadFile(filepath.Join(dir, "_overview"+tt.ext))
			require.NoError(t, err)
			assert.Contains(t, string(overview), tt.overview)

			users, err := os.ReadFile(filepath.Join(dir, "users"+tt.ext))
			require.NoError(t, err)
			assert.Contains(t, string(users), tt.incoming)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 4)
		})
	}
}

func TestMultiFileFormatterRejectsUnknownFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schema")
	err := NewMultiFileFormatter(dir, "yaml").Format(sampleTables())
	assert.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOverviewSortsAndDedupes(t *testing.T) {
	tables := []schema.Table{
		{Name: "b", Relationships: []schema.Relationship{{TargetTable: "a"}, {TargetTable: "a"}, {TargetTable: "c"}}},
		{Name: "a"},
	}
	entries := overview(tables)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Table)
	assert.Equal(t, []string{"a", "c"}, entries[1].References)
}
