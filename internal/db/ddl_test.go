package db

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/schema"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple",
			script: "CREATE TABLE a (id INT);CREATE TABLE b (id INT);",
			want:   []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"},
		},
		{
			name:   "blank statements dropped",
			script: " ;\n; CREATE TABLE a (id INT)\n;;",
			want:   []string{"CREATE TABLE a (id INT)"},
		},
		{
			name:   "semicolon in string literal",
			script: "INSERT INTO a VALUES ('x;y'); SELECT 1",
			want:   []string{"INSERT INTO a VALUES ('x;y')", "SELECT 1"},
		},
		{
			name:   "semicolon in quoted identifier",
			script: "CREATE TABLE \"odd;name\" (id INT); CREATE TABLE `b;c` (id INT)",
			want:   []string{"CREATE TABLE \"odd;name\" (id INT)", "CREATE TABLE `b;c` (id INT)"},
		},
		{
			name:   "comments",
			script: "-- header; not a statement\nCREATE TABLE a (id INT); /* note; */ CREATE TABLE b (id INT)",
			want:   []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"},
		},
		{
			name:   "no trailing semicolon",
			script: "CREATE TABLE a (id INT)",
			want:   []string{"CREATE TABLE a (id INT)"},
		},
		{
			name:   "empty",
			script: "   ",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func tableNames(tables []schema.Table) []string {
	names := make([]string, len(tables))
	for i := range tables {
		names[i] = tables[i].Name
	}
	return names
}

func TestLoadSQLiteDDL(t *testing.T) {
	tables, diags, err := LoadSQLiteDDL(context.Background(), loadFixture(t, "shop_sqlite.sql"), nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, []string{"users", "profiles", "orders", "coupons", "user_coupons"}, tableNames(tables))

	users := schema.FindTable(tables, "users")
	require.NotNil(t, users)
	id := users.Column("id")
	require.NotNil(t, id)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)

	email := users.Column("email")
	require.NotNil(t, email)
	assert.True(t, email.Unique)
	assert.False(t, email.Nullable)
	assert.True(t, users.Column("display_name").Nullable)

	profileUser := schema.FindTable(tables, "profiles").Column("user_id")
	assert.True(t, profileUser.ForeignKey)
	assert.True(t, profileUser.Unique)
	assert.Equal(t, "users", profileUser.ReferencedTable)
	assert.Equal(t, "id", profileUser.ReferencedColumn)

	orderUser := schema.FindTable(tables, "orders").Column("user_id")
	assert.True(t, orderUser.ForeignKey)
	assert.False(t, orderUser.Unique, "a plain index does not make a column unique")
	assert.Equal(t, "id", orderUser.ReferencedColumn, "implicit reference resolves to the parent key")

	join := schema.FindTable(tables, "user_coupons")
	assert.Equal(t, []string{"user_id", "coupon_id"}, join.PrimaryKey())
	for _, col := range join.Columns {
		assert.True(t, col.ForeignKey)
		assert.False(t, col.Unique, "composite keys do not make members unique")
		assert.False(t, col.AutoIncrement)
	}
}

func TestLoadSQLiteDDLReportsFailedStatements(t *testing.T) {
	ddl := `
		CREATE TABLE users (id INTEGER PRIMARY KEY);
		CREATE TABLE broken (id INTEGER PRIMARY KEY,);
		CREATE TABLE users (id INTEGER PRIMARY KEY);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id));
	`

	tables, diags, err := LoadSQLiteDDL(context.Background(), ddl, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, tableNames(tables))

	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, schema.FailedStatement, d.Kind)
	}
	assert.Contains(t, diags[0].Detail, "CREATE TABLE broken")
}

func TestLoadSQLiteDDLEmpty(t *testing.T) {
	tables, diags, err := LoadSQLiteDDL(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
	assert.Empty(t, diags)
}

func TestLoadDDLHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadSQLiteDDL(ctx, "CREATE TABLE a (id INTEGER)", nil)
	assert.Error(t, err)
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "CREATE TABLE a (id INT)", abbreviate("CREATE   TABLE a\n\t(id INT)"))

	long := abbreviate("SELECT " + strings.Repeat("x ", 100))
	assert.Len(t, long, 83)
}
