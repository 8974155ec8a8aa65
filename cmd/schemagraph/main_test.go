package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph"
	"github.com/tordrt/schemagraph/internal/schema"
	"github.com/tordrt/schemagraph/internal/session"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{name: "single table", tablesStr: "users", wantTables: []string{"users"}},
		{name: "multiple tables", tablesStr: "users,posts,comments", wantTables: []string{"users", "posts", "comments"}},
		{name: "tables with spaces", tablesStr: "users, posts, comments", wantTables: []string{"users", "posts", "comments"}},
		{name: "empty entries", tablesStr: "users,,posts,", wantTables: []string{"users", "posts"}},
		{name: "empty string", tablesStr: "", wantTables: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTables, parseTableList(tt.tablesStr))
		})
	}
}

func TestResolveDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		pg       string
		mysql    string
		sqlite   string
		ddl      string
		fallback string
		want     string
		wantErr  bool
	}{
		{name: "postgres", pg: "postgres://localhost/db", want: "postgres://localhost/db"},
		{name: "mysql dsn", mysql: "u:p@tcp(db:3306)/shop", want: "mysql://u:p@tcp(db:3306)/shop"},
		{name: "mysql url", mysql: "mysql://u:p@tcp(db:3306)/shop", want: "mysql://u:p@tcp(db:3306)/shop"},
		{name: "sqlite", sqlite: "app.db", want: "sqlite://app.db"},
		{name: "ddl", ddl: "schema.sql", fallback: "sqlite://ignored.db", want: ""},
		{name: "fallback", fallback: "sqlite://env.db", want: "sqlite://env.db"},
		{name: "flag beats fallback", sqlite: "flag.db", fallback: "sqlite://env.db", want: "sqlite://flag.db"},
		{name: "none", wantErr: true},
		{name: "two sources", pg: "postgres://localhost/db", sqlite: "app.db", wantErr: true},
		{name: "ddl and database", ddl: "schema.sql", sqlite: "app.db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveDatabaseURL(tt.pg, tt.mysql, tt.sqlite, tt.ddl, tt.fallback)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func decodeResults(t *testing.T, out string) []map[string]any {
	t.Helper()
	var results []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		results = append(results, m)
	}
	return results
}

func resultTableNames(m map[string]any) []string {
	var names []string
	for _, tbl := range m["tables"].([]any) {
		names = append(names, tbl.(map[string]any)["name"].(string))
	}
	return names
}

func TestApplyStreamSharesSessions(t *testing.T) {
	input := strings.Join([]string{
		`{"sessionId": "s1", "currentTables": [{"name": "users", "columns": []}], "response": {"actions": [{"type": "create", "tables": [{"name": "orders", "columns": []}]}], "explanation": "Add orders."}}`,
		``,
		`not json`,
		`{"sessionId": "s1", "response": {"actions": [{"type": "delete", "tableNames": ["USERS"]}]}}`,
		`{"sessionId": "s1", "response": {"actions": [{"type": "create", "tables": [{"name": "", "columns": []}]}], "explanation": "Bad."}}`,
	}, "\n")

	var out bytes.Buffer
	failed, err := applyStream(strings.NewReader(input), &out, session.NewManager(session.NewStore()), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, failed)

	results := decodeResults(t, out.String())
	require.Len(t, results, 4)

	assert.Equal(t, "s1", results[0]["sessionId"])
	assert.Equal(t, []string{"users", "orders"}, resultTableNames(results[0]))
	assert.NotContains(t, results[0], "error")

	assert.Contains(t, results[1]["error"], "line 3: invalid request")

	assert.Equal(t, []string{"orders"}, resultTableNames(results[2]))

	assert.Equal(t, "s1", results[3]["sessionId"])
	assert.Contains(t, results[3]["explanation"], "Bad.\n\nError applying actions: ")
	assert.Equal(t, []string{"orders"}, resultTableNames(results[3]))
	assert.NotEmpty(t, results[3]["error"])
}

func TestApplyStreamReinfers(t *testing.T) {
	req := session.Request{
		SessionID: "s2",
		CurrentTables: []schema.Table{
			{Name: "users", Columns: []schema.Column{{Name: "id", Type: "BIGINT", PrimaryKey: true}}},
		},
		Response: session.AssistantResponse{Actions: schema.Actions{
			schema.CreateAction{Tables: []schema.Table{{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: "BIGINT", PrimaryKey: true},
					{Name: "user_id", Type: "BIGINT", ForeignKey: true, ReferencedTable: "users", ReferencedColumn: "id"},
				},
			}}},
		}},
	}
	line, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	failed, err := applyStream(bytes.NewReader(line), &out, session.NewManager(session.NewStore()),
		&schemagraph.InferOptions{TypeMapper: "java"})
	require.NoError(t, err)
	assert.Equal(t, 0, failed)

	var res session.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	users := schema.FindTable(res.Tables, "users")
	require.NotNil(t, users)
	require.Len(t, users.Relationships, 1)
	assert.Equal(t, schema.OneToMany, users.Relationships[0].Type)
	assert.Equal(t, "user", users.Relationships[0].MappedBy)
	assert.Equal(t, "Long", users.Column("id").MappedType)
}

func TestApplyStreamRejectsUnknownMapperBeforeApplying(t *testing.T) {
	store := session.NewStore()
	line := `{"sessionId": "s1", "response": {"actions": [{"type": "create", "tables": [{"name": "users", "columns": []}]}]}}`

	var out bytes.Buffer
	failed, err := applyStream(strings.NewReader(line), &out, session.NewManager(store),
		&schemagraph.InferOptions{TypeMapper: "rust"})
	require.ErrorContains(t, err, `unknown type mapper "rust"`)
	assert.Equal(t, 0, failed)
	assert.Empty(t, out.String())

	_, ok := store.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}
