//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagraph/internal/schema"
)

// Runs against an existing server: MYSQL_TEST_DSN=user:pass@tcp(localhost:3306)/testdb
func TestMySQLLoadDDL(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	ctx := context.Background()

	client, err := NewMySQLClient(ctx, dsn)
	require.NoError(t, err)
	defer client.Close()

	dbName, err := ParseDatabaseName(dsn)
	require.NoError(t, err)

	e := NewMySQLExtractor(client, dbName)
	for _, stmt := range []string{"DROP TABLE IF EXISTS sg_members", "DROP TABLE IF EXISTS sg_teams"} {
		require.NoError(t, e.Exec(ctx, stmt))
	}
	t.Cleanup(func() {
		_ = e.Exec(context.Background(), "DROP TABLE IF EXISTS sg_members")
		_ = e.Exec(context.Background(), "DROP TABLE IF EXISTS sg_teams")
	})

	ddl := `
		CREATE TABLE sg_teams (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			slug VARCHAR(64) NOT NULL UNIQUE
		);
		CREATE TABLE sg_members (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			team_id BIGINT NOT NULL,
			FOREIGN KEY (team_id) REFERENCES sg_teams(id)
		);
	`
	_, diags, err := LoadDDL(ctx, e, ddl, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	tables, err := e.ExtractTables(ctx, []string{"sg_teams", "sg_members"})
	require.NoError(t, err)

	teams := schema.FindTable(tables, "sg_teams")
	require.NotNil(t, teams)
	assert.True(t, teams.Column("id").AutoIncrement)
	assert.True(t, teams.Column("slug").Unique)

	teamID := schema.FindTable(tables, "sg_members").Column("team_id")
	assert.True(t, teamID.ForeignKey)
	assert.Equal(t, "sg_teams", teamID.ReferencedTable)
	assert.Equal(t, "id", teamID.ReferencedColumn)
}
