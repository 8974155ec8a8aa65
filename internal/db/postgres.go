package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultPostgresSchema is extracted when no schema name is given
const DefaultPostgresSchema = "public"

// PostgresClient holds the single pgx connection used for catalog queries
// and, when PostgreSQL is the DDL target, for running the script
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient connects and pings the server
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the connection the extractor queries through
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// Exec runs one DDL statement
func (c *PostgresClient) Exec(ctx context.Context, sql string) error {
	if _, err := c.conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}
