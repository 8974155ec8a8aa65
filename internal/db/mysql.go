package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient wraps the connection pool read by MySQLExtractor.
// The schema to introspect comes from the DSN (see ParseDatabaseName).
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient opens a pool for the DSN and pings the server
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the pool used for information_schema queries
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ParseDatabaseName returns the database named in a MySQL DSN. It is the
// default schema for extraction.
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", errors.New("DSN does not name a database")
	}
	return cfg.DBName, nil
}
