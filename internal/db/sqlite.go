package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN opens a private in-memory SQLite database
const MemoryDSN = "file::memory:"

// SQLiteClient wraps a SQLite database file, or the scratch in-memory
// database that DDL scripts are loaded into
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens the database at path and pings it.
// Foreign key enforcement is left off so DDL can reference tables
// in any order.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if path == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the handle used for PRAGMA reads and DDL execution
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}
