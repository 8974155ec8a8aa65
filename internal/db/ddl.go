package db

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/schemagraph/internal/schema"
)

// DDLTarget is a scratch database that DDL can be executed into and then
// introspected
type DDLTarget interface {
	TableExtractor
	Exec(ctx context.Context, stmt string) error
}

// Exec runs one statement against the PostgreSQL connection
func (e *PostgresExtractor) Exec(ctx context.Context, stmt string) error {
	return e.client.Exec(ctx, stmt)
}

// Exec runs one statement against the MySQL database
func (e *MySQLExtractor) Exec(ctx context.Context, stmt string) error {
	if _, err := e.client.GetDB().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Exec runs one statement against the SQLite database
func (e *SQLiteExtractor) Exec(ctx context.Context, stmt string) error {
	if _, err := e.client.GetDB().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// LoadDDL executes each statement of ddl against target and extracts every
// table that results. A statement that fails is skipped and reported as a
// FailedStatement diagnostic; only introspection errors are returned.
func LoadDDL(ctx context.Context, target DDLTarget, ddl string, logger *zap.Logger) ([]schema.Table, []schema.Diagnostic, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var diags []schema.Diagnostic
	for _, stmt := range SplitStatements(ddl) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if err := target.Exec(ctx, stmt); err != nil {
			logger.Warn("skipping statement", zap.String("statement", abbreviate(stmt)), zap.Error(err))
			diags = append(diags, schema.Diagnostic{
				Kind:   schema.FailedStatement,
				Detail: fmt.Sprintf("%s: %v", abbreviate(stmt), err),
			})
			continue
		}
		logger.Debug("executed statement", zap.String("statement", abbreviate(stmt)))
	}

	tables, err := target.ExtractTables(ctx, nil)
	if err != nil {
		return nil, diags, fmt.Errorf("failed to extract tables: %w", err)
	}
	return tables, diags, nil
}

// LoadSQLiteDDL executes ddl into a fresh in-memory SQLite database
func LoadSQLiteDDL(ctx context.Context, ddl string, logger *zap.Logger) ([]schema.Table, []schema.Diagnostic, error) {
	client, err := NewSQLiteClient(ctx, MemoryDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open scratch database: %w", err)
	}
	defer func() { _ = client.Close() }()

	return LoadDDL(ctx, NewSQLiteExtractor(client), ddl, logger)
}

// SplitStatements splits a script on semicolons that are outside quotes and
// comments. Empty statements are dropped.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		quote   rune
	)

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}

		switch {
		case r == '\'' || r == '"' || r == '`':
			quote = r
			current.WriteRune(r)
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			current.WriteRune('\n')
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++
			current.WriteRune(' ')
		case r == ';':
			stmts = appendStatement(stmts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return appendStatement(stmts, current.String())
}

func appendStatement(stmts []string, stmt string) []string {
	if s := strings.TrimSpace(stmt); s != "" {
		return append(stmts, s)
	}
	return stmts
}

func abbreviate(stmt string) string {
	const limit = 80
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > limit {
		return stmt[:limit] + "..."
	}
	return stmt
}
