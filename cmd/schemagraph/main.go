package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tordrt/schemagraph"
	"github.com/tordrt/schemagraph/internal/config"
	"github.com/tordrt/schemagraph/internal/logging"
	"github.com/tordrt/schemagraph/internal/schema"
	"github.com/tordrt/schemagraph/internal/session"
)

var (
	envFile   string
	logLevel  string
	logFormat string

	dbURL      string
	mysqlURL   string
	sqlitePath string
	ddlFile    string
	ddlTarget  string
	outputFile string
	outputDir  string
	tables     string
	exclude    string
	schemaName string
	format     string
	typeMapper string
	inflector  string

	inputFile   string
	reinfer     bool
	failOnError bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "schemagraph",
	Short: "Infer entity relationships from relational schemas",
	Long: `schemagraph reads table definitions from PostgreSQL, MySQL, SQLite or a DDL script,
infers one-to-one, one-to-many and many-to-many relationships between them, and applies
assistant-generated schema edits within sessions.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Extract tables and print the connected entity model",
	RunE:  runInfer,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a JSON-lines stream of assistant responses to session schemas",
	Long: `apply reads one JSON request per line:

  {"sessionId": "...", "currentTables": [...], "response": {"actions": [...], "explanation": "..."}}

and writes one JSON result per line. All requests share one session store, so later
lines can continue sessions started by earlier ones.`,
	RunE: runApply,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load defaults from")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from "+config.EnvLogLevel+" or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default from "+config.EnvLogFormat+" or console)")
	rootCmd.PersistentFlags().StringVar(&typeMapper, "type-mapper", "", "Column type mapping: go or java (default from "+config.EnvTypeMapper+" or go)")
	rootCmd.PersistentFlags().StringVar(&inflector, "inflector", "", "Pluralization: suffix or inflection (default from "+config.EnvInflector+" or suffix)")

	inferCmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL (postgres://, mysql://, sqlite://; default from "+config.EnvDatabaseURL+")")
	inferCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	inferCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	inferCmd.Flags().StringVar(&ddlFile, "ddl", "", "DDL script to load instead of a live database (- for stdin)")
	inferCmd.Flags().StringVar(&ddlTarget, "ddl-target", "", "Scratch database URL to run --ddl against (default: in-memory SQLite)")
	inferCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	inferCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	inferCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	inferCmd.Flags().StringVarP(&exclude, "exclude", "x", "", "Tables to exclude (comma-separated, optional)")
	inferCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	inferCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or json")

	applyCmd.Flags().StringVarP(&inputFile, "input", "i", "-", "JSON-lines request file (- for stdin)")
	applyCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	applyCmd.Flags().BoolVar(&reinfer, "infer", false, "Re-infer relationships on each result")
	applyCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero if any request fails")

	rootCmd.AddCommand(inferCmd, applyCmd)
}

// setup loads configuration and builds the logger; flags override the environment
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(envFile); err != nil {
		return err
	}

	cfg.LogLevel = firstNonEmpty(logLevel, cfg.LogLevel)
	cfg.LogFormat = firstNonEmpty(logFormat, cfg.LogFormat)
	cfg.TypeMapper = firstNonEmpty(typeMapper, cfg.TypeMapper)
	cfg.Inflector = firstNonEmpty(inflector, cfg.Inflector)

	if err := (&schemagraph.InferOptions{TypeMapper: cfg.TypeMapper, Inflector: cfg.Inflector}).Validate(); err != nil {
		return err
	}

	if logger, err = logging.New(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	return nil
}

func runInfer(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	url, err := resolveDatabaseURL(dbURL, mysqlURL, sqlitePath, ddlFile, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	opts := &schemagraph.Options{
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(exclude),
		SchemaName:    schemaName,
		Logger:        logger,
	}

	extracted, loadDiags, err := loadTables(ctx, url, opts)
	if err != nil {
		return err
	}

	model, err := schemagraph.Infer(extracted, &schemagraph.InferOptions{
		TypeMapper: cfg.TypeMapper,
		Inflector:  cfg.Inflector,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	for _, d := range append(loadDiags, model.Diagnostics...) {
		logger.Warn(d.String())
	}
	logger.Info("inferred model", zap.Int("tables", len(model.Tables)), zap.Int("diagnostics", len(loadDiags)+len(model.Diagnostics)))

	out := &schemagraph.OutputOptions{Format: format, OutputDir: outputDir}
	if outputDir == "" {
		w, closeFn, err := openOutput(outputFile)
		if err != nil {
			return err
		}
		defer closeFn()
		out.Writer = w
	}

	if err := schemagraph.FormatTables(model.Tables, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

// loadTables reads tables from a DDL script when --ddl is set, otherwise from url
func loadTables(ctx context.Context, url string, opts *schemagraph.Options) ([]schema.Table, []schema.Diagnostic, error) {
	if ddlFile == "" {
		extracted, err := schemagraph.ExtractTables(ctx, url, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to extract tables: %w", err)
		}
		return extracted, nil, nil
	}

	ddl, err := readInput(ddlFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read DDL: %w", err)
	}
	extracted, diags, err := schemagraph.LoadDDL(ctx, string(ddl), ddlTarget, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load DDL: %w", err)
	}
	return extracted, diags, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()

	in, err := openInput(inputFile)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	w, closeFn, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	manager := session.NewManager(session.NewStore(), session.WithLogger(logger))

	var inferOpts *schemagraph.InferOptions
	if reinfer {
		inferOpts = &schemagraph.InferOptions{TypeMapper: cfg.TypeMapper, Inflector: cfg.Inflector, Logger: logger}
	}

	failed, err := applyStream(in, w, manager, inferOpts)
	if err != nil {
		return err
	}
	logger.Info("applied requests", zap.Int("failed", failed))

	if failOnError && failed > 0 {
		return fmt.Errorf("%d request(s) failed", failed)
	}
	return nil
}

// applyResult is one output line of the apply command
type applyResult struct {
	*session.Result
	Error string `json:"error,omitempty"`
}

// applyStream applies each JSON request line from r and writes a JSON result
// line to w. Malformed lines produce an error result and processing
// continues. Returns the number of failed requests. Invalid inferOpts are
// rejected before any request is applied.
func applyStream(r io.Reader, w io.Writer, manager *session.Manager, inferOpts *schemagraph.InferOptions) (int, error) {
	if inferOpts != nil {
		if err := inferOpts.Validate(); err != nil {
			return 0, err
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	failed := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		out := applyLine(line, lineNo, manager, inferOpts)
		if out.Error != "" {
			failed++
		}
		if err := enc.Encode(out); err != nil {
			return failed, fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return failed, fmt.Errorf("failed to read requests: %w", err)
	}
	return failed, nil
}

func applyLine(line string, lineNo int, manager *session.Manager, inferOpts *schemagraph.InferOptions) applyResult {
	var req session.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		logger.Warn("malformed request", zap.Int("line", lineNo), zap.Error(err))
		return applyResult{
			Result: &session.Result{Tables: []schema.Table{}},
			Error:  fmt.Sprintf("line %d: invalid request: %v", lineNo, err),
		}
	}

	res := manager.Apply(req)
	out := applyResult{Result: res}
	if res.Failed() {
		out.Error = res.Err.Error()
		return out
	}

	if inferOpts != nil {
		model, err := schemagraph.Infer(res.Tables, inferOpts)
		if err != nil {
			out.Error = err.Error()
			return out
		}
		res.Tables = model.Tables
		res.Diagnostics = append(res.Diagnostics, model.Diagnostics...)
	}
	return out
}

// resolveDatabaseURL picks the single database source from the flags,
// falling back to the configured URL
func resolveDatabaseURL(pgURL, mysqlDSN, sqliteFile, ddl, fallback string) (string, error) {
	var sources []string
	if pgURL != "" {
		sources = append(sources, pgURL)
	}
	if mysqlDSN != "" {
		sources = append(sources, "mysql://"+strings.TrimPrefix(mysqlDSN, "mysql://"))
	}
	if sqliteFile != "" {
		sources = append(sources, "sqlite://"+sqliteFile)
	}

	count := len(sources)
	if ddl != "" {
		count++
	}
	if count > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, --sqlite or --ddl can be specified")
	}
	if ddl != "" {
		return "", nil
	}
	if count == 1 {
		return sources[0], nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("one of --db-url, --mysql-url, --sqlite or --ddl must be specified (or set %s)", config.EnvDatabaseURL)
}

// parseTableList splits a comma-separated list, trimming spaces
func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return f, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close output file", zap.Error(err))
		}
	}, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
