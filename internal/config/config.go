// Package config loads default settings from the environment and an optional
// .env file. Command line flags override these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvDatabaseURL = "SCHEMAGRAPH_DATABASE_URL"
	EnvLogLevel    = "SCHEMAGRAPH_LOG_LEVEL"
	EnvLogFormat   = "SCHEMAGRAPH_LOG_FORMAT"
	EnvTypeMapper  = "SCHEMAGRAPH_TYPE_MAPPER"
	EnvInflector   = "SCHEMAGRAPH_INFLECTOR"
)

// Config holds process-wide settings
type Config struct {
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	TypeMapper  string
	Inflector   string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		LogLevel:   "info",
		LogFormat:  "console",
		TypeMapper: "go",
		Inflector:  "suffix",
	}
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Variables already set in the environment are not
// overridden by .env files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv), nil
}

// FromEnv builds a Config from a variable lookup function
func FromEnv(lookup func(string) (string, bool)) Config {
	cfg := Default()
	if v, ok := lookup(EnvDatabaseURL); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := lookup(EnvTypeMapper); ok && v != "" {
		cfg.TypeMapper = v
	}
	if v, ok := lookup(EnvInflector); ok && v != "" {
		cfg.Inflector = v
	}
	return cfg
}
