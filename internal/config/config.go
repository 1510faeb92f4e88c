// Package config loads cnextc's environment-driven configuration: the
// run-history database location and retention policy, plus the scanner's
// default file-size ceiling.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration.
type Config struct {
	HistoryDBPath string
	RetentionRuns int
	DebugSQL      bool
	MaxFileBytes  int64
}

// LoadConfig loads a .env file if present (ignoring a missing file, per the
// convention of only best-effort local overrides) and then reads environment
// variables, falling back to defaults.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HistoryDBPath: os.Getenv("CNEXTC_HISTORY_DB"),
		RetentionRuns: 20,
		MaxFileBytes:  5 * 1024 * 1024,
	}

	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = ".cnextc/history.db"
	}

	if v := os.Getenv("CNEXTC_HISTORY_RETENTION_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetentionRuns = n
		}
	}

	if v := os.Getenv("CNEXTC_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxFileBytes = n
		}
	}

	if v := os.Getenv("CNEXTC_DEBUG_SQL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DebugSQL = b
		}
	}

	return cfg
}
