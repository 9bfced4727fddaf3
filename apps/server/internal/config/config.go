// Package config loads server settings from BRIDGE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	LedgerMemory   = "memory"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

type Config struct {
	Addr      string `env:"BRIDGE_ADDR" envDefault:":8080"`
	LogLevel  string `env:"BRIDGE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"BRIDGE_LOG_FORMAT" envDefault:"text"`

	LedgerMode  string `env:"BRIDGE_LEDGER_MODE" envDefault:"memory"`
	SQLitePath  string `env:"BRIDGE_SQLITE_PATH"`
	DatabaseDSN string `env:"BRIDGE_DATABASE_DSN"`

	// Zero disables call timeouts.
	CallTimeout    time.Duration `env:"BRIDGE_CALL_TIMEOUT" envDefault:"30s"`
	NextBoardDelay time.Duration `env:"BRIDGE_NEXT_BOARD_DELAY" envDefault:"5s"`
	ResultsLimit   int           `env:"BRIDGE_RESULTS_LIMIT" envDefault:"50"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.LedgerMode = strings.ToLower(strings.TrimSpace(cfg.LedgerMode))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LedgerMode {
	case LedgerMemory, LedgerSQLite, LedgerPostgres:
	default:
		return fmt.Errorf("invalid BRIDGE_LEDGER_MODE %q (want memory, sqlite or postgres)", c.LedgerMode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid BRIDGE_LOG_FORMAT %q (want text or json)", c.LogFormat)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("BRIDGE_CALL_TIMEOUT must be >= 0, got %s", c.CallTimeout)
	}
	if c.NextBoardDelay < 0 {
		return fmt.Errorf("BRIDGE_NEXT_BOARD_DELAY must be >= 0, got %s", c.NextBoardDelay)
	}
	if c.ResultsLimit <= 0 {
		return fmt.Errorf("BRIDGE_RESULTS_LIMIT must be > 0, got %d", c.ResultsLimit)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("BRIDGE_ADDR must not be empty")
	}
	return nil
}
