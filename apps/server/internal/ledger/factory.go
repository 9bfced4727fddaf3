package ledger

import (
	"fmt"

	"bridge-lite/apps/server/internal/config"
)

// NewService opens the backend selected by cfg.LedgerMode and returns it with
// a short label for the startup log.
func NewService(cfg config.Config) (Service, string, error) {
	switch cfg.LedgerMode {
	case config.LedgerMemory, "":
		return NewMemoryService(), "memory", nil
	case config.LedgerSQLite:
		path, err := localDatabasePath(cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		svc, err := NewSQLiteService(path)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite ledger %s: %w", path, err)
		}
		return svc, "sqlite:" + path, nil
	case config.LedgerPostgres:
		svc, err := NewPostgresService(cfg.DatabaseDSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres ledger: %w", err)
		}
		return svc, "postgres", nil
	default:
		return nil, "", fmt.Errorf("unknown ledger mode %q", cfg.LedgerMode)
	}
}
