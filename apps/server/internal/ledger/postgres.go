package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type PostgresService struct {
	db *sql.DB
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = defaultDatabaseDSN
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &PostgresService{db: db}, nil
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresService) RecordAuction(ctx context.Context, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}
	args, err := recordArgs(rec)
	if err != nil {
		return Record{}, err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO auction_results (`+recordColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, ErrDuplicate
		}
		return Record{}, err
	}
	return cloneRecord(rec), nil
}

func (s *PostgresService) ListResults(ctx context.Context, tableID string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+recordColumns+`
FROM auction_results
WHERE table_id = $1
ORDER BY played_at_ms DESC, seq DESC
LIMIT $2
`, tableID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (s *PostgresService) GetResult(ctx context.Context, resultID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+recordColumns+`
FROM auction_results
WHERE result_id = $1
`, resultID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func ensurePostgresLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS auction_results (
    seq BIGSERIAL PRIMARY KEY,
    result_id TEXT NOT NULL UNIQUE,
    table_id TEXT NOT NULL,
    board INTEGER NOT NULL,
    dealer SMALLINT NOT NULL,
    vulnerability SMALLINT NOT NULL,
    calls BYTEA NOT NULL,
    passed_out SMALLINT NOT NULL DEFAULT 0,
    declarer SMALLINT,
    contract_bid SMALLINT,
    doubling SMALLINT,
    players_json TEXT NOT NULL DEFAULT '[]',
    played_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_auction_results_table_recent ON auction_results(table_id, played_at_ms DESC, seq DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
