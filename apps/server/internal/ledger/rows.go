package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"
)

const recordColumns = `result_id, table_id, board, dealer, vulnerability, calls, passed_out,
    declarer, contract_bid, doubling, players_json, played_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

// recordArgs flattens rec in recordColumns order. Calls are stored in the
// same packed form the wire protocol uses.
func recordArgs(rec Record) ([]any, error) {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return nil, err
	}
	var (
		passedOut                   = 1
		declarer, bid, doubling any = nil, nil, nil
	)
	if c := rec.Contract; c != nil {
		passedOut = 0
		declarer = int64(c.Declarer)
		bid = int64(c.Bid)
		doubling = int64(c.Doubling)
	}
	return []any{
		rec.ResultID,
		rec.TableID,
		rec.Board,
		int64(rec.Dealer),
		int64(rec.Vulnerability),
		wire.MarshalCalls(rec.Calls),
		passedOut,
		declarer,
		bid,
		doubling,
		string(players),
		rec.PlayedAt.UnixMilli(),
	}, nil
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                     Record
		dealer, vulnerability   int64
		calls                   []byte
		passedOut               int64
		declarer, bid, doubling sql.NullInt64
		playersJSON             string
		playedAtMs              int64
	)
	if err := row.Scan(
		&rec.ResultID,
		&rec.TableID,
		&rec.Board,
		&dealer,
		&vulnerability,
		&calls,
		&passedOut,
		&declarer,
		&bid,
		&doubling,
		&playersJSON,
		&playedAtMs,
	); err != nil {
		return Record{}, err
	}

	rec.Dealer = bridge.Seat(dealer)
	rec.Vulnerability = bridge.Vulnerability(vulnerability)
	decoded, err := wire.UnmarshalCalls(calls)
	if err != nil {
		return Record{}, fmt.Errorf("result %s: decode calls: %w", rec.ResultID, err)
	}
	rec.Calls = decoded
	if passedOut == 0 {
		if !declarer.Valid || !bid.Valid || !doubling.Valid {
			return Record{}, fmt.Errorf("result %s: contract columns missing", rec.ResultID)
		}
		rec.Contract = &auction.Contract{
			Declarer: bridge.Seat(declarer.Int64),
			Bid:      bridge.Bid(bid.Int64),
			Doubling: auction.Doubling(doubling.Int64),
		}
	}
	if playersJSON != "" {
		if err := json.Unmarshal([]byte(playersJSON), &rec.Players); err != nil {
			return Record{}, fmt.Errorf("result %s: decode players: %w", rec.ResultID, err)
		}
	}
	rec.PlayedAt = time.UnixMilli(playedAtMs).UTC()
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	out := make([]Record, 0, 16)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
