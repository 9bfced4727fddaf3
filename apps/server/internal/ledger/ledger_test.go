package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bridge-lite/auction"
	"bridge-lite/bridge"

	"github.com/google/go-cmp/cmp"
)

func completedRecord(t *testing.T, tableID string, board int, calls string) Record {
	t.Helper()
	cfg, err := auction.ConfigForBoard(board)
	if err != nil {
		t.Fatalf("ConfigForBoard err: %v", err)
	}
	a, err := auction.Replay(cfg, bridge.MustParseCalls(calls))
	if err != nil {
		t.Fatalf("Replay err: %v", err)
	}
	rec, err := NewRecord(tableID, board, a.Snapshot(), [4]string{"u-n", "u-e", "u-s", "u-w"})
	if err != nil {
		t.Fatalf("NewRecord err: %v", err)
	}
	return rec
}

func openSQLite(t *testing.T) Service {
	t.Helper()
	svc, err := NewSQLiteService(filepath.Join(t.TempDir(), "ledger", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteService err: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// backends lists the implementations that run without external services.
func backends(t *testing.T) map[string]func(t *testing.T) Service {
	return map[string]func(t *testing.T) Service{
		"memory": func(*testing.T) Service { return NewMemoryService() },
		"sqlite": openSQLite,
	}
}

func TestRecordAuction_RoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			svc := open(t)
			ctx := context.Background()

			rec := completedRecord(t, "t1", 1, "1S P 2S X XX P P P")
			stored, err := svc.RecordAuction(ctx, rec)
			if err != nil {
				t.Fatalf("RecordAuction err: %v", err)
			}
			if stored.ResultID == "" || stored.PlayedAt.IsZero() {
				t.Fatalf("expected generated id and timestamp, got %+v", stored)
			}
			want := &auction.Contract{Declarer: bridge.North, Bid: bridge.MustBid(2, bridge.Spades), Doubling: auction.Redoubled}
			if diff := cmp.Diff(want, stored.Contract); diff != "" {
				t.Fatalf("contract mismatch (-want +got):\n%s", diff)
			}

			got, err := svc.GetResult(ctx, stored.ResultID)
			if err != nil {
				t.Fatalf("GetResult err: %v", err)
			}
			if diff := cmp.Diff(stored, got); diff != "" {
				t.Fatalf("stored record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordAuction_PassedOut(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			svc := open(t)
			ctx := context.Background()

			stored, err := svc.RecordAuction(ctx, completedRecord(t, "t1", 2, "P P P P"))
			if err != nil {
				t.Fatalf("RecordAuction err: %v", err)
			}
			got, err := svc.GetResult(ctx, stored.ResultID)
			if err != nil {
				t.Fatalf("GetResult err: %v", err)
			}
			if !got.PassedOut() || got.Dealer != bridge.East || got.Vulnerability != bridge.VulNorthSouth {
				t.Fatalf("unexpected passed-out record %+v", got)
			}
			if len(got.Calls) != 4 {
				t.Fatalf("expected 4 calls, got %v", got.Calls)
			}
		})
	}
}

func TestRecordAuction_RejectsDuplicateAndInvalid(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			svc := open(t)
			ctx := context.Background()

			rec := completedRecord(t, "t1", 1, "P P P P")
			rec.ResultID = "fixed-id"
			if _, err := svc.RecordAuction(ctx, rec); err != nil {
				t.Fatalf("RecordAuction err: %v", err)
			}
			if _, err := svc.RecordAuction(ctx, rec); !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}

			bad := rec
			bad.ResultID = ""
			bad.TableID = " "
			if _, err := svc.RecordAuction(ctx, bad); err == nil {
				t.Fatalf("expected error for empty table id")
			}
			bad = rec
			bad.ResultID = ""
			bad.Calls = nil
			if _, err := svc.RecordAuction(ctx, bad); err == nil {
				t.Fatalf("expected error for empty call list")
			}
		})
	}
}

func TestListResults_NewestFirstWithLimit(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			svc := open(t)
			ctx := context.Background()

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for board := 1; board <= 4; board++ {
				rec := completedRecord(t, "t1", board, "P P P P")
				rec.PlayedAt = base.Add(time.Duration(board) * time.Minute)
				if _, err := svc.RecordAuction(ctx, rec); err != nil {
					t.Fatalf("RecordAuction err: %v", err)
				}
			}
			if _, err := svc.RecordAuction(ctx, completedRecord(t, "t2", 1, "P P P P")); err != nil {
				t.Fatalf("RecordAuction err: %v", err)
			}

			got, err := svc.ListResults(ctx, "t1", 3)
			if err != nil {
				t.Fatalf("ListResults err: %v", err)
			}
			var boards []int
			for _, r := range got {
				boards = append(boards, r.Board)
			}
			if diff := cmp.Diff([]int{4, 3, 2}, boards); diff != "" {
				t.Fatalf("boards mismatch (-want +got):\n%s", diff)
			}

			empty, err := svc.ListResults(ctx, "missing", 0)
			if err != nil || len(empty) != 0 {
				t.Fatalf("expected no results for unknown table, got %v err=%v", empty, err)
			}
		})
	}
}

func TestGetResult_NotFound(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := open(t).GetResult(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestNewRecord_RequiresCompleteAuction(t *testing.T) {
	a, err := auction.NewForBoard(1)
	if err != nil {
		t.Fatalf("NewForBoard err: %v", err)
	}
	if _, err := NewRecord("t1", 1, a.Snapshot(), [4]string{}); err == nil {
		t.Fatalf("expected error for auction still in progress")
	}
}

func TestMemoryService_ReturnsDetachedRecords(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	stored, err := svc.RecordAuction(ctx, completedRecord(t, "t1", 1, "1NT P P P"))
	if err != nil {
		t.Fatalf("RecordAuction err: %v", err)
	}
	stored.Calls[0] = bridge.Pass
	stored.Contract.Doubling = auction.Doubled

	got, err := svc.GetResult(ctx, stored.ResultID)
	if err != nil {
		t.Fatalf("GetResult err: %v", err)
	}
	if got.Calls[0] != bridge.BidCall(bridge.OneNoTrump) || got.Contract.Doubling != auction.Undoubled {
		t.Fatalf("memory ledger shares storage with callers: %+v", got)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: defaultResultsLimit, 0: defaultResultsLimit, 7: 7, 10000: maxResultsLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
