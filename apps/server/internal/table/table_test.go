package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"bridge-lite/apps/server/internal/codec"
	"bridge-lite/apps/server/internal/ledger"
	"bridge-lite/apps/server/internal/logger"
	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"
)

func TestMain(m *testing.M) {
	slog.SetDefault(logger.New(logger.Config{Level: "warn"}, os.Stderr))
	os.Exit(m.Run())
}

// recorder decodes every frame a table sends, per user.
type recorder struct {
	mu   sync.Mutex
	sent map[string][]*wire.ServerEnvelope
}

func newRecorder() *recorder {
	return &recorder{sent: make(map[string][]*wire.ServerEnvelope)}
}

func (r *recorder) send(userID string, data []byte) {
	env, err := wire.UnmarshalServer(data)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	r.sent[userID] = append(r.sent[userID], env)
	r.mu.Unlock()
}

func (r *recorder) last(userID string) *wire.ServerEnvelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.sent[userID]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (r *recorder) kinds(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, env := range r.sent[userID] {
		out = append(out, env.Payload.Kind())
	}
	return out
}

var testPlayers = [4]string{"north", "east", "south", "west"}

func newTestTable(t *testing.T, cfg Config, svc ledger.Service) (*Table, *recorder) {
	t.Helper()
	if cfg.FirstBoard == 0 {
		cfg.FirstBoard = 1
	}
	rec := newRecorder()
	return newTable("table_test", cfg, rec.send, svc), rec
}

// seatAll joins and seats the four test players, which starts the first board.
func seatAll(t *testing.T, tbl *Table) {
	t.Helper()
	for i, userID := range testPlayers {
		if err := tbl.handleJoinTable(userID); err != nil {
			t.Fatalf("join %s err: %v", userID, err)
		}
		if err := tbl.handleTakeSeat(userID, bridge.Seats[i]); err != nil {
			t.Fatalf("take seat %s err: %v", userID, err)
		}
	}
}

func playCalls(t *testing.T, tbl *Table, calls string) {
	t.Helper()
	for _, c := range bridge.MustParseCalls(calls) {
		seat := tbl.auction.Turn()
		if err := tbl.handleCall(tbl.seats[seat], c); err != nil {
			t.Fatalf("call %s by %s err: %v", c, seat, err)
		}
	}
}

func TestTakeSeat_FourthSeatStartsBoard(t *testing.T) {
	tbl, rec := newTestTable(t, Config{CallTimeout: 30 * time.Second}, nil)

	for i, userID := range testPlayers[:3] {
		_ = tbl.handleJoinTable(userID)
		if err := tbl.handleTakeSeat(userID, bridge.Seats[i]); err != nil {
			t.Fatalf("take seat err: %v", err)
		}
	}
	if tbl.auction != nil {
		t.Fatalf("board must not start with three players")
	}

	_ = tbl.handleJoinTable("west")
	if err := tbl.handleTakeSeat("west", bridge.West); err != nil {
		t.Fatalf("take seat err: %v", err)
	}
	if tbl.auction == nil || tbl.board != 1 {
		t.Fatalf("expected board 1 to start, board=%d", tbl.board)
	}
	if tbl.auction.Dealer() != bridge.North {
		t.Fatalf("board 1 dealer = %s, want N", tbl.auction.Dealer())
	}

	prompt, ok := rec.last("east").Payload.(*wire.CallPrompt)
	if !ok {
		t.Fatalf("expected last message to be a call prompt, got %v", rec.kinds("east"))
	}
	if prompt.Seat != wire.SeatCode(bridge.North) || prompt.DeadlineMs == 0 {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	if len(prompt.LegalCalls) != 1+bridge.BidCount {
		t.Fatalf("opening prompt should offer pass and every bid, got %d calls", len(prompt.LegalCalls))
	}
}

func TestTakeSeat_Rejections(t *testing.T) {
	tbl, _ := newTestTable(t, Config{}, nil)

	if err := tbl.handleTakeSeat("ghost", bridge.North); !errors.Is(err, codec.ErrBadRequest) {
		t.Fatalf("expected bad request for unknown user, got %v", err)
	}
	_ = tbl.handleJoinTable("a")
	_ = tbl.handleJoinTable("b")
	if err := tbl.handleTakeSeat("a", bridge.NoSeat); !errors.Is(err, codec.ErrBadRequest) {
		t.Fatalf("expected bad request for invalid seat, got %v", err)
	}
	if err := tbl.handleTakeSeat("a", bridge.South); err != nil {
		t.Fatalf("take seat err: %v", err)
	}
	if err := tbl.handleTakeSeat("b", bridge.South); !errors.Is(err, codec.ErrBadRequest) {
		t.Fatalf("expected occupied seat rejection, got %v", err)
	}
	if err := tbl.handleTakeSeat("a", bridge.East); !errors.Is(err, codec.ErrBadRequest) {
		t.Fatalf("expected already-seated rejection, got %v", err)
	}
}

func TestHandleCall_Errors(t *testing.T) {
	tbl, _ := newTestTable(t, Config{}, nil)
	_ = tbl.handleJoinTable("watcher")
	seatAll(t, tbl)

	if err := tbl.handleCall("watcher", bridge.Pass); !errors.Is(err, codec.ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated, got %v", err)
	}
	if err := tbl.handleCall("east", bridge.Pass); !errors.Is(err, auction.ErrWrongTurn) {
		t.Fatalf("expected ErrWrongTurn, got %v", err)
	}
	playCalls(t, tbl, "1H")
	err := tbl.handleCall("east", bridge.BidCall(bridge.OneClub))
	if !errors.Is(err, auction.ErrIllegalCall) {
		t.Fatalf("expected ErrIllegalCall, got %v", err)
	}
	if got := codec.ErrorToWire(err).Code; got != wire.ErrorIllegalCall {
		t.Fatalf("wire code = %s, want %s", got, wire.ErrorIllegalCall)
	}
	if tbl.auction.Len() != 1 {
		t.Fatalf("rejected calls must not change the auction, len=%d", tbl.auction.Len())
	}
}

func TestHandleTimeout_InjectsPass(t *testing.T) {
	tbl, rec := newTestTable(t, Config{CallTimeout: 10 * time.Second}, nil)
	seatAll(t, tbl)

	if tbl.actionTimeoutSeat != bridge.North {
		t.Fatalf("expected clock on North, got %s", tbl.actionTimeoutSeat)
	}
	deadline := tbl.actionDeadline

	if err := tbl.handleTimeout(deadline.Add(-time.Second)); err != nil {
		t.Fatalf("handleTimeout err: %v", err)
	}
	if tbl.auction.Len() != 0 {
		t.Fatalf("timeout fired before the deadline")
	}

	if err := tbl.handleTimeout(deadline); err != nil {
		t.Fatalf("handleTimeout err: %v", err)
	}
	calls := tbl.auction.Calls()
	if len(calls) != 1 || calls[0].Seat != bridge.North || calls[0].Call != bridge.Pass {
		t.Fatalf("expected an injected pass by North, got %v", calls)
	}
	if tbl.actionTimeoutSeat != bridge.East {
		t.Fatalf("clock should move to East, got %s", tbl.actionTimeoutSeat)
	}

	var result *wire.CallResult
	for _, env := range rec.sent["south"] {
		if r, ok := env.Payload.(*wire.CallResult); ok {
			result = r
		}
	}
	if result == nil || !result.TimedOut || result.Call != wire.CallCodePass {
		t.Fatalf("expected timed-out pass result, got %+v", result)
	}
}

func TestHandleTimeout_DisabledClock(t *testing.T) {
	tbl, _ := newTestTable(t, Config{}, nil)
	seatAll(t, tbl)
	if tbl.actionTimeoutSeat.Valid() || !tbl.actionDeadline.IsZero() {
		t.Fatalf("zero CallTimeout must not arm the clock")
	}
	if err := tbl.handleTimeout(time.Now().Add(time.Hour)); err != nil || tbl.auction.Len() != 0 {
		t.Fatalf("expected no call without a clock, err=%v len=%d", err, tbl.auction.Len())
	}
}

func TestAuctionEnd_RecordsResultAndSchedulesNextBoard(t *testing.T) {
	svc := ledger.NewMemoryService()
	tbl, rec := newTestTable(t, Config{NextBoardDelay: 5 * time.Second}, svc)
	seatAll(t, tbl)

	playCalls(t, tbl, "1NT P 3NT P P P")

	results, err := svc.ListResults(context.Background(), "table_test", 10)
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one recorded result, got %d err=%v", len(results), err)
	}
	got := results[0]
	if got.Board != 1 || got.Players != testPlayers || got.Contract == nil {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Contract.Declarer != bridge.North || got.Contract.Bid != bridge.MustBid(3, bridge.NoTrump) {
		t.Fatalf("unexpected contract %s", got.Contract)
	}

	end, ok := rec.last("west").Payload.(*wire.AuctionEnd)
	if !ok || end.ResultID != got.ResultID || end.Declarer != wire.SeatCode(bridge.North) {
		t.Fatalf("unexpected auction end %+v (kinds %v)", end, rec.kinds("west"))
	}

	if tbl.nextBoardAt.IsZero() {
		t.Fatalf("expected next board to be scheduled")
	}
	if err := tbl.handleCall("east", bridge.Pass); !errors.Is(err, auction.ErrAuctionComplete) {
		t.Fatalf("expected ErrAuctionComplete between boards, got %v", err)
	}

	if err := tbl.tryStartBoard(tbl.nextBoardAt.Add(-time.Millisecond)); err != nil || tbl.board != 1 {
		t.Fatalf("board started before the delay elapsed (board=%d err=%v)", tbl.board, err)
	}
	if err := tbl.tryStartBoard(tbl.nextBoardAt); err != nil {
		t.Fatalf("tryStartBoard err: %v", err)
	}
	if tbl.board != 2 || tbl.auction.Dealer() != bridge.East || tbl.auction.Vulnerability() != bridge.VulNorthSouth {
		t.Fatalf("board 2 should be dealt by East with NS vulnerable, got board=%d dealer=%s vul=%s",
			tbl.board, tbl.auction.Dealer(), tbl.auction.Vulnerability())
	}
	if tbl.View().BoardsPlayed != 1 {
		t.Fatalf("expected one board played")
	}
}

func TestLeaveSeat_EmptySeatPassesOnTimeout(t *testing.T) {
	tbl, _ := newTestTable(t, Config{CallTimeout: time.Second}, nil)
	seatAll(t, tbl)
	playCalls(t, tbl, "1S")

	if err := tbl.handleLeaveSeat("east"); err != nil {
		t.Fatalf("handleLeaveSeat err: %v", err)
	}
	if tbl.seats[bridge.East] != "" || tbl.players["east"].Seat.Valid() {
		t.Fatalf("expected East seat to be free")
	}
	if err := tbl.handleTimeout(tbl.actionDeadline); err != nil {
		t.Fatalf("handleTimeout err: %v", err)
	}
	if tbl.auction.Turn() != bridge.South {
		t.Fatalf("expected East's empty seat to pass, turn=%s", tbl.auction.Turn())
	}

	_ = tbl.handleJoinTable("sub")
	if err := tbl.handleTakeSeat("sub", bridge.East); err != nil {
		t.Fatalf("substitute take seat err: %v", err)
	}
	if tbl.auction.Dealer() != bridge.North || tbl.board != 1 {
		t.Fatalf("a substitute must not restart the board")
	}
}

func TestReleaseOfflineSeats(t *testing.T) {
	tbl, _ := newTestTable(t, Config{}, nil)
	seatAll(t, tbl)

	lost := time.Now()
	_ = tbl.handleConnLost("south", lost)
	tbl.releaseOfflineSeats(lost.Add(offlineSeatTTL - time.Second))
	if tbl.seats[bridge.South] != "south" || tbl.players["south"] == nil {
		t.Fatalf("seat released before the TTL")
	}
	tbl.releaseOfflineSeats(lost.Add(offlineSeatTTL))
	if tbl.seats[bridge.South] != "" {
		t.Fatalf("expected offline seat to be released")
	}
	if _, ok := tbl.players["south"]; ok {
		t.Fatalf("expected offline player to be dropped with the seat")
	}
	if len(tbl.players) != 3 {
		t.Fatalf("players = %d, want the three still online", len(tbl.players))
	}
}

func TestConnLost_DropsWatchers(t *testing.T) {
	tbl, rec := newTestTable(t, Config{}, nil)
	seatAll(t, tbl)

	for i := 0; i < 100; i++ {
		userID := fmt.Sprintf("watcher-%d", i)
		_ = tbl.handleJoinTable(userID)
		_ = tbl.handleConnLost(userID, time.Now())
	}
	if len(tbl.players) != len(testPlayers) {
		t.Fatalf("players = %d, want only the seated four", len(tbl.players))
	}

	before := len(rec.sent["watcher-0"])
	playCalls(t, tbl, "1C P")
	if after := len(rec.sent["watcher-0"]); after != before {
		t.Fatalf("disconnected watcher still receives frames: %d -> %d", before, after)
	}
}

func TestLeaveTable_StopsFramesAndFreesSeat(t *testing.T) {
	tbl, rec := newTestTable(t, Config{CallTimeout: time.Second}, nil)
	seatAll(t, tbl)
	playCalls(t, tbl, "1S")

	if err := tbl.handleLeaveTable("east"); err != nil {
		t.Fatalf("handleLeaveTable err: %v", err)
	}
	if _, ok := tbl.players["east"]; ok {
		t.Fatalf("expected east to be removed from the table")
	}
	if tbl.seats[bridge.East] != "" {
		t.Fatalf("expected East seat to be free")
	}

	before := len(rec.sent["east"])
	if err := tbl.handleTimeout(tbl.actionDeadline); err != nil {
		t.Fatalf("handleTimeout err: %v", err)
	}
	_ = tbl.handleJoinTable("kibitzer")
	playCalls(t, tbl, "P")
	if after := len(rec.sent["east"]); after != before {
		t.Fatalf("frames after leaving = %d, want 0", after-before)
	}

	// Leaving twice, or a table never joined, is a no-op.
	if err := tbl.handleLeaveTable("east"); err != nil {
		t.Fatalf("second leave err: %v", err)
	}
}

func TestJoinTable_SendsSnapshot(t *testing.T) {
	tbl, rec := newTestTable(t, Config{}, nil)
	seatAll(t, tbl)
	playCalls(t, tbl, "1C X")

	_ = tbl.handleJoinTable("kibitzer")
	snap, ok := rec.last("kibitzer").Payload.(*wire.AuctionSnapshot)
	if !ok {
		t.Fatalf("expected a snapshot, got %v", rec.kinds("kibitzer"))
	}
	if snap.Board != 1 || len(snap.Calls) != 2 || snap.Turn != wire.SeatCode(bridge.South) || len(snap.Seats) != 4 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSubmitEvent_ActorLifecycle(t *testing.T) {
	rec := newRecorder()
	tbl := New("actor_test", Config{}, rec.send, nil)

	if err := tbl.SubmitEvent(Event{Type: EventJoinTable, UserID: "u1"}); err != nil {
		t.Fatalf("join err: %v", err)
	}
	if err := tbl.SubmitEvent(Event{Type: EventTakeSeat, UserID: "u1", Seat: bridge.West}); err != nil {
		t.Fatalf("take seat err: %v", err)
	}
	if v := tbl.View(); v.Seats[bridge.West] != "u1" || v.Bidding {
		t.Fatalf("unexpected view %+v", v)
	}

	// The reply races the done channel, so either nil or ErrTableClosed is fine.
	_ = tbl.SubmitEvent(Event{Type: EventClose})
	if !tbl.IsClosed() {
		t.Fatalf("expected closed table")
	}
	if err := tbl.SubmitEvent(Event{Type: EventJoinTable, UserID: "u2"}); !errors.Is(err, ErrTableClosed) {
		t.Fatalf("expected ErrTableClosed, got %v", err)
	}
}
