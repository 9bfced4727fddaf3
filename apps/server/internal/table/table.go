package table

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bridge-lite/apps/server/internal/codec"
	"bridge-lite/apps/server/internal/ledger"
	"bridge-lite/apps/server/internal/logger"
	"bridge-lite/auction"
	"bridge-lite/bridge"
)

// Table runs one board at a time for four seated players. All state is owned
// by the actor goroutine started in New; other goroutines talk to it through
// SubmitEvent.
type Table struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	auction  *auction.Auction // nil before the first board
	board    int              // 当前牌号
	played   int              // 已完成的牌数
	players  map[string]*PlayerConn
	seats    [4]string // seat -> userID
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// Server sequence for event ordering
	serverSeq uint64

	// Timers and lifecycle metadata.
	actionTimeoutSeat bridge.Seat
	actionDeadline    time.Time
	nextBoardAt       time.Time
	emptySince        time.Time

	// Callback to broadcast messages
	broadcast func(userID string, data []byte)
	ledger    ledger.Service
	log       *slog.Logger

	// Optional callbacks invoked after each auction completes.
	boardEndHooks []BoardEndHook
}

type Config struct {
	// Zero disables the call clock.
	CallTimeout    time.Duration
	NextBoardDelay time.Duration
	// Board number of the first deal; defaults to 1.
	FirstBoard int
}

// PlayerConn is a user that joined the table, seated or watching.
type PlayerConn struct {
	UserID   string
	Seat     bridge.Seat
	Online   bool
	LastSeen time.Time
}

// Event types for the actor message queue
type EventType int

const (
	EventJoinTable EventType = iota
	EventTakeSeat
	EventLeaveSeat
	EventLeaveTable
	EventCall
	EventTimeout
	EventStartBoard
	EventConnLost
	EventConnResume
	EventClose
)

var EventTypeDictionary = map[EventType]string{
	EventJoinTable:  "join_table",
	EventTakeSeat:   "take_seat",
	EventLeaveSeat:  "leave_seat",
	EventLeaveTable: "leave_table",
	EventCall:       "call",
	EventTimeout:    "timeout",
	EventStartBoard: "start_board",
	EventConnLost:   "conn_lost",
	EventConnResume: "conn_resume",
	EventClose:      "close",
}

// Event represents a message to the table actor
type Event struct {
	Type      EventType
	UserID    string
	Seat      bridge.Seat
	Call      bridge.Call
	Timestamp time.Time
	Response  chan error
}

// BoardEndInfo is emitted once an auction is complete and recorded.
type BoardEndInfo struct {
	TableID string
	Board   int
	Outcome auction.Outcome
	// Empty when the ledger write failed.
	ResultID string
}

type BoardEndHook func(info BoardEndInfo)

// ErrTableClosed is shared with codec so it maps onto the wire error code.
var ErrTableClosed = codec.ErrTableClosed

const (
	offlineSeatTTL = 30 * time.Second
	ledgerTimeout  = 3 * time.Second
)

// New creates a table and starts its actor.
func New(
	id string,
	cfg Config,
	broadcastFn func(userID string, data []byte),
	ledgerService ledger.Service,
) *Table {
	if cfg.FirstBoard <= 0 {
		cfg.FirstBoard = 1
	}
	t := newTable(id, cfg, broadcastFn, ledgerService)
	go t.run()

	t.log.Info("table created", "call_timeout", cfg.CallTimeout, "next_board_delay", cfg.NextBoardDelay)
	return t
}

// newTable builds a table without starting the actor.
func newTable(id string, cfg Config, broadcastFn func(userID string, data []byte), ledgerService ledger.Service) *Table {
	if broadcastFn == nil {
		broadcastFn = func(string, []byte) {}
	}
	return &Table{
		ID:                id,
		Config:            cfg,
		board:             cfg.FirstBoard - 1,
		players:           make(map[string]*PlayerConn),
		events:            make(chan Event, 256),
		done:              make(chan struct{}),
		broadcast:         broadcastFn,
		ledger:            ledgerService,
		log:               logger.Component("table").With("table_id", id),
		actionTimeoutSeat: bridge.NoSeat,
		emptySince:        time.Now(),
	}
}

// run is the main actor loop
func (t *Table) run() {
	// Sub-second heartbeat for call timeouts and inter-board scheduling.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			t.log.Info("actor stopped")
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoinTable:
		return t.handleJoinTable(e.UserID)
	case EventTakeSeat:
		return t.handleTakeSeat(e.UserID, e.Seat)
	case EventLeaveSeat:
		return t.handleLeaveSeat(e.UserID)
	case EventLeaveTable:
		return t.handleLeaveTable(e.UserID)
	case EventCall:
		return t.handleCall(e.UserID, e.Call)
	case EventTimeout:
		return t.handleTimeout(e.Timestamp)
	case EventStartBoard:
		return t.handleStartBoard()
	case EventConnLost:
		return t.handleConnLost(e.UserID, e.Timestamp)
	case EventConnResume:
		return t.handleConnResume(e.UserID, e.Timestamp)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (t *Table) handleJoinTable(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", codec.ErrBadRequest)
	}
	now := time.Now()
	if player, exists := t.players[userID]; exists {
		player.Online = true
		player.LastSeen = now
		t.sendSnapshot(userID)
		t.sendPromptIfActingUser(userID)
		return nil // Already joined
	}
	t.players[userID] = &PlayerConn{
		UserID:   userID,
		Seat:     bridge.NoSeat,
		Online:   true,
		LastSeen: now,
	}
	t.log.Info("player joined", "user_id", userID)
	t.sendSnapshot(userID)
	return nil
}

func (t *Table) handleTakeSeat(userID string, seat bridge.Seat) error {
	player := t.players[userID]
	if player == nil {
		return fmt.Errorf("%w: join the table first", codec.ErrBadRequest)
	}
	if !seat.Valid() {
		return fmt.Errorf("%w: invalid seat %d", codec.ErrBadRequest, seat)
	}
	if player.Seat == seat {
		return nil
	}
	if player.Seat.Valid() {
		return fmt.Errorf("%w: already seated at %s", codec.ErrBadRequest, player.Seat)
	}
	if t.seats[seat] != "" {
		return fmt.Errorf("%w: seat %s is occupied", codec.ErrBadRequest, seat)
	}

	player.Seat = seat
	player.Online = true
	player.LastSeen = time.Now()
	t.seats[seat] = userID
	t.updateEmptySinceLocked(player.LastSeen)

	t.log.Info("player took seat", "user_id", userID, "seat", seat.String())
	t.broadcastSeatUpdate(seat, userID, true)

	// A substitute sitting down mid-auction gets the prompt if it is their turn.
	t.sendPromptIfActingUser(userID)
	if err := t.tryStartBoard(player.LastSeen); err != nil {
		t.log.Warn("tryStartBoard after take-seat failed", "err", err)
	}
	return nil
}

// handleLeaveSeat frees the seat at once. An auction in progress continues;
// the empty seat passes when its clock runs out.
func (t *Table) handleLeaveSeat(userID string) error {
	player := t.players[userID]
	if player == nil || !player.Seat.Valid() {
		return nil
	}
	seat := player.Seat
	t.seats[seat] = ""
	player.Seat = bridge.NoSeat
	t.updateEmptySinceLocked(time.Now())

	t.log.Info("player left seat", "user_id", userID, "seat", seat.String())
	t.broadcastSeatUpdate(seat, "", false)
	if t.seatedCount() < len(bridge.Seats) {
		t.nextBoardAt = time.Time{}
	}
	return nil
}

// handleLeaveTable frees the user's seat, if any, and stops sending them frames.
func (t *Table) handleLeaveTable(userID string) error {
	player := t.players[userID]
	if player == nil {
		return nil
	}
	if player.Seat.Valid() {
		if err := t.handleLeaveSeat(userID); err != nil {
			return err
		}
	}
	delete(t.players, userID)
	t.log.Info("player left table", "user_id", userID)
	return nil
}

func (t *Table) handleCall(userID string, call bridge.Call) error {
	player := t.players[userID]
	if player == nil || !player.Seat.Valid() {
		return codec.ErrNotSeated
	}
	if t.auction == nil {
		return fmt.Errorf("%w: no auction in progress", codec.ErrBadRequest)
	}
	return t.applyCall(player.Seat, call, false)
}

// applyCall is the only path into Submit, for player calls and timeouts alike.
func (t *Table) applyCall(seat bridge.Seat, call bridge.Call, timedOut bool) error {
	st, err := t.auction.Submit(seat, call)
	if err != nil {
		return err
	}
	if t.actionTimeoutSeat == seat {
		t.clearActionTimeoutLocked()
	}
	t.log.Debug("call accepted", "board", t.board, "seat", seat.String(), "call", call.String(), "timed_out", timedOut)

	t.broadcastCallResult(seat, call, timedOut)
	if st.Complete() {
		t.handleAuctionEnd(st.Outcome)
		return nil
	}
	t.sendCallPrompt(st.Turn)
	return nil
}

func (t *Table) handleStartBoard() error {
	if t.closed {
		return ErrTableClosed
	}
	if t.seatedCount() < len(bridge.Seats) {
		return nil
	}
	t.nextBoardAt = time.Time{}
	t.clearActionTimeoutLocked()

	a, err := auction.NewForBoard(t.board + 1)
	if err != nil {
		t.log.Error("start board failed", "board", t.board+1, "err", err)
		return err
	}
	t.board++
	t.auction = a
	t.log.Info("board started", "board", t.board, "dealer", a.Dealer().String(), "vulnerability", a.Vulnerability().String())

	t.broadcastBoardStart()
	for userID := range t.players {
		t.sendSnapshot(userID)
	}
	t.sendCallPrompt(a.Turn())
	return nil
}

func (t *Table) handleAuctionEnd(out *auction.Outcome) {
	t.clearActionTimeoutLocked()
	t.played++
	t.log.Info("auction complete", "board", t.board, "outcome", out.String())

	resultID := t.recordResult()
	t.broadcastAuctionEnd(out, resultID)
	t.dispatchBoardEndHooks(*out, resultID)

	// Schedule next board from actor tick (no goroutine self-submit).
	if t.seatedCount() == len(bridge.Seats) {
		t.nextBoardAt = time.Now().Add(t.Config.NextBoardDelay)
	} else {
		t.nextBoardAt = time.Time{}
	}
}

// recordResult writes the finished auction to the ledger and returns its id.
func (t *Table) recordResult() string {
	if t.ledger == nil {
		return ""
	}
	rec, err := ledger.NewRecord(t.ID, t.board, t.auction.Snapshot(), t.seats)
	if err != nil {
		t.log.Error("build ledger record failed", "board", t.board, "err", err)
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	stored, err := t.ledger.RecordAuction(ctx, rec)
	if err != nil {
		t.log.Error("record auction failed", "board", t.board, "err", err)
		return ""
	}
	return stored.ResultID
}

func (t *Table) dispatchBoardEndHooks(out auction.Outcome, resultID string) {
	if len(t.boardEndHooks) == 0 {
		return
	}
	info := BoardEndInfo{
		TableID:  t.ID,
		Board:    t.board,
		Outcome:  out,
		ResultID: resultID,
	}
	hooks := append([]BoardEndHook(nil), t.boardEndHooks...)
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		go func(cb BoardEndHook) {
			defer func() {
				if r := recover(); r != nil {
					t.log.Error("board end hook panic", "panic", r)
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	if err := t.handleTimeout(now); err != nil {
		t.log.Warn("timeout handler failed", "err", err)
	}
	t.releaseOfflineSeats(now)
	if !t.nextBoardAt.IsZero() && !now.Before(t.nextBoardAt) {
		if err := t.tryStartBoard(now); err != nil {
			t.log.Warn("delayed board start failed", "err", err)
		}
	}
}

// releaseOfflineSeats drops players that have been offline for offlineSeatTTL,
// freeing their seats first.
func (t *Table) releaseOfflineSeats(now time.Time) {
	for userID, player := range t.players {
		if player == nil {
			delete(t.players, userID)
			continue
		}
		if player.Online || now.Sub(player.LastSeen) < offlineSeatTTL {
			continue
		}
		seat := player.Seat
		if err := t.handleLeaveTable(userID); err != nil {
			player.LastSeen = now
			t.log.Warn("auto leave-table failed", "user_id", userID, "err", err)
			continue
		}
		if seat.Valid() {
			t.log.Info("released offline seat", "user_id", userID, "seat", seat.String(), "after", offlineSeatTTL)
		}
	}
}

// handleTimeout passes for the seat to act once its deadline is behind now.
func (t *Table) handleTimeout(now time.Time) error {
	if !t.actionTimeoutSeat.Valid() || t.actionDeadline.IsZero() {
		return nil
	}
	if now.Before(t.actionDeadline) {
		return nil
	}

	seat := t.actionTimeoutSeat
	t.clearActionTimeoutLocked()
	if t.auction == nil || t.auction.Turn() != seat {
		return nil
	}
	t.log.Info("call timeout, passing", "board", t.board, "seat", seat.String(), "user_id", t.seats[seat])
	return t.applyCall(seat, bridge.Pass, true)
}

func (t *Table) handleConnLost(userID string, ts time.Time) error {
	player := t.players[userID]
	if player == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	if !player.Seat.Valid() {
		// Watchers hold no seat, so there is nothing to keep.
		return t.handleLeaveTable(userID)
	}
	player.Online = false
	player.LastSeen = ts
	t.log.Info("player connection lost", "user_id", userID, "seat", player.Seat.String())
	return nil
}

func (t *Table) handleConnResume(userID string, ts time.Time) error {
	player := t.players[userID]
	if player == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	player.Online = true
	player.LastSeen = ts
	t.sendSnapshot(userID)
	t.sendPromptIfActingUser(userID)
	t.log.Info("player connection resumed", "user_id", userID)
	return nil
}

// tryStartBoard starts a board when all four seats are filled and no auction
// is running or pending a delay.
func (t *Table) tryStartBoard(now time.Time) error {
	if t.seatedCount() < len(bridge.Seats) {
		return nil
	}
	if !t.nextBoardAt.IsZero() && now.Before(t.nextBoardAt) {
		return nil
	}
	if t.auction != nil && !t.auction.IsComplete() {
		return nil
	}
	return t.handleStartBoard()
}

// SubmitEvent sends an event to the actor and waits for its result.
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextBoardAt = time.Time{}
	t.clearActionTimeoutLocked()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Table) setActionTimeoutLocked(seat bridge.Seat, now time.Time) {
	if t.Config.CallTimeout <= 0 {
		t.clearActionTimeoutLocked()
		return
	}
	t.actionTimeoutSeat = seat
	t.actionDeadline = now.Add(t.Config.CallTimeout)
}

func (t *Table) clearActionTimeoutLocked() {
	t.actionTimeoutSeat = bridge.NoSeat
	t.actionDeadline = time.Time{}
}

func (t *Table) updateEmptySinceLocked(now time.Time) {
	if t.seatedCount() == 0 {
		if t.emptySince.IsZero() {
			t.emptySince = now
		}
		return
	}
	t.emptySince = time.Time{}
}

func (t *Table) seatedCount() int {
	n := 0
	for _, userID := range t.seats {
		if userID != "" {
			n++
		}
	}
	return n
}

func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return true
	}
	if t.seatedCount() > 0 {
		return false
	}
	if t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// View is a read-only summary for the lobby.
type View struct {
	ID           string
	Board        int
	BoardsPlayed int
	Seats        [4]string
	Bidding      bool
}

func (t *Table) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return View{
		ID:           t.ID,
		Board:        t.board,
		BoardsPlayed: t.played,
		Seats:        t.seats,
		Bidding:      t.auction != nil && !t.auction.IsComplete(),
	}
}

// AuctionSnapshot returns the current auction, or false before the first board.
func (t *Table) AuctionSnapshot() (auction.Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.auction == nil {
		return auction.Snapshot{}, false
	}
	return t.auction.Snapshot(), true
}

// AddBoardEndHook registers a callback run after each completed auction.
func (t *Table) AddBoardEndHook(hook BoardEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.boardEndHooks = append(t.boardEndHooks, hook)
	t.mu.Unlock()
}
