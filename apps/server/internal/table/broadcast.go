package table

import (
	"time"

	"bridge-lite/apps/server/internal/codec"
	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"
)

// --- Broadcast helpers with wire encoding ---

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) envelope(payload wire.ServerPayload) *wire.ServerEnvelope {
	return codec.WrapServerEnvelope(t.ID, t.nextSeq(), payload)
}

func (t *Table) sendToUser(userID string, env *wire.ServerEnvelope) {
	data, err := wire.MarshalServer(env)
	if err != nil {
		t.log.Error("marshal message failed", "kind", env.Payload.Kind(), "err", err)
		return
	}
	t.broadcast(userID, data)
}

func (t *Table) broadcastToAll(env *wire.ServerEnvelope) {
	data, err := wire.MarshalServer(env)
	if err != nil {
		t.log.Error("marshal message failed", "kind", env.Payload.Kind(), "err", err)
		return
	}
	for userID := range t.players {
		t.broadcast(userID, data)
	}
}

func (t *Table) buildSnapshot() *wire.AuctionSnapshot {
	if t.auction == nil {
		msg := codec.SnapshotToWire(0, auction.Snapshot{Turn: bridge.NoSeat}, t.seats)
		msg.Dealer = wire.SeatUnspecified
		msg.Vulnerability = 0
		return msg
	}
	return codec.SnapshotToWire(t.board, t.auction.Snapshot(), t.seats)
}

func (t *Table) sendSnapshot(userID string) {
	t.sendToUser(userID, t.envelope(t.buildSnapshot()))
}

func (t *Table) broadcastSeatUpdate(seat bridge.Seat, userID string, occupied bool) {
	t.broadcastToAll(t.envelope(&wire.SeatUpdate{
		Seat:     wire.SeatCode(seat),
		UserID:   userID,
		Occupied: occupied,
	}))
}

func (t *Table) broadcastBoardStart() {
	t.broadcastToAll(t.envelope(&wire.BoardStart{
		Board:         uint32(t.board),
		Dealer:        wire.SeatCode(t.auction.Dealer()),
		Vulnerability: wire.VulnerabilityCode(t.auction.Vulnerability()),
	}))
}

// sendCallPrompt starts the clock for seat and tells everyone it is to act.
func (t *Table) sendCallPrompt(seat bridge.Seat) {
	if t.auction == nil || !seat.Valid() {
		return
	}
	t.setActionTimeoutLocked(seat, time.Now())
	t.broadcastToAll(t.envelope(codec.CallPromptToWire(seat, t.auction.LegalCalls(), t.actionDeadline)))
}

// sendPromptIfActingUser re-sends the running prompt, keeping its deadline.
func (t *Table) sendPromptIfActingUser(userID string) {
	player := t.players[userID]
	if player == nil || !player.Seat.Valid() {
		return
	}
	if t.auction == nil || t.auction.IsComplete() || t.auction.Turn() != player.Seat {
		return
	}
	deadline := time.Time{}
	if t.actionTimeoutSeat == player.Seat {
		deadline = t.actionDeadline
	}
	t.sendToUser(userID, t.envelope(codec.CallPromptToWire(player.Seat, t.auction.LegalCalls(), deadline)))
}

func (t *Table) broadcastCallResult(seat bridge.Seat, call bridge.Call, timedOut bool) {
	t.broadcastToAll(t.envelope(&wire.CallResult{
		Seat:     wire.SeatCode(seat),
		Call:     wire.CallCode(call),
		TimedOut: timedOut,
	}))
}

func (t *Table) broadcastAuctionEnd(out *auction.Outcome, resultID string) {
	t.broadcastToAll(t.envelope(codec.OutcomeToWire(t.board, out, resultID)))
}
