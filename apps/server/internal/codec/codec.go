// Package codec converts engine state into wire messages for live tables.
package codec

import (
	"errors"
	"time"

	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"
)

// Sentinels the table reports alongside the engine's own errors.
var (
	ErrNotSeated   = errors.New("not seated")
	ErrBadRequest  = errors.New("bad request")
	ErrTableClosed = errors.New("table closed")
)

// SnapshotToWire builds the full auction view. seats holds user ids by seat;
// empty strings are omitted.
func SnapshotToWire(board int, snap auction.Snapshot, seats [4]string) *wire.AuctionSnapshot {
	msg := &wire.AuctionSnapshot{
		Board:         uint32(board),
		Dealer:        wire.SeatCode(snap.Dealer),
		Vulnerability: wire.VulnerabilityCode(snap.Vulnerability),
		Turn:          wire.SeatCode(snap.Turn),
		Calls:         wire.CallCodes(snap.CallsOnly()),
		LegalCalls:    wire.CallCodes(snap.LegalCalls),
		Complete:      snap.Phase == auction.PhaseComplete,
	}
	for _, seat := range bridge.Seats {
		if seats[seat] == "" {
			continue
		}
		msg.Seats = append(msg.Seats, wire.SeatInfo{Seat: wire.SeatCode(seat), UserID: seats[seat]})
	}
	return msg
}

// CallPromptToWire asks seat for a call. A zero deadline means no clock.
func CallPromptToWire(seat bridge.Seat, legal []bridge.Call, deadline time.Time) *wire.CallPrompt {
	msg := &wire.CallPrompt{
		Seat:       wire.SeatCode(seat),
		LegalCalls: wire.CallCodes(legal),
	}
	if !deadline.IsZero() {
		msg.DeadlineMs = deadline.UnixMilli()
	}
	return msg
}

func OutcomeToWire(board int, out *auction.Outcome, resultID string) *wire.AuctionEnd {
	msg := &wire.AuctionEnd{
		Board:         uint32(board),
		PassedOut:     out.PassedOut(),
		Vulnerability: wire.VulnerabilityCode(out.Vulnerability),
		ResultID:      resultID,
	}
	if c := out.Contract; c != nil {
		msg.Declarer = wire.SeatCode(c.Declarer)
		msg.Contract = wire.CallCode(bridge.BidCall(c.Bid))
		msg.Doubling = uint32(c.Doubling)
	}
	return msg
}

// ErrorToWire maps engine and table errors onto wire error codes.
func ErrorToWire(err error) *wire.ErrorResponse {
	code := wire.ErrorUnspecified
	switch {
	case errors.Is(err, auction.ErrWrongTurn):
		code = wire.ErrorWrongTurn
	case errors.Is(err, auction.ErrAuctionComplete):
		code = wire.ErrorAuctionComplete
	case errors.Is(err, auction.ErrIllegalCall):
		code = wire.ErrorIllegalCall
	case errors.Is(err, ErrNotSeated):
		code = wire.ErrorNotSeated
	case errors.Is(err, ErrBadRequest):
		code = wire.ErrorBadRequest
	case errors.Is(err, ErrTableClosed):
		code = wire.ErrorTableClosed
	}
	return &wire.ErrorResponse{Code: code, Message: err.Error()}
}

// WrapServerEnvelope stamps payload with the table id, sequence and wall clock.
func WrapServerEnvelope(tableID string, serverSeq uint64, payload wire.ServerPayload) *wire.ServerEnvelope {
	return &wire.ServerEnvelope{
		TableID:    tableID,
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    payload,
	}
}
