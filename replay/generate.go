package replay

import (
	"encoding/base64"
	"fmt"

	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"
)

const defaultTableID = "replay_local"

// GenerateReplayTape re-runs a recorded auction through the engine and
// returns the envelopes a table would have broadcast for it.
func GenerateReplayTape(spec AuctionSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	a, err := auction.New(ns.cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}

	builder := newTapeBuilder(defaultTableID)
	builder.addBoardStart(&wire.BoardStart{
		Board:         uint32(ns.board),
		Dealer:        wire.SeatCode(ns.cfg.Dealer),
		Vulnerability: wire.VulnerabilityCode(ns.cfg.Vulnerability),
	})
	builder.addSnapshot(buildSnapshot(a, ns))
	builder.addCallPrompt(buildCallPrompt(a))

	var result string
	for stepIdx, c := range ns.calls {
		seat := a.Turn()
		st, rerr := applyCall(a, stepIdx, c)
		if rerr != nil {
			return nil, rerr
		}
		builder.addCallResult(&wire.CallResult{
			Seat: wire.SeatCode(seat),
			Call: wire.CallCode(c.call),
		})

		if st.Complete() {
			builder.addAuctionEnd(buildAuctionEnd(ns.board, st.Outcome))
			result = st.Outcome.String()
			continue
		}
		builder.addCallPrompt(buildCallPrompt(a))
	}

	return &ReplayTape{
		TapeVersion:   1,
		TableID:       builder.tableID,
		Board:         ns.board,
		Dealer:        ns.cfg.Dealer.String(),
		Vulnerability: ns.cfg.Vulnerability.String(),
		HeroSeat:      ns.heroSeat.String(),
		Result:        result,
		Events:        builder.events,
	}, nil
}

// NextCalls replays spec and reports what the auction accepts next. It fails
// the same way GenerateReplayTape does.
func NextCalls(spec AuctionSpec) (*ExpectedState, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}
	a, err := auction.New(ns.cfg)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}
	for stepIdx, c := range ns.calls {
		if _, rerr := applyCall(a, stepIdx, c); rerr != nil {
			return nil, rerr
		}
	}
	return expectedState(a), nil
}

// applyCall checks c against the auction before submitting it, so failures
// carry a reason and the expected state rather than a bare engine error.
func applyCall(a *auction.Auction, stepIdx int, c normalizedCall) (auction.State, *ReplayError) {
	if a.IsComplete() {
		return auction.State{}, &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "auction_complete",
			Message:   "auction is already complete; no further calls are allowed",
			Expected:  &ExpectedState{Phase: a.Phase().String()},
		}
	}
	turn := a.Turn()
	seat := c.seat
	if seat == bridge.NoSeat {
		seat = turn
	}
	if seat != turn {
		return auction.State{}, &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "out_of_turn",
			Message:   fmt.Sprintf("expected call by %s, got %s", turn, seat),
			Expected:  expectedState(a),
		}
	}
	if !a.IsLegal(c.call) {
		return auction.State{}, &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "illegal_call",
			Message:   fmt.Sprintf("call %s is not legal for %s", c.call, seat),
			Expected:  expectedState(a),
		}
	}
	st, err := a.Submit(seat, c.call)
	if err != nil {
		return auction.State{}, &ReplayError{
			StepIndex: int32(stepIdx),
			Reason:    "call_apply_failed",
			Message:   err.Error(),
			Expected:  expectedState(a),
		}
	}
	return st, nil
}

func expectedState(a *auction.Auction) *ExpectedState {
	legal := a.LegalCalls()
	names := make([]string, 0, len(legal))
	for _, c := range legal {
		names = append(names, c.String())
	}
	out := &ExpectedState{
		LegalCalls: names,
		Phase:      a.Phase().String(),
	}
	if turn := a.Turn(); turn.Valid() {
		out.Turn = turn.String()
	}
	return out
}

func buildSnapshot(a *auction.Auction, ns normalizedSpec) *wire.AuctionSnapshot {
	snap := a.Snapshot()
	seats := make([]wire.SeatInfo, 0, len(ns.seats))
	for _, s := range ns.seats {
		seats = append(seats, wire.SeatInfo{Seat: wire.SeatCode(s.seat), UserID: s.userID, Name: s.name})
	}
	return &wire.AuctionSnapshot{
		Board:         uint32(ns.board),
		Dealer:        wire.SeatCode(snap.Dealer),
		Vulnerability: wire.VulnerabilityCode(snap.Vulnerability),
		Turn:          wire.SeatCode(snap.Turn),
		Calls:         wire.CallCodes(snap.CallsOnly()),
		LegalCalls:    wire.CallCodes(snap.LegalCalls),
		Complete:      snap.Phase == auction.PhaseComplete,
		Seats:         seats,
	}
}

// Replays carry no clock, so prompts have no deadline.
func buildCallPrompt(a *auction.Auction) *wire.CallPrompt {
	return &wire.CallPrompt{
		Seat:       wire.SeatCode(a.Turn()),
		LegalCalls: wire.CallCodes(a.LegalCalls()),
	}
}

func buildAuctionEnd(board int, out *auction.Outcome) *wire.AuctionEnd {
	msg := &wire.AuctionEnd{
		Board:         uint32(board),
		PassedOut:     out.PassedOut(),
		Vulnerability: wire.VulnerabilityCode(out.Vulnerability),
	}
	if c := out.Contract; c != nil {
		msg.Declarer = wire.SeatCode(c.Declarer)
		msg.Contract = wire.CallCode(bridge.BidCall(c.Bid))
		msg.Doubling = uint32(c.Doubling)
	}
	return msg
}

type tapeBuilder struct {
	tableID string
	seq     uint64
	events  []ReplayEvent
}

func newTapeBuilder(tableID string) *tapeBuilder {
	return &tapeBuilder{
		tableID: tableID,
		events:  make([]ReplayEvent, 0, 32),
	}
}

func (b *tapeBuilder) addBoardStart(start *wire.BoardStart)       { b.pushEnvelope(start) }
func (b *tapeBuilder) addSnapshot(snapshot *wire.AuctionSnapshot) { b.pushEnvelope(snapshot) }
func (b *tapeBuilder) addCallPrompt(prompt *wire.CallPrompt)      { b.pushEnvelope(prompt) }
func (b *tapeBuilder) addCallResult(result *wire.CallResult)      { b.pushEnvelope(result) }
func (b *tapeBuilder) addAuctionEnd(end *wire.AuctionEnd)         { b.pushEnvelope(end) }

func (b *tapeBuilder) pushEnvelope(payload wire.ServerPayload) {
	b.seq++
	env := &wire.ServerEnvelope{
		TableID:    b.tableID,
		ServerSeq:  b.seq,
		ServerTsMs: int64(b.seq),
		Payload:    payload,
	}
	bin, _ := wire.MarshalServer(env)
	b.events = append(b.events, ReplayEvent{
		Type:        payload.Kind(),
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: base64.StdEncoding.EncodeToString(bin),
	})
}
