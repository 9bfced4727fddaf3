package auction

import (
	"bridge-lite/bridge"
)

// Auction is the bidding state machine for a single deal.
//
// An Auction has exactly one owner. It holds no lock: callers that accept
// calls from several goroutines must serialize Submit themselves.
type Auction struct {
	cfg Config

	calls []Entry

	// Cached from the call history; derive() recomputes the same values from
	// scratch and the tests hold the two in agreement.
	tally tally

	phase   Phase
	outcome *Outcome
}

// tally is the slice of auction state that legality and completion depend on.
type tally struct {
	highest   bridge.Bid  // 当前最高叫品
	highestBy bridge.Seat // 叫出最高叫品的座位
	doubling  Doubling
	// Passes since the most recent bid, double or redouble (or since the
	// start while nobody has bid).
	trailingPasses int
}

func emptyTally() tally {
	return tally{
		highest:   bridge.NoBid,
		highestBy: bridge.NoSeat,
		doubling:  Undoubled,
	}
}

func (t tally) hasBid() bool { return t.highest.Valid() }

func New(cfg Config) (*Auction, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Auction{
		cfg:   cfg,
		calls: make([]Entry, 0, 16),
		tally: emptyTally(),
		phase: PhaseBidding,
	}, nil
}

// NewForBoard starts an auction with the dealer and vulnerability of the
// given board number.
func NewForBoard(number int) (*Auction, error) {
	cfg, err := ConfigForBoard(number)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func (a *Auction) Dealer() bridge.Seat                 { return a.cfg.Dealer }
func (a *Auction) Vulnerability() bridge.Vulnerability { return a.cfg.Vulnerability }
func (a *Auction) Phase() Phase                        { return a.phase }
func (a *Auction) IsComplete() bool                    { return a.phase == PhaseComplete }
func (a *Auction) Len() int                            { return len(a.calls) }

// Turn is the seat to act, or NoSeat once the auction is complete.
func (a *Auction) Turn() bridge.Seat {
	if a.phase == PhaseComplete {
		return bridge.NoSeat
	}
	return a.cfg.Dealer.Advance(len(a.calls))
}

// HighestBid returns the current contract-to-be and the seat that bid it,
// or NoBid/NoSeat before the first bid.
func (a *Auction) HighestBid() (bridge.Bid, bridge.Seat) {
	return a.tally.highest, a.tally.highestBy
}

func (a *Auction) Doubling() Doubling { return a.tally.doubling }

// Calls returns a copy of the call history in submission order.
func (a *Auction) Calls() []Entry {
	out := make([]Entry, len(a.calls))
	copy(out, a.calls)
	return out
}

// Result is nil while bidding is in progress.
func (a *Auction) Result() *Outcome {
	if a.outcome == nil {
		return nil
	}
	out := *a.outcome
	if out.Contract != nil {
		c := *out.Contract
		out.Contract = &c
	}
	return &out
}

// State reports the current phase, turn and outcome.
func (a *Auction) State() State {
	return State{
		Phase:   a.phase,
		Turn:    a.Turn(),
		Outcome: a.Result(),
	}
}

// LegalCalls is a pure projection of the current state. Order: Pass, Double,
// Redouble, then every sufficient bid in ascending order. Nil once complete.
func (a *Auction) LegalCalls() []bridge.Call {
	if a.phase == PhaseComplete {
		return nil
	}
	seat := a.Turn()
	bids := bridge.BidsAbove(a.tally.highest)

	out := make([]bridge.Call, 0, len(bids)+3)
	out = append(out, bridge.Pass)
	if a.tally.canDouble(seat) {
		out = append(out, bridge.Double)
	}
	if a.tally.canRedouble(seat) {
		out = append(out, bridge.Redouble)
	}
	for _, b := range bids {
		out = append(out, bridge.BidCall(b))
	}
	return out
}

// IsLegal reports whether the seat to act may make call right now.
func (a *Auction) IsLegal(call bridge.Call) bool {
	if a.phase == PhaseComplete {
		return false
	}
	return a.tally.illegalReason(a.Turn(), call) == ""
}

// Submit validates and applies a call. A rejected call leaves the auction
// untouched.
func (a *Auction) Submit(seat bridge.Seat, call bridge.Call) (State, error) {
	if a.phase == PhaseComplete {
		return State{}, ErrAuctionComplete
	}
	if seat != a.Turn() {
		return State{}, ErrWrongTurn
	}
	if reason := a.tally.illegalReason(seat, call); reason != "" {
		return State{}, &IllegalCallError{Seat: seat, Call: call, Reason: reason}
	}

	a.calls = append(a.calls, Entry{Seat: seat, Call: call})
	a.tally = a.tally.apply(seat, call)
	if a.tally.finished() {
		a.phase = PhaseComplete
		a.outcome = a.buildOutcome()
	}
	return a.State(), nil
}

func (t tally) canDouble(seat bridge.Seat) bool {
	return t.hasBid() && t.doubling == Undoubled && t.highestBy.Side() != seat.Side()
}

func (t tally) canRedouble(seat bridge.Seat) bool {
	return t.hasBid() && t.doubling == Doubled && t.highestBy.Side() == seat.Side()
}

func (t tally) illegalReason(seat bridge.Seat, call bridge.Call) IllegalReason {
	if !call.Valid() {
		return ReasonMalformedCall
	}
	switch call.Kind {
	case bridge.CallPass:
		return ""
	case bridge.CallBid:
		if !t.highest.Less(call.Bid) {
			return ReasonInsufficientBid
		}
	case bridge.CallDouble:
		if !t.canDouble(seat) {
			return ReasonCannotDouble
		}
	case bridge.CallRedouble:
		if !t.canRedouble(seat) {
			return ReasonCannotRedouble
		}
	}
	return ""
}

// apply assumes call is legal for seat.
func (t tally) apply(seat bridge.Seat, call bridge.Call) tally {
	switch call.Kind {
	case bridge.CallPass:
		t.trailingPasses++
	case bridge.CallBid:
		t.highest = call.Bid
		t.highestBy = seat
		t.doubling = Undoubled
		t.trailingPasses = 0
	case bridge.CallDouble:
		t.doubling = Doubled
		t.trailingPasses = 0
	case bridge.CallRedouble:
		t.doubling = Redoubled
		t.trailingPasses = 0
	}
	return t
}

// finished: four passes with no bid, or three passes after the last
// non-pass call once somebody has bid.
func (t tally) finished() bool {
	if !t.hasBid() {
		return t.trailingPasses >= 4
	}
	return t.trailingPasses >= 3
}

func (a *Auction) buildOutcome() *Outcome {
	out := &Outcome{Vulnerability: a.cfg.Vulnerability}
	if !a.tally.hasBid() {
		return out
	}
	out.Contract = &Contract{
		Declarer: declarer(a.calls, a.tally.highest.Strain(), a.tally.highestBy.Side()),
		Bid:      a.tally.highest,
		Doubling: a.tally.doubling,
	}
	return out
}

// declarer is the first seat of the winning side to bid the final strain.
func declarer(calls []Entry, strain bridge.Strain, side bridge.Side) bridge.Seat {
	for _, e := range calls {
		if e.Call.IsBid() && e.Call.Bid.Strain() == strain && side.Has(e.Seat) {
			return e.Seat
		}
	}
	return bridge.NoSeat
}
