package auction

import (
	"fmt"

	"bridge-lite/bridge"
)

// Phase 叫牌阶段
type Phase byte

const (
	PhaseBidding  Phase = 0
	PhaseComplete Phase = 1
)

var PhaseDictionary = map[Phase]string{
	PhaseBidding:  "bidding",
	PhaseComplete: "complete",
}

func (p Phase) String() string {
	if name, ok := PhaseDictionary[p]; ok {
		return name
	}
	return "unknown"
}

// Doubling 加倍状态
type Doubling byte

const (
	Undoubled Doubling = 0
	Doubled   Doubling = 1
	Redoubled Doubling = 2
)

var DoublingDictionary = map[Doubling]string{
	Undoubled: "",
	Doubled:   "X",
	Redoubled: "XX",
}

func (d Doubling) String() string {
	switch d {
	case Undoubled:
		return "Undoubled"
	case Doubled:
		return "Doubled"
	case Redoubled:
		return "Redoubled"
	}
	return "Unknown"
}

// Entry is one call in the auction together with the seat that made it.
type Entry struct {
	Seat bridge.Seat
	Call bridge.Call
}

func (e Entry) String() string { return fmt.Sprintf("%s:%s", e.Seat, e.Call) }

// Contract is the final bid of a completed auction.
type Contract struct {
	Declarer bridge.Seat
	Bid      bridge.Bid
	Doubling Doubling
}

func (c Contract) Level() int                 { return c.Bid.Level() }
func (c Contract) Strain() bridge.Strain      { return c.Bid.Strain() }
func (c Contract) Dummy() bridge.Seat         { return c.Declarer.Partner() }
func (c Contract) OpeningLeader() bridge.Seat { return c.Declarer.LHO() }
func (c Contract) DeclaringSide() bridge.Side { return c.Declarer.Side() }
func (c Contract) TricksRequired() int        { return 6 + c.Bid.Level() }

// String renders e.g. "4SX by N".
func (c Contract) String() string {
	return fmt.Sprintf("%s%s by %s", c.Bid, DoublingDictionary[c.Doubling], c.Declarer)
}

// Outcome is what a finished auction hands to scoring: the contract, or nil
// for a passed-out deal, plus the vulnerability carried through unchanged.
type Outcome struct {
	Contract      *Contract
	Vulnerability bridge.Vulnerability
}

// PassedOut reports a deal with no contract; it scores zero for both sides.
func (o Outcome) PassedOut() bool { return o.Contract == nil }

// DeclarerVulnerable is a convenience for scoring collaborators.
func (o Outcome) DeclarerVulnerable() bool {
	if o.Contract == nil {
		return false
	}
	return o.Vulnerability.IsVulnerable(o.Contract.Declarer)
}

func (o Outcome) String() string {
	if o.Contract == nil {
		return "passed out"
	}
	return o.Contract.String()
}

// State is returned by Submit: the phase after the call, the next seat to act
// (NoSeat once complete) and the outcome once complete.
type State struct {
	Phase   Phase
	Turn    bridge.Seat
	Outcome *Outcome
}

func (s State) Complete() bool { return s.Phase == PhaseComplete }
