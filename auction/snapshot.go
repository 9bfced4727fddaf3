package auction

import "bridge-lite/bridge"

type Snapshot struct {
	Dealer        bridge.Seat
	Vulnerability bridge.Vulnerability
	Phase         Phase
	Turn          bridge.Seat

	Calls []Entry

	HighestBid bridge.Bid
	HighestBy  bridge.Seat
	Doubling   Doubling

	LegalCalls []bridge.Call
	Outcome    *Outcome
}

// Snapshot is a detached copy safe to hand to other goroutines.
func (a *Auction) Snapshot() Snapshot {
	return Snapshot{
		Dealer:        a.cfg.Dealer,
		Vulnerability: a.cfg.Vulnerability,
		Phase:         a.phase,
		Turn:          a.Turn(),
		Calls:         a.Calls(),
		HighestBid:    a.tally.highest,
		HighestBy:     a.tally.highestBy,
		Doubling:      a.tally.doubling,
		LegalCalls:    a.LegalCalls(),
		Outcome:       a.Result(),
	}
}

// CallsOnly strips seats from the history.
func (s Snapshot) CallsOnly() []bridge.Call {
	out := make([]bridge.Call, len(s.Calls))
	for i, e := range s.Calls {
		out[i] = e.Call
	}
	return out
}
