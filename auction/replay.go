package auction

import "bridge-lite/bridge"

// derive rebuilds the tally by scanning the whole history backwards, without
// reusing apply. It is the reference the incremental cache must agree with.
func derive(calls []Entry) tally {
	t := emptyTally()

	lastNonPass := -1
	for i := len(calls) - 1; i >= 0; i-- {
		if !calls[i].Call.IsPass() {
			lastNonPass = i
			break
		}
	}
	t.trailingPasses = len(calls) - 1 - lastNonPass

	for i := len(calls) - 1; i >= 0; i-- {
		e := calls[i]
		if !e.Call.IsBid() {
			continue
		}
		t.highest = e.Call.Bid
		t.highestBy = e.Seat
		// Doubles and redoubles after the last bid decide its state; the
		// latest one wins.
		for j := len(calls) - 1; j > i; j-- {
			switch calls[j].Call.Kind {
			case bridge.CallDouble:
				t.doubling = Doubled
			case bridge.CallRedouble:
				t.doubling = Redoubled
			default:
				continue
			}
			break
		}
		break
	}
	return t
}

// Replay starts a fresh auction and submits calls in order, each by the seat
// whose turn it is. It stops at the first rejected call and returns the
// auction as it stood together with a *CallError.
func Replay(cfg Config, calls []bridge.Call) (*Auction, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	for i, c := range calls {
		seat := a.Turn()
		if _, err := a.Submit(seat, c); err != nil {
			return a, &CallError{Step: i, Seat: seat, Call: c, Err: err}
		}
	}
	return a, nil
}
