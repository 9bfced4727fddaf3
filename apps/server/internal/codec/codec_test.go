package codec

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"bridge-lite/auction"
	"bridge-lite/bridge"
	"bridge-lite/wire"

	"github.com/google/go-cmp/cmp"
)

func TestErrorToWire(t *testing.T) {
	illegal := &auction.IllegalCallError{Seat: bridge.East, Call: bridge.Double, Reason: auction.ReasonCannotDouble}
	cases := []struct {
		err  error
		want wire.ErrorCode
	}{
		{auction.ErrWrongTurn, wire.ErrorWrongTurn},
		{auction.ErrAuctionComplete, wire.ErrorAuctionComplete},
		{illegal, wire.ErrorIllegalCall},
		{fmt.Errorf("take seat: %w", ErrBadRequest), wire.ErrorBadRequest},
		{ErrNotSeated, wire.ErrorNotSeated},
		{ErrTableClosed, wire.ErrorTableClosed},
		{errors.New("boom"), wire.ErrorUnspecified},
	}
	for _, tc := range cases {
		got := ErrorToWire(tc.err)
		if got.Code != tc.want || got.Message != tc.err.Error() {
			t.Fatalf("ErrorToWire(%v) = %+v, want code %s", tc.err, got, tc.want)
		}
	}
}

func TestSnapshotToWire(t *testing.T) {
	a, err := auction.NewForBoard(2)
	if err != nil {
		t.Fatalf("NewForBoard err: %v", err)
	}
	if _, err := a.Submit(bridge.East, bridge.BidCall(bridge.OneHeart)); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	got := SnapshotToWire(2, a.Snapshot(), [4]string{"n", "", "s", ""})
	want := &wire.AuctionSnapshot{
		Board:         2,
		Dealer:        wire.SeatCode(bridge.East),
		Vulnerability: wire.VulnerabilityCode(bridge.VulNorthSouth),
		Turn:          wire.SeatCode(bridge.South),
		Calls:         []uint32{wire.CallCode(bridge.BidCall(bridge.OneHeart))},
		LegalCalls:    wire.CallCodes(a.LegalCalls()),
		Seats: []wire.SeatInfo{
			{Seat: wire.SeatCode(bridge.North), UserID: "n"},
			{Seat: wire.SeatCode(bridge.South), UserID: "s"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestOutcomeToWire(t *testing.T) {
	out := &auction.Outcome{
		Contract:      &auction.Contract{Declarer: bridge.West, Bid: bridge.MustBid(6, bridge.Hearts), Doubling: auction.Doubled},
		Vulnerability: bridge.VulBoth,
	}
	got := OutcomeToWire(7, out, "r1")
	want := &wire.AuctionEnd{
		Board:         7,
		Declarer:      wire.SeatCode(bridge.West),
		Contract:      wire.CallCode(bridge.BidCall(bridge.MustBid(6, bridge.Hearts))),
		Doubling:      uint32(auction.Doubled),
		Vulnerability: wire.VulnerabilityCode(bridge.VulBoth),
		ResultID:      "r1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("auction end mismatch (-want +got):\n%s", diff)
	}

	passed := OutcomeToWire(3, &auction.Outcome{Vulnerability: bridge.VulEastWest}, "")
	if !passed.PassedOut || passed.Declarer != 0 || passed.Contract != 0 {
		t.Fatalf("unexpected passed-out message %+v", passed)
	}
}

func TestCallPromptToWire_Deadline(t *testing.T) {
	if got := CallPromptToWire(bridge.North, nil, time.Time{}); got.DeadlineMs != 0 {
		t.Fatalf("zero deadline must encode as 0, got %d", got.DeadlineMs)
	}
	at := time.UnixMilli(1_700_000_000_000)
	if got := CallPromptToWire(bridge.North, nil, at); got.DeadlineMs != at.UnixMilli() {
		t.Fatalf("deadline = %d, want %d", got.DeadlineMs, at.UnixMilli())
	}
}
