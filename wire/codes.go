package wire

import (
	"fmt"

	"bridge-lite/bridge"
)

// Seat codes: 1..4 for N, E, S, W. 0 means unspecified.
const SeatUnspecified uint32 = 0

func SeatCode(s bridge.Seat) uint32 {
	if !s.Valid() {
		return SeatUnspecified
	}
	return uint32(s) + 1
}

func SeatFromCode(code uint32) (bridge.Seat, error) {
	if code < 1 || code > 4 {
		return bridge.NoSeat, fmt.Errorf("invalid seat code %d", code)
	}
	return bridge.Seat(code - 1), nil
}

// Call codes: 1..35 are the bids in auction order, then pass, double and
// redouble. 0 means unspecified.
const (
	CallUnspecified  uint32 = 0
	CallCodePass     uint32 = bridge.BidCount + 1
	CallCodeDouble   uint32 = bridge.BidCount + 2
	CallCodeRedouble uint32 = bridge.BidCount + 3
)

func CallCode(c bridge.Call) uint32 {
	switch c.Kind {
	case bridge.CallBid:
		if !c.Bid.Valid() {
			return CallUnspecified
		}
		return uint32(c.Bid) + 1
	case bridge.CallPass:
		return CallCodePass
	case bridge.CallDouble:
		return CallCodeDouble
	case bridge.CallRedouble:
		return CallCodeRedouble
	}
	return CallUnspecified
}

func CallFromCode(code uint32) (bridge.Call, error) {
	switch {
	case code >= 1 && code <= bridge.BidCount:
		return bridge.BidCall(bridge.Bid(code - 1)), nil
	case code == CallCodePass:
		return bridge.Pass, nil
	case code == CallCodeDouble:
		return bridge.Double, nil
	case code == CallCodeRedouble:
		return bridge.Redouble, nil
	}
	return bridge.Call{}, fmt.Errorf("invalid call code %d", code)
}

func CallCodes(calls []bridge.Call) []uint32 {
	out := make([]uint32, len(calls))
	for i, c := range calls {
		out[i] = CallCode(c)
	}
	return out
}

func CallsFromCodes(codes []uint32) ([]bridge.Call, error) {
	out := make([]bridge.Call, len(codes))
	for i, code := range codes {
		c, err := CallFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Vulnerability codes: 1 none, 2 NS, 3 EW, 4 both. 0 means unspecified.
func VulnerabilityCode(v bridge.Vulnerability) uint32 {
	if !v.Valid() {
		return 0
	}
	return uint32(v) + 1
}

func VulnerabilityFromCode(code uint32) (bridge.Vulnerability, error) {
	if code < 1 || code > 4 {
		return 0, fmt.Errorf("invalid vulnerability code %d", code)
	}
	return bridge.Vulnerability(code - 1), nil
}

// ErrorCode values carried by ErrorResponse.
type ErrorCode uint32

const (
	ErrorUnspecified     ErrorCode = 0
	ErrorWrongTurn       ErrorCode = 1
	ErrorAuctionComplete ErrorCode = 2
	ErrorIllegalCall     ErrorCode = 3
	ErrorNotSeated       ErrorCode = 4
	ErrorBadRequest      ErrorCode = 5
	ErrorTableClosed     ErrorCode = 6
)

var ErrorCodeDictionary = map[ErrorCode]string{
	ErrorUnspecified:     "unspecified",
	ErrorWrongTurn:       "wrong_turn",
	ErrorAuctionComplete: "auction_complete",
	ErrorIllegalCall:     "illegal_call",
	ErrorNotSeated:       "not_seated",
	ErrorBadRequest:      "bad_request",
	ErrorTableClosed:     "table_closed",
}

func (c ErrorCode) String() string {
	if name, ok := ErrorCodeDictionary[c]; ok {
		return name
	}
	return fmt.Sprintf("error_%d", uint32(c))
}

// MarshalCalls packs a call history into one repeated field. The ledger
// stores finished auctions in this form.
func MarshalCalls(calls []bridge.Call) []byte {
	return appendPacked(nil, 1, CallCodes(calls))
}

func UnmarshalCalls(b []byte) ([]bridge.Call, error) {
	var codes []uint32
	err := walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var err error
		codes, err = f.uint32s(codes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return CallsFromCodes(codes)
}
