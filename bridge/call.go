package bridge

import (
	"fmt"
	"strings"
)

// CallKind 叫牌类型
type CallKind byte

const (
	CallBid CallKind = iota
	CallPass
	CallDouble
	CallRedouble
)

var CallKindDictionary = map[CallKind]string{
	CallBid:      "BID",
	CallPass:     "PASS",
	CallDouble:   "DOUBLE",
	CallRedouble: "REDOUBLE",
}

// Call is exactly one of: a bid, Pass, Double or Redouble.
// Bid is only meaningful when Kind == CallBid. Call is comparable and may be
// used as a map key.
type Call struct {
	Kind CallKind
	Bid  Bid
}

var (
	Pass     = Call{Kind: CallPass, Bid: NoBid}
	Double   = Call{Kind: CallDouble, Bid: NoBid}
	Redouble = Call{Kind: CallRedouble, Bid: NoBid}
)

func BidCall(b Bid) Call { return Call{Kind: CallBid, Bid: b} }

func (c Call) IsBid() bool  { return c.Kind == CallBid }
func (c Call) IsPass() bool { return c.Kind == CallPass }

// Valid rejects unknown kinds and bid calls carrying an out-of-range bid.
func (c Call) Valid() bool {
	switch c.Kind {
	case CallBid:
		return c.Bid.Valid()
	case CallPass, CallDouble, CallRedouble:
		return true
	}
	return false
}

func (c Call) String() string {
	switch c.Kind {
	case CallBid:
		return c.Bid.String()
	case CallPass:
		return "P"
	case CallDouble:
		return "X"
	case CallRedouble:
		return "XX"
	}
	return "?"
}

// ParseCall accepts "P"/"PASS", "X"/"DBL"/"DOUBLE", "XX"/"RDBL"/"REDOUBLE"
// or anything ParseBid accepts.
func ParseCall(raw string) (Call, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "P", "PASS":
		return Pass, nil
	case "X", "DBL", "DOUBLE":
		return Double, nil
	case "XX", "RDBL", "REDOUBLE":
		return Redouble, nil
	}
	b, err := ParseBid(raw)
	if err != nil {
		return Call{}, fmt.Errorf("invalid call %q: %w", raw, err)
	}
	return BidCall(b), nil
}

// MustParseCalls parses a whitespace separated call list such as "P 1NT P P P".
func MustParseCalls(raw string) []Call {
	fields := strings.Fields(raw)
	out := make([]Call, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCall(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// FormatCalls is the inverse of MustParseCalls.
func FormatCalls(calls []Call) string {
	parts := make([]string, len(calls))
	for i, c := range calls {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
