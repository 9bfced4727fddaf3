package bridge

import (
	"fmt"
	"strings"
)

// Bid 叫品
//
// 编码规则: (level-1)*5 + strain, so 1C = 0 and 7NT = 34.
// Integer order is auction order: level first, then strain.
type Bid byte

const (
	OneClub Bid = iota
	OneDiamond
	OneHeart
	OneSpade
	OneNoTrump
	TwoClubs
	TwoDiamonds
	TwoHearts
	TwoSpades
	TwoNoTrump
	ThreeClubs
	ThreeDiamonds
	ThreeHearts
	ThreeSpades
	ThreeNoTrump
	FourClubs
	FourDiamonds
	FourHearts
	FourSpades
	FourNoTrump
	FiveClubs
	FiveDiamonds
	FiveHearts
	FiveSpades
	FiveNoTrump
	SixClubs
	SixDiamonds
	SixHearts
	SixSpades
	SixNoTrump
	SevenClubs
	SevenDiamonds
	SevenHearts
	SevenSpades
	SevenNoTrump
)

const (
	MinLevel = 1
	MaxLevel = 7

	// BidCount is the number of distinct bids (7 levels x 5 strains).
	BidCount = MaxLevel * strainCount
)

// NoBid is the highest-bid marker before anyone has bid.
const NoBid Bid = 0xFF

func NewBid(level int, strain Strain) (Bid, error) {
	if level < MinLevel || level > MaxLevel {
		return NoBid, fmt.Errorf("invalid level %d: must be between %d and %d", level, MinLevel, MaxLevel)
	}
	if !strain.Valid() {
		return NoBid, fmt.Errorf("invalid strain %d", strain)
	}
	return Bid((level-1)*strainCount + int(strain)), nil
}

// MustBid is NewBid for literals known to be valid.
func MustBid(level int, strain Strain) Bid {
	b, err := NewBid(level, strain)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Bid) Valid() bool { return b < BidCount }

func (b Bid) Level() int {
	if !b.Valid() {
		return 0
	}
	return int(b)/strainCount + 1
}

func (b Bid) Strain() Strain {
	if !b.Valid() {
		return 0
	}
	return Strain(int(b) % strainCount)
}

// Less reports whether b ranks strictly below other. NoBid ranks below every bid.
func (b Bid) Less(other Bid) bool {
	if !other.Valid() {
		return false
	}
	if !b.Valid() {
		return true
	}
	return b < other
}

func (b Bid) String() string {
	if !b.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d%s", b.Level(), b.Strain())
}

// ParseBid 将字符串 (如 "1C", "3nt", "7N", "2♠") 转换为 Bid
func ParseBid(raw string) (Bid, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) < 2 {
		return NoBid, fmt.Errorf("invalid bid: %q", raw)
	}
	level := int(s[0] - '0')
	if level < MinLevel || level > MaxLevel {
		return NoBid, fmt.Errorf("invalid bid level: %q", raw)
	}
	strain, err := parseStrain(s[1:])
	if err != nil {
		return NoBid, fmt.Errorf("invalid bid %q: %w", raw, err)
	}
	return NewBid(level, strain)
}

// BidsAbove lists every bid strictly higher than b in ascending order.
// NoBid yields all 35 bids.
func BidsAbove(b Bid) []Bid {
	start := 0
	if b.Valid() {
		start = int(b) + 1
	}
	out := make([]Bid, 0, BidCount-start)
	for i := start; i < BidCount; i++ {
		out = append(out, Bid(i))
	}
	return out
}
