package bridge

import (
	"fmt"
	"strings"
)

// Vulnerability 局况
type Vulnerability byte

const (
	VulNone Vulnerability = iota
	VulNorthSouth
	VulEastWest
	VulBoth
)

func (v Vulnerability) Valid() bool { return v <= VulBoth }

// IsVulnerable reports whether the seat's side is vulnerable.
func (v Vulnerability) IsVulnerable(seat Seat) bool {
	if !seat.Valid() {
		return false
	}
	switch v {
	case VulBoth:
		return true
	case VulNorthSouth:
		return seat.Side() == NorthSouth
	case VulEastWest:
		return seat.Side() == EastWest
	}
	return false
}

func (v Vulnerability) String() string {
	switch v {
	case VulNone:
		return "None"
	case VulNorthSouth:
		return "NS"
	case VulEastWest:
		return "EW"
	case VulBoth:
		return "Both"
	}
	return "?"
}

func ParseVulnerability(raw string) (Vulnerability, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NONE", "-", "LOVE":
		return VulNone, nil
	case "NS", "N-S", "NORTHSOUTH":
		return VulNorthSouth, nil
	case "EW", "E-W", "EASTWEST":
		return VulEastWest, nil
	case "BOTH", "ALL":
		return VulBoth, nil
	}
	return VulNone, fmt.Errorf("invalid vulnerability: %q", raw)
}

// DealerForBoard follows the duplicate convention: board 1 is dealt by North,
// board 2 by East and so on around the table.
func DealerForBoard(number int) Seat {
	if number <= 0 {
		return NoSeat
	}
	return North.Advance(number - 1)
}

// VulnerabilityForBoard follows the standard 16-board cycle.
func VulnerabilityForBoard(number int) Vulnerability {
	switch number % 16 {
	case 1, 8, 11, 14:
		return VulNone
	case 2, 5, 12, 15:
		return VulNorthSouth
	case 3, 6, 9, 0:
		return VulEastWest
	default:
		return VulBoth
	}
}
