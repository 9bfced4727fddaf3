package bridge

import (
	"fmt"
	"strings"
)

// Seat 座位，按 N→E→S→W 顺时针轮转
type Seat byte

const (
	North Seat = iota
	East
	South
	West
)

// NoSeat marks "nobody": the turn of a finished auction, or an unset seat.
const NoSeat Seat = 0xFF

// Seats lists the four seats in rotation order starting at North.
var Seats = [4]Seat{North, East, South, West}

func (s Seat) Valid() bool { return s <= West }

// Next returns the seat to the left, i.e. the next one to act.
func (s Seat) Next() Seat {
	if !s.Valid() {
		return NoSeat
	}
	return (s + 1) % 4
}

// Advance moves n positions clockwise.
func (s Seat) Advance(n int) Seat {
	if !s.Valid() {
		return NoSeat
	}
	n %= 4
	if n < 0 {
		n += 4
	}
	return Seat((int(s) + n) % 4)
}

func (s Seat) Partner() Seat { return s.Advance(2) }

// LHO is the left-hand opponent.
func (s Seat) LHO() Seat { return s.Advance(1) }

// RHO is the right-hand opponent.
func (s Seat) RHO() Seat { return s.Advance(3) }

func (s Seat) Side() Side {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

func (s Seat) String() string {
	switch s {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return "?"
}

// Name returns the long form, e.g. "North".
func (s Seat) Name() string {
	switch s {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	}
	return "Unknown"
}

// ParseSeat accepts "N", "north", "E", "East" etc.
func ParseSeat(raw string) (Seat, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return NoSeat, fmt.Errorf("invalid seat: %q", raw)
}

// Side 搭档方 (南北 / 东西)
type Side byte

const (
	NorthSouth Side = iota
	EastWest
)

func (s Side) Has(seat Seat) bool { return seat.Valid() && seat.Side() == s }

// Opponents returns the other partnership.
func (s Side) Opponents() Side {
	if s == NorthSouth {
		return EastWest
	}
	return NorthSouth
}

func (s Side) String() string {
	if s == NorthSouth {
		return "NS"
	}
	return "EW"
}
