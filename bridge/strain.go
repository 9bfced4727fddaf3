package bridge

import "fmt"

// Strain 将牌花色或无将
//
// Ordering is the auction rank: Clubs < Diamonds < Hearts < Spades < NoTrump.
type Strain byte

const (
	Clubs Strain = iota
	Diamonds
	Hearts
	Spades
	NoTrump
)

const strainCount = 5

var Strains = [strainCount]Strain{Clubs, Diamonds, Hearts, Spades, NoTrump}

func (s Strain) Valid() bool { return s <= NoTrump }

func (s Strain) String() string {
	switch s {
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	case Spades:
		return "S"
	case NoTrump:
		return "NT"
	}
	return "?"
}

// Symbol is the suit glyph; NoTrump stays "NT".
func (s Strain) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	case NoTrump:
		return "NT"
	}
	return "?"
}

// IsMajor reports hearts or spades.
func (s Strain) IsMajor() bool { return s == Hearts || s == Spades }

func parseStrain(raw string) (Strain, error) {
	switch raw {
	case "C", "♣":
		return Clubs, nil
	case "D", "♦":
		return Diamonds, nil
	case "H", "♥":
		return Hearts, nil
	case "S", "♠":
		return Spades, nil
	case "N", "NT":
		return NoTrump, nil
	}
	return 0, fmt.Errorf("invalid strain: %q", raw)
}
