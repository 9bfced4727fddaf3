package auction

import (
	"fmt"

	"bridge-lite/bridge"
)

type Config struct {
	Dealer bridge.Seat

	// Carried through to the Outcome; bidding never reads it.
	Vulnerability bridge.Vulnerability
}

func (c Config) validate() error {
	if !c.Dealer.Valid() {
		return fmt.Errorf("invalid dealer seat %d", c.Dealer)
	}
	if !c.Vulnerability.Valid() {
		return fmt.Errorf("invalid vulnerability %d", c.Vulnerability)
	}
	return nil
}

// ConfigForBoard derives dealer and vulnerability from a board number.
func ConfigForBoard(number int) (Config, error) {
	if number <= 0 {
		return Config{}, fmt.Errorf("board number must be > 0, got %d", number)
	}
	return Config{
		Dealer:        bridge.DealerForBoard(number),
		Vulnerability: bridge.VulnerabilityForBoard(number),
	}, nil
}
