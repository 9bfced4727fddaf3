package replay

import "bridge-lite/wire"

// AuctionSpec describes one recorded auction. Dealer and Vulnerability
// default to the values for Board; at least one of Board or Dealer must be
// set.
type AuctionSpec struct {
	Board         int        `json:"board,omitempty"`
	Dealer        string     `json:"dealer,omitempty"`
	Vulnerability string     `json:"vulnerability,omitempty"`
	Seats         []SeatSpec `json:"seats,omitempty"`
	HeroSeat      string     `json:"hero_seat,omitempty"`
	Calls         []CallSpec `json:"calls"`
}

type SeatSpec struct {
	Seat   string `json:"seat"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// CallSpec is one call. Seat may be left empty to mean "whoever is to act".
type CallSpec struct {
	Seat string `json:"seat,omitempty"`
	Call string `json:"call"`
}

type ReplayTape struct {
	TapeVersion   int    `json:"tape_version"`
	TableID       string `json:"table_id"`
	Board         int    `json:"board,omitempty"`
	Dealer        string `json:"dealer"`
	Vulnerability string `json:"vulnerability"`
	HeroSeat      string `json:"hero_seat,omitempty"`
	// Final contract or "passed out"; empty while the auction is still open.
	Result string        `json:"result,omitempty"`
	Events []ReplayEvent `json:"events"`
}

type ReplayEvent struct {
	Type        string               `json:"type"`
	Seq         uint64               `json:"seq"`
	Value       *wire.ServerEnvelope `json:"value,omitempty"`
	EnvelopeB64 string               `json:"envelope_b64,omitempty"`
}
