package replay

import (
	"fmt"
	"strings"

	"bridge-lite/auction"
	"bridge-lite/bridge"
)

type normalizedSeat struct {
	seat   bridge.Seat
	name   string
	userID string
}

type normalizedCall struct {
	// NoSeat when the recorded call left the seat open.
	seat bridge.Seat
	call bridge.Call
}

type normalizedSpec struct {
	board    int
	cfg      auction.Config
	seats    []normalizedSeat
	heroSeat bridge.Seat
	calls    []normalizedCall
}

func normalizeSpec(spec AuctionSpec) (normalizedSpec, error) {
	var out normalizedSpec
	out.board = spec.Board

	if spec.Board < 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_board", Message: "board must be >= 0"}
	}
	if spec.Board == 0 && strings.TrimSpace(spec.Dealer) == "" {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_dealer", Message: "dealer is required when board is not set"}
	}

	out.cfg = auction.Config{Dealer: bridge.North, Vulnerability: bridge.VulNone}
	if spec.Board > 0 {
		cfg, err := auction.ConfigForBoard(spec.Board)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_board", Message: err.Error()}
		}
		out.cfg = cfg
	}
	if s := strings.TrimSpace(spec.Dealer); s != "" {
		dealer, err := bridge.ParseSeat(s)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_dealer", Message: err.Error()}
		}
		out.cfg.Dealer = dealer
	}
	if s := strings.TrimSpace(spec.Vulnerability); s != "" {
		vul, err := bridge.ParseVulnerability(s)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_vulnerability", Message: err.Error()}
		}
		out.cfg.Vulnerability = vul
	}

	seen := make(map[bridge.Seat]struct{}, len(spec.Seats))
	for i, s := range spec.Seats {
		seat, err := bridge.ParseSeat(strings.TrimSpace(s.Seat))
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_seat", Message: fmt.Sprintf("seats[%d]: %v", i, err)}
		}
		if _, dup := seen[seat]; dup {
			return out, &ReplayError{StepIndex: -1, Reason: "duplicate_seat", Message: fmt.Sprintf("duplicate seat %s", seat)}
		}
		seen[seat] = struct{}{}

		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = seat.Name()
		}
		userID := strings.TrimSpace(s.UserID)
		if userID == "" {
			userID = "replay-" + strings.ToLower(seat.String())
		}
		out.seats = append(out.seats, normalizedSeat{seat: seat, name: name, userID: userID})
	}

	// Hand diagrams are conventionally drawn from South.
	out.heroSeat = bridge.South
	if s := strings.TrimSpace(spec.HeroSeat); s != "" {
		hero, err := bridge.ParseSeat(s)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_hero", Message: err.Error()}
		}
		out.heroSeat = hero
	}

	out.calls = make([]normalizedCall, 0, len(spec.Calls))
	for i, c := range spec.Calls {
		call, err := bridge.ParseCall(c.Call)
		if err != nil {
			return out, &ReplayError{StepIndex: int32(i), Reason: "invalid_call", Message: err.Error()}
		}
		seat := bridge.NoSeat
		if s := strings.TrimSpace(c.Seat); s != "" {
			seat, err = bridge.ParseSeat(s)
			if err != nil {
				return out, &ReplayError{StepIndex: int32(i), Reason: "invalid_call_seat", Message: err.Error()}
			}
		}
		out.calls = append(out.calls, normalizedCall{seat: seat, call: call})
	}
	return out, nil
}
