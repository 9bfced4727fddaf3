package auction

import (
	"errors"
	"fmt"

	"bridge-lite/bridge"
)

var (
	ErrWrongTurn       = errors.New("call out of turn")
	ErrAuctionComplete = errors.New("auction already complete")
	ErrIllegalCall     = errors.New("illegal call")
)

// IllegalReason names the rule an illegal call broke.
type IllegalReason string

const (
	ReasonMalformedCall   IllegalReason = "malformed_call"
	ReasonInsufficientBid IllegalReason = "insufficient_bid"
	ReasonCannotDouble    IllegalReason = "cannot_double"
	ReasonCannotRedouble  IllegalReason = "cannot_redouble"
)

// IllegalCallError matches ErrIllegalCall under errors.Is.
type IllegalCallError struct {
	Seat   bridge.Seat
	Call   bridge.Call
	Reason IllegalReason
}

func (e *IllegalCallError) Error() string {
	return fmt.Sprintf("illegal call %s by %s: %s", e.Call, e.Seat, e.Reason)
}

func (e *IllegalCallError) Unwrap() error { return ErrIllegalCall }

// CallError locates a rejected call inside a call list passed to Replay.
type CallError struct {
	Step int
	Seat bridge.Seat
	Call bridge.Call
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %d (%s by %s): %v", e.Step, e.Call, e.Seat, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
