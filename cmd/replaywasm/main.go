//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"bridge-lite/replay"
)

type initRequest struct {
	Spec replay.AuctionSpec `json:"spec"`
}

type initResponse struct {
	OK    bool                `json:"ok"`
	Tape  *replay.BrowserTape `json:"tape,omitempty"`
	Error *replay.ReplayError `json:"error,omitempty"`
}

type legalResponse struct {
	OK       bool                  `json:"ok"`
	Expected *replay.ExpectedState `json:"expected,omitempty"`
	Error    *replay.ReplayError   `json:"error,omitempty"`
}

func main() {
	js.Global().Set("__auctionReplayInit", js.FuncOf(func(this js.Value, args []js.Value) any {
		raw, errResp := firstArg(args)
		if errResp != nil {
			return mustJSON(initResponse{OK: false, Error: errResp})
		}
		return mustJSON(handleInit(raw))
	}))
	// Lets an editor validate a partial auction and offer the next calls.
	js.Global().Set("__auctionLegalCalls", js.FuncOf(func(this js.Value, args []js.Value) any {
		raw, errResp := firstArg(args)
		if errResp != nil {
			return mustJSON(legalResponse{OK: false, Error: errResp})
		}
		return mustJSON(handleLegal(raw))
	}))

	select {}
}

func firstArg(args []js.Value) (string, *replay.ReplayError) {
	if len(args) < 1 {
		return "", &replay.ReplayError{StepIndex: -1, Reason: "invalid_request", Message: "missing request payload"}
	}
	return args[0].String(), nil
}

func decodeSpec(raw string) (replay.AuctionSpec, *replay.ReplayError) {
	var req initRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return req.Spec, &replay.ReplayError{StepIndex: -1, Reason: "invalid_json", Message: err.Error()}
	}
	return req.Spec, nil
}

func asReplayError(err error, fallbackReason string) *replay.ReplayError {
	var replayErr *replay.ReplayError
	if errors.As(err, &replayErr) {
		return replayErr
	}
	return &replay.ReplayError{StepIndex: -1, Reason: fallbackReason, Message: err.Error()}
}

func handleInit(raw string) initResponse {
	spec, errResp := decodeSpec(raw)
	if errResp != nil {
		return initResponse{OK: false, Error: errResp}
	}
	tape, err := replay.GenerateReplayTape(spec)
	if err != nil {
		return initResponse{OK: false, Error: asReplayError(err, "replay_generation_failed")}
	}
	return initResponse{
		OK:   true,
		Tape: tape.ForBrowser(),
	}
}

func handleLegal(raw string) legalResponse {
	spec, errResp := decodeSpec(raw)
	if errResp != nil {
		return legalResponse{OK: false, Error: errResp}
	}
	expected, err := replay.NextCalls(spec)
	if err != nil {
		return legalResponse{OK: false, Error: asReplayError(err, "legal_calls_failed")}
	}
	return legalResponse{OK: true, Expected: expected}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		fallback := initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "marshal_failed", Message: err.Error()},
		}
		b2, _ := json.Marshal(fallback)
		return string(b2)
	}
	return string(b)
}
