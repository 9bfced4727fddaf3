package replay

import (
	"fmt"
)

type ReplayError struct {
	StepIndex int32          `json:"step_index"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Expected  *ExpectedState `json:"expected,omitempty"`
}

// ExpectedState tells the caller what the auction would have accepted at the
// failing step.
type ExpectedState struct {
	Turn       string   `json:"turn,omitempty"`
	LegalCalls []string `json:"legal_calls,omitempty"`
	Phase      string   `json:"phase,omitempty"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
