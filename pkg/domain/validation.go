package domain

import (
	"fmt"
	"strings"
)

// ValidationOutcome is the verdict returned by the external validator for one candidate.
type ValidationOutcome struct {
	Passed       bool   `json:"passed"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ValidationHistory accumulates validator errors across the repair iterations of one run.
// It is owned by a single Facilitator run and must never be shared between runs.
type ValidationHistory []string

// Append returns the history with msg added at the end.
func (h ValidationHistory) Append(msg string) ValidationHistory {
	out := make(ValidationHistory, len(h), len(h)+1)
	copy(out, h)
	return append(out, msg)
}

// Clone returns an independent copy.
func (h ValidationHistory) Clone() ValidationHistory {
	if h == nil {
		return ValidationHistory{}
	}
	out := make(ValidationHistory, len(h))
	copy(out, h)
	return out
}

// Latest returns the most recent message, or "".
func (h ValidationHistory) Latest() string {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

// String renders the history as a numbered list for prompts.
func (h ValidationHistory) String() string {
	if len(h) == 0 {
		return ""
	}
	var b strings.Builder
	for i, msg := range h {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, strings.TrimSpace(msg))
	}
	return b.String()
}
