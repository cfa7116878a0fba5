package memory

import (
	"context"
	"sync"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Verdict is one scripted validation result. A non-nil Err simulates a transport failure.
type Verdict struct {
	Outcome domain.ValidationOutcome
	Err     error
}

// Pass is a passing verdict.
func Pass() Verdict { return Verdict{Outcome: domain.ValidationOutcome{Passed: true}} }

// Fail is a failing verdict with message.
func Fail(message string) Verdict {
	return Verdict{Outcome: domain.ValidationOutcome{ErrorMessage: message}}
}

// ScriptedValidator returns verdicts in order and repeats the last one once exhausted.
type ScriptedValidator struct {
	mu         sync.Mutex
	verdicts   []Verdict
	candidates []string
}

// NewScriptedValidator creates a validator answering with verdicts in order.
func NewScriptedValidator(verdicts ...Verdict) *ScriptedValidator {
	return &ScriptedValidator{verdicts: verdicts}
}

// Validate records candidate and returns the next verdict.
func (v *ScriptedValidator) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.candidates = append(v.candidates, candidate)
	if len(v.verdicts) == 0 {
		return domain.ValidationOutcome{Passed: true}, nil
	}
	next := v.verdicts[0]
	if len(v.verdicts) > 1 {
		v.verdicts = v.verdicts[1:]
	}
	return next.Outcome, next.Err
}

// Candidates returns every candidate validated so far, in order.
func (v *ScriptedValidator) Candidates() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.candidates))
	copy(out, v.candidates)
	return out
}
