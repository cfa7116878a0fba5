package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventThinkerStart  EventType = "thinker_start"
	EventThinkerFinish EventType = "thinker_finish"
	EventAttempt       EventType = "attempt"
	EventValidation    EventType = "validation"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// ThinkerEvent represents entry into or exit from one Thinker.
type ThinkerEvent struct {
	EventBase
	Conversation string        `json:"conversation"`
	Thinker      string        `json:"thinker"`
	Index        int           `json:"index"`
	Duration     time.Duration `json:"duration,omitempty"`
	Err          error         `json:"-"`
	// Error carries Err's message on the wire.
	Error        string        `json:"error,omitempty"`
}

// AttemptEvent marks the start of one generate/validate pass of the Facilitator.
type AttemptEvent struct {
	EventBase
	Attempt       int `json:"attempt"`
	MaxIterations int `json:"max_iterations"`
}

// ValidationEvent reports the validator's verdict for one attempt.
type ValidationEvent struct {
	EventBase
	Attempt  int               `json:"attempt"`
	Outcome  ValidationOutcome `json:"outcome"`
	Benign   bool              `json:"benign,omitempty"`
	Duration time.Duration     `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnThinkerStart  func(context.Context, *ThinkerEvent)
	OnThinkerFinish func(context.Context, *ThinkerEvent)
	OnAttempt       func(context.Context, *AttemptEvent)
	OnValidation    func(context.Context, *ValidationEvent)
}

// Combine returns hooks that call h first and then other.
func (h LifecycleHooks) Combine(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnThinkerStart:  chain(h.OnThinkerStart, other.OnThinkerStart),
		OnThinkerFinish: chain(h.OnThinkerFinish, other.OnThinkerFinish),
		OnAttempt:       chain(h.OnAttempt, other.OnAttempt),
		OnValidation:    chain(h.OnValidation, other.OnValidation),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
