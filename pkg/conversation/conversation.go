// Package conversation runs a ThoughtProcess: an ordered list of Thinkers threading Wisdom
// strictly sequentially and stopping at the first failure.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/thinker"
)

// Step is one resolved Thinker of a conversation.
type Step struct {
	Spec    domain.ThinkerSpec
	Thinker ports.Thinker
}

// Outcome is the result of a run. On failure it holds the partial state up to and
// including the failed step; Wisdom is the input the failed step was given.
type Outcome struct {
	Wisdom domain.Wisdom

	// Responses maps each executed Thinker's self name to its raw response.
	Responses map[string]string

	// Order lists the self names of executed Thinkers in execution order.
	Order []string
}

// Response returns the raw response recorded for selfName.
func (o *Outcome) Response(selfName string) (string, bool) {
	if o == nil {
		return "", false
	}
	r, ok := o.Responses[selfName]
	return r, ok
}

// StepError reports the Thinker that stopped a conversation.
type StepError struct {
	Conversation string
	Thinker      string
	Index        int
	Err          error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("conversation %s: step %d (%s): %v", e.Conversation, e.Index, e.Thinker, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Generator executes one conversation.
type Generator struct {
	name   string
	steps  []Step
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Generator) {
		g.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Generator over already resolved steps.
func New(name string, steps []Step, opts ...Option) *Generator {
	g := &Generator{
		name:   name,
		steps:  append([]Step(nil), steps...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build resolves every ThinkerSpec of process through the registry.
// Resolution happens once; an unknown implementation fails the build, not the run.
func Build(ctx context.Context, process domain.ThoughtProcess, reg *thinker.Registry, deps thinker.Deps, opts ...Option) (*Generator, error) {
	if len(process.Thinkers) == 0 {
		return nil, fmt.Errorf("conversation %s has no thinkers", process.Name)
	}
	steps := make([]Step, 0, len(process.Thinkers))
	for _, spec := range process.Thinkers {
		th, err := reg.Build(ctx, spec, deps)
		if err != nil {
			return nil, fmt.Errorf("conversation %s: %w", process.Name, err)
		}
		steps = append(steps, Step{Spec: spec, Thinker: th})
	}
	return New(process.Name, steps, opts...), nil
}

// Name returns the conversation name.
func (g *Generator) Name() string { return g.name }

// Specs returns the ordered thinker specs.
func (g *Generator) Specs() []domain.ThinkerSpec {
	specs := make([]domain.ThinkerSpec, len(g.steps))
	for i, s := range g.steps {
		specs[i] = s.Spec
	}
	return specs
}

// Run threads seed through every step. Thinker k+1 only sees the output of Thinker k.
// On failure the partial Outcome is returned together with a *StepError; later steps never run.
// The partial Outcome records the failing thinker's raw response, which may be empty.
func (g *Generator) Run(ctx context.Context, seed domain.Wisdom) (*Outcome, error) {
	ctx = domain.WithConversation(ctx, g.name)
	runID := domain.RunIDFromContext(ctx)
	logger := g.logger.With("conversation", g.name, "run_id", runID)

	out := &Outcome{
		Wisdom:    seed.Clone(),
		Responses: make(map[string]string, len(g.steps)),
	}
	if out.Wisdom == nil {
		out.Wisdom = domain.NewWisdom()
	}

	for i, step := range g.steps {
		name := step.Spec.DisplayName()
		if err := ctx.Err(); err != nil {
			return out, &StepError{Conversation: g.name, Thinker: name, Index: i, Err: err}
		}

		ev := &domain.ThinkerEvent{
			EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventThinkerStart, RunID: runID},
			Conversation: g.name,
			Thinker:      name,
			Index:        i,
		}
		if g.hooks.OnThinkerStart != nil {
			g.hooks.OnThinkerStart(ctx, ev)
		}
		logger.Debug("thinker start", "thinker", name, "index", i)

		start := time.Now()
		next, raw, err := step.Thinker.ExecuteRequest(ctx, out.Wisdom)

		finish := *ev
		finish.Type = domain.EventThinkerFinish
		finish.Timestamp = time.Now()
		finish.Duration = time.Since(start)
		finish.Err = err
		if err != nil {
			finish.Error = err.Error()
		}
		if g.hooks.OnThinkerFinish != nil {
			g.hooks.OnThinkerFinish(ctx, &finish)
		}

		if err != nil {
			logger.Warn("thinker failed", "thinker", name, "index", i, "error", err)
			out.Responses[name] = raw
			out.Order = append(out.Order, name)
			return out, &StepError{Conversation: g.name, Thinker: name, Index: i, Err: err}
		}

		if d := domain.Diff(out.Wisdom, next); d != nil {
			logger.Debug("wisdom updated", "thinker", name, "added", d.Added, "changed", d.Changed, "removed", d.Removed)
		}
		if next == nil {
			next = domain.NewWisdom()
		}
		out.Wisdom = next
		out.Responses[name] = raw
		out.Order = append(out.Order, name)
	}
	return out, nil
}

// IsStepError reports whether err came from a conversation step and returns it.
func IsStepError(err error) (*StepError, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
