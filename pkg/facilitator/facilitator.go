// Package facilitator implements the retry-until-valid loop: generate a candidate, optionally
// merge it with the best artifact so far, validate it, and on failure repair it with the full
// validation history until the candidate passes or the iteration budget runs out.
//
// Running out of iterations is a normal outcome (Result.IsValid == false), never an error.
// Errors are reserved for failed conversations, validator transport failures and cancellation.
package facilitator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tqwhite/unity-data-generator-sub000/internal/runid"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/conversation"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// ErrInvalidPolicy is returned by New for an unusable Policy.
var ErrInvalidPolicy = errors.New("invalid facilitator policy")

const emptyValidationMessage = "validation failed without an error message"

// Policy bounds and tunes the loop. There is no default iteration budget.
type Policy struct {
	// MaxIterations is the number of generate/validate passes. Must be > 0.
	MaxIterations int

	// BenignErrors lists validator message substrings that count as a pass.
	BenignErrors []string

	// CandidateKey is the Wisdom key holding the artifact. Defaults to "candidate".
	CandidateKey string
}

// Validate checks the policy.
func (p Policy) Validate() error {
	if p.MaxIterations <= 0 {
		return fmt.Errorf("%w: maxIterations must be greater than zero, got %d", ErrInvalidPolicy, p.MaxIterations)
	}
	for _, b := range p.BenignErrors {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("%w: benign error patterns must not be blank", ErrInvalidPolicy)
		}
	}
	return nil
}

func (p Policy) candidateKey() string {
	if p.CandidateKey == "" {
		return domain.KeyCandidate
	}
	return p.CandidateKey
}

// matchBenign returns the first allowlisted substring contained in msg.
func (p Policy) matchBenign(msg string) string {
	for _, b := range p.BenignErrors {
		if strings.Contains(msg, b) {
			return b
		}
	}
	return ""
}

// Runner is a conversation the Facilitator can drive. *conversation.Generator satisfies it.
type Runner interface {
	Name() string
	Run(ctx context.Context, seed domain.Wisdom) (*conversation.Outcome, error)
}

// Request describes one generation run.
type Request struct {
	// RunID keys the audit log. Generated from Target when empty and not already on ctx.
	RunID string

	// Target names the object being generated.
	Target string

	// Specification is the semantic specification passed to every conversation.
	Specification string

	// Seed is extra initial Wisdom. It may carry a prior bestSoFar artifact.
	Seed domain.Wisdom
}

// Result is the terminal state of a run.
type Result struct {
	RunID     string
	Target    string
	Candidate string
	IsValid   bool

	// History holds every validator error of this run, oldest first.
	History domain.ValidationHistory

	// Attempts is the number of generate passes performed.
	Attempts int

	// Wisdom is the state after the last pass.
	Wisdom domain.Wisdom

	// BenignMatch is the allowlisted pattern that turned a failure into a pass, if any.
	BenignMatch string
}

// Facilitator drives the loop. It holds no per-run state and is safe for concurrent runs.
type Facilitator struct {
	policy    Policy
	generate  Runner
	merge     Runner
	fix       Runner
	validator ports.Validator
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures a Facilitator.
type Option func(*Facilitator)

// WithMerge adds the optional conversation reconciling a new candidate with the best so far.
func WithMerge(r Runner) Option {
	return func(f *Facilitator) {
		f.merge = r
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Facilitator) {
		f.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facilitator) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New validates policy and wires the conversations.
func New(policy Policy, generate, fix Runner, validator ports.Validator, opts ...Option) (*Facilitator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if generate == nil || fix == nil {
		return nil, fmt.Errorf("%w: generate and fix conversations are required", ErrInvalidPolicy)
	}
	if validator == nil {
		return nil, fmt.Errorf("%w: a validator is required", ErrInvalidPolicy)
	}
	f := &Facilitator{
		policy:    policy,
		generate:  generate,
		fix:       fix,
		validator: validator,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Policy returns the configured policy.
func (f *Facilitator) Policy() Policy { return f.policy }

// Run executes the loop for one target. The returned Result is non-nil even on error and
// reflects the progress made before the failure.
func (f *Facilitator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := req.RunID
	if runID == "" {
		runID = domain.RunIDFromContext(ctx)
	}
	if runID == "" {
		runID = runid.New(req.Target)
	}
	ctx = domain.WithRunID(ctx, runID)
	logger := f.logger.With("run_id", runID, "target", req.Target)
	key := f.policy.candidateKey()

	// history belongs to this call frame only.
	history := domain.ValidationHistory{}
	res := &Result{RunID: runID, Target: req.Target, History: history}

	wisdom := req.Seed.Merge(domain.Wisdom{
		domain.KeySpecification: req.Specification,
		domain.KeyTargetName:    req.Target,
	})
	best := wisdom.String(domain.KeyBestSoFar)
	if best == "" {
		best = domain.SeedPlaceholder
	}

	for attempt := 1; attempt <= f.policy.MaxIterations; attempt++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts = attempt
		if f.hooks.OnAttempt != nil {
			f.hooks.OnAttempt(ctx, &domain.AttemptEvent{
				EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventAttempt, RunID: runID},
				Attempt:       attempt,
				MaxIterations: f.policy.MaxIterations,
			})
		}
		logger.Info("generation attempt", "attempt", attempt, "max_iterations", f.policy.MaxIterations)

		w := wisdom.Merge(domain.Wisdom{
			domain.KeyBestSoFar:         best,
			domain.KeyValidationHistory: history.Clone(),
			domain.KeyIteration:         attempt,
		})
		out, err := f.generate.Run(ctx, w)
		if err != nil {
			return res, fmt.Errorf("attempt %d: generate: %w", attempt, err)
		}
		w = out.Wisdom
		candidate := w.String(key)

		if f.merge != nil && best != domain.SeedPlaceholder {
			out, err = f.merge.Run(ctx, w.Merge(domain.Wisdom{key: candidate, domain.KeyBestSoFar: best}))
			if err != nil {
				return res, fmt.Errorf("attempt %d: merge: %w", attempt, err)
			}
			w = out.Wisdom
			candidate = w.String(key)
		}
		res.Candidate = candidate
		res.Wisdom = w

		start := time.Now()
		verdict, err := f.validator.Validate(ctx, candidate)
		if err != nil {
			return res, fmt.Errorf("attempt %d: validator: %w", attempt, err)
		}
		benign := ""
		if !verdict.Passed {
			benign = f.policy.matchBenign(verdict.ErrorMessage)
		}
		if f.hooks.OnValidation != nil {
			f.hooks.OnValidation(ctx, &domain.ValidationEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventValidation, RunID: runID},
				Attempt:   attempt,
				Outcome:   verdict,
				Benign:    benign != "",
				Duration:  time.Since(start),
			})
		}

		if verdict.Passed || benign != "" {
			if benign != "" {
				logger.Warn("validator error accepted as benign", "attempt", attempt, "pattern", benign, "message", verdict.ErrorMessage)
			}
			logger.Info("candidate valid", "attempt", attempt)
			res.IsValid = true
			res.BenignMatch = benign
			res.History = history
			return res, nil
		}

		msg := strings.TrimSpace(verdict.ErrorMessage)
		if msg == "" {
			msg = emptyValidationMessage
		}
		history = history.Append(msg)
		res.History = history
		logger.Info("candidate invalid", "attempt", attempt, "message", msg)

		if attempt == f.policy.MaxIterations {
			break
		}

		fixOut, err := f.fix.Run(ctx, w.Merge(domain.Wisdom{
			key:                         candidate,
			domain.KeySpecification:     req.Specification,
			domain.KeyValidationMessage: msg,
			domain.KeyValidationHistory: history.Clone(),
		}))
		if err != nil {
			return res, fmt.Errorf("attempt %d: fix: %w", attempt, err)
		}
		wisdom = fixOut.Wisdom
		best = fixOut.Wisdom.String(key)
		if best == "" {
			best = candidate
		}
	}

	logger.Warn("iteration budget exhausted", "attempts", res.Attempts, "errors", len(res.History))
	return res, nil
}
