package datagen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/config"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/conversation"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/thinker"
)

// DefaultLockTTL bounds how long a target lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Minute

// Engine is the high-level entry point of the generator.
// It resolves every configured conversation once and drives the Facilitator for each target.
type Engine struct {
	cfg *config.Config

	registry  *thinker.Registry
	clients   thinker.ClientResolver
	templates ports.TemplateLoader
	audit     ports.AuditSink
	validator ports.Validator
	locker    ports.Locker
	lockTTL   time.Duration
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	conversations map[string]*conversation.Generator
	facilitator   *facilitator.Facilitator
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithClients supplies the AI clients keyed by model binding name. Required.
func WithClients(c thinker.ClientResolver) Option {
	return func(e *Engine) {
		e.clients = c
	}
}

// WithValidator sets the validator candidates are checked against. Required.
func WithValidator(v ports.Validator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithTemplates injects a template loader. Defaults to the inline templates of the config.
func WithTemplates(l ports.TemplateLoader) Option {
	return func(e *Engine) {
		e.templates = l
	}
}

// WithAuditSink sets where prompts and responses are recorded. Defaults to memory.
func WithAuditSink(s ports.AuditSink) Option {
	return func(e *Engine) {
		e.audit = s
	}
}

// WithRegistry replaces the thinker registry, e.g. to add custom implementations.
func WithRegistry(r *thinker.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLocker serializes runs of the same target.
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine from cfg. Every conversation is resolved through the registry here,
// so unknown implementations or templates fail at startup instead of mid-run.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	eng := &Engine{cfg: cfg, lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.clients == nil {
		return nil, errors.New("no AI clients configured")
	}
	if eng.validator == nil {
		return nil, errors.New("no validator configured")
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.registry == nil {
		eng.registry = thinker.NewRegistry()
	}
	if eng.audit == nil {
		eng.audit = memory.NewAuditSink()
	}
	if eng.templates == nil {
		loader, err := memory.NewLoader(cfg.Templates.Inline...)
		if err != nil {
			return nil, fmt.Errorf("inline templates: %w", err)
		}
		eng.templates = loader
	}

	deps := thinker.Deps{
		Clients:   eng.clients,
		Templates: eng.templates,
		Audit:     eng.audit,
		Logger:    eng.logger,
	}
	eng.conversations = make(map[string]*conversation.Generator, len(cfg.Conversations))
	for _, name := range cfg.ConversationNames() {
		process, err := cfg.ThoughtProcess(name)
		if err != nil {
			return nil, err
		}
		gen, err := conversation.Build(ctx, process, eng.registry, deps,
			conversation.WithLifecycleHooks(eng.hooks),
			conversation.WithLogger(eng.logger),
		)
		if err != nil {
			return nil, err
		}
		eng.conversations[name] = gen
	}

	generate, err := eng.Conversation(cfg.Facilitator.Generate)
	if err != nil {
		return nil, fmt.Errorf("generate conversation: %w", err)
	}
	fix, err := eng.Conversation(cfg.Facilitator.Fix)
	if err != nil {
		return nil, fmt.Errorf("fix conversation: %w", err)
	}
	fopts := []facilitator.Option{
		facilitator.WithLifecycleHooks(eng.hooks),
		facilitator.WithLogger(eng.logger),
	}
	if cfg.Facilitator.Merge != "" {
		merge, err := eng.Conversation(cfg.Facilitator.Merge)
		if err != nil {
			return nil, fmt.Errorf("merge conversation: %w", err)
		}
		fopts = append(fopts, facilitator.WithMerge(merge))
	}

	eng.facilitator, err = facilitator.New(cfg.Facilitator.Policy(), generate, fix, eng.validator, fopts...)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// Target is one object to generate data for.
type Target struct {
	Name          string        `json:"name"`
	Specification string        `json:"specification"`
	Seed          domain.Wisdom `json:"seed,omitempty"`
	RunID         string        `json:"runId,omitempty"`
}

// Generate runs the retry-until-valid loop for t.
// An invalid final candidate is reported through Result.IsValid, not as an error.
func (e *Engine) Generate(ctx context.Context, t Target) (*facilitator.Result, error) {
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "target:"+t.Name, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock target %s: %w", t.Name, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release target lock", "target", t.Name, "err", err)
			}
		}()
	}

	return e.facilitator.Run(ctx, facilitator.Request{
		RunID:         t.RunID,
		Target:        t.Name,
		Specification: t.Specification,
		Seed:          t.Seed,
	})
}

// BatchResult pairs a target with its outcome.
type BatchResult struct {
	Target string
	Result *facilitator.Result
	Err    error
}

// GenerateBatch runs independent Facilitator runs with at most concurrency in flight.
// Results keep the order of targets; one target's failure does not stop the others.
// A concurrency <= 0 uses the configured batch concurrency.
func (e *Engine) GenerateBatch(ctx context.Context, targets []Target, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = e.cfg.Batch.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]BatchResult, len(targets))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, t := range targets {
		g.Go(func() error {
			res, err := e.Generate(ctx, t)
			results[i] = BatchResult{Target: t.Name, Result: res, Err: err}
			if err != nil {
				e.logger.Error("target failed", "target", t.Name, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunConversation runs a single named conversation on seed, outside the retry loop.
func (e *Engine) RunConversation(ctx context.Context, name string, seed domain.Wisdom) (*conversation.Outcome, error) {
	gen, err := e.Conversation(name)
	if err != nil {
		return nil, err
	}
	return gen.Run(ctx, seed)
}

// Conversation returns the resolved conversation called name.
func (e *Engine) Conversation(name string) (*conversation.Generator, error) {
	gen, ok := e.conversations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, name)
	}
	return gen, nil
}

// Conversations lists the configured conversation names, sorted.
func (e *Engine) Conversations() []string {
	return e.cfg.ConversationNames()
}

// Validate checks a candidate with the engine's validator.
func (e *Engine) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	return e.validator.Validate(ctx, candidate)
}

// Policy returns the facilitator policy in effect.
func (e *Engine) Policy() facilitator.Policy {
	return e.facilitator.Policy()
}

// Audit returns the audit sink shared by every Thinker.
func (e *Engine) Audit() ports.AuditSink {
	return e.audit
}

// Templates returns the template loader.
func (e *Engine) Templates() ports.TemplateLoader {
	return e.templates
}
