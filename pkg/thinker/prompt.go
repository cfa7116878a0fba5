package thinker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/extract"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/prompt"
)

// PromptThinker renders a template, asks a model and extracts fields from the answer.
type PromptThinker struct {
	spec        domain.ThinkerSpec
	tpl         domain.PromptTemplate
	client      ports.AIClient
	audit       ports.AuditSink
	logger      *slog.Logger
	model       string
	temperature *float64
	trimSpace   bool
	now         func() time.Time
	newID       func() string
}

// Option configures a PromptThinker.
type Option func(*PromptThinker)

// WithAuditSink records every prompt and response to sink.
func WithAuditSink(sink ports.AuditSink) Option {
	return func(t *PromptThinker) {
		t.audit = sink
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *PromptThinker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithModel overrides the model of the bound client.
func WithModel(model string) Option {
	return func(t *PromptThinker) {
		t.model = model
	}
}

// WithTemperature overrides the template temperature.
func WithTemperature(temp float64) Option {
	return func(t *PromptThinker) {
		t.temperature = &temp
	}
}

// WithTrimSpace trims whitespace around extracted values.
func WithTrimSpace() Option {
	return func(t *PromptThinker) {
		t.trimSpace = true
	}
}

// WithClock replaces the timestamp and ID sources. Used by tests.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(t *PromptThinker) {
		if now != nil {
			t.now = now
		}
		if newID != nil {
			t.newID = newID
		}
	}
}

// NewPromptThinker binds spec to a template and a client.
func NewPromptThinker(spec domain.ThinkerSpec, tpl domain.PromptTemplate, client ports.AIClient, opts ...Option) *PromptThinker {
	t := &PromptThinker{
		spec:        spec,
		tpl:         tpl,
		client:      client,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		temperature: tpl.Temperature,
		now:         time.Now,
		newID:       func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("thinker", spec.DisplayName())
	return t
}

// Spec returns the spec the thinker was built from.
func (t *PromptThinker) Spec() domain.ThinkerSpec { return t.spec }

// ExecuteRequest runs one exchange. The prompt is audited before the model is called and the
// response (or error) after, on every path. Model errors are returned without retrying.
func (t *PromptThinker) ExecuteRequest(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error) {
	name := t.spec.DisplayName()
	elements := prompt.Render(t.tpl, in)
	if len(elements.Unresolved) > 0 {
		t.logger.Warn("prompt placeholders unresolved", "template", t.tpl.ID, "placeholders", elements.Unresolved)
	}

	if err := t.record(ctx, domain.AuditPrompt, FormatMessages(elements.Messages)); err != nil {
		return nil, "", fmt.Errorf("thinker %s: audit prompt: %w", name, err)
	}

	raw, err := t.client.Complete(ctx, ports.CompletionRequest{
		Messages:    elements.Messages,
		Model:       t.model,
		Temperature: t.temperature,
	})
	if err != nil {
		if aerr := t.record(ctx, domain.AuditError, err.Error()); aerr != nil {
			t.logger.Error("failed to audit model error", "error", aerr)
		}
		return nil, "", fmt.Errorf("thinker %s: %w", name, err)
	}

	if err := t.record(ctx, domain.AuditResponse, raw); err != nil {
		return nil, raw, fmt.Errorf("thinker %s: audit response: %w", name, err)
	}

	if len(elements.Rules) == 0 {
		return in.With(domain.KeyLatestResponse, raw), raw, nil
	}

	opts := []extract.Option{extract.WithLogger(t.logger)}
	if t.trimSpace {
		opts = append(opts, extract.WithTrimSpace())
	}
	fields := extract.Extract(raw, elements.Rules, opts...)
	return in.Merge(fields.Wisdom()), raw, nil
}

func (t *PromptThinker) record(ctx context.Context, kind domain.AuditKind, content string) error {
	if t.audit == nil {
		return nil
	}
	return t.audit.Append(ctx, domain.AuditEntry{
		ID:           t.newID(),
		RunID:        domain.RunIDFromContext(ctx),
		Conversation: domain.ConversationFromContext(ctx),
		Thinker:      t.spec.DisplayName(),
		Kind:         kind,
		Content:      content,
		Timestamp:    t.now().UTC(),
	})
}

// FormatMessages renders a message list the way it is written to the audit log.
func FormatMessages(msgs []domain.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", m.Role, m.Content)
	}
	return b.String()
}
