package thinker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// BuiltinPrompt is the implementation ref of PromptThinker.
const BuiltinPrompt = "prompt"

// ClientResolver looks up the AI client for a model binding name.
type ClientResolver interface {
	Client(binding string) (ports.AIClient, error)
}

// Clients is a map based ClientResolver.
type Clients map[string]ports.AIClient

// Client returns the binding or domain.ErrBindingNotFound.
func (c Clients) Client(binding string) (ports.AIClient, error) {
	client, ok := c[binding]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBindingNotFound, binding)
	}
	return client, nil
}

// Deps are the collaborators a Factory may use.
type Deps struct {
	Clients   ClientResolver
	Templates ports.TemplateLoader
	Audit     ports.AuditSink
	Logger    *slog.Logger
}

// Factory builds a Thinker from its spec.
type Factory func(ctx context.Context, spec domain.ThinkerSpec, deps Deps) (ports.Thinker, error)

// Registry maps implementation refs to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry with the builtin "prompt" implementation.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(BuiltinPrompt, PromptFactory)
	return r
}

// Register adds a factory. An existing ref is overwritten.
func (r *Registry) Register(ref string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ref] = f
}

// Refs lists registered implementation refs.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.factories))
	for ref := range r.factories {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Build resolves spec into a Thinker.
// An empty ImplementationRef selects the builtin prompt implementation.
func (r *Registry) Build(ctx context.Context, spec domain.ThinkerSpec, deps Deps) (ports.Thinker, error) {
	ref := spec.ImplementationRef
	if ref == "" {
		ref = BuiltinPrompt
	}
	r.mu.RLock()
	f, ok := r.factories[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (thinker %s)", domain.ErrThinkerNotFound, ref, spec.Name)
	}
	t, err := f(ctx, spec, deps)
	if err != nil {
		return nil, fmt.Errorf("build thinker %s: %w", spec.Name, err)
	}
	return t, nil
}

// PromptOptions are the options a "prompt" thinker accepts in configuration.
type PromptOptions struct {
	Model       string                  `mapstructure:"model"`
	Temperature *float64                `mapstructure:"temperature"`
	TrimSpace   bool                    `mapstructure:"trimSpace"`
	Rules       []domain.ExtractionRule `mapstructure:"rules"`
}

// DecodeOptions decodes a raw options map, rejecting unknown keys.
func DecodeOptions(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// PromptFactory builds a PromptThinker from the template and binding named in spec.
// Rules listed in options are appended to the template's rules.
func PromptFactory(ctx context.Context, spec domain.ThinkerSpec, deps Deps) (ports.Thinker, error) {
	var opts PromptOptions
	if err := DecodeOptions(spec.Options, &opts); err != nil {
		return nil, err
	}
	if deps.Templates == nil {
		return nil, fmt.Errorf("no template loader configured")
	}
	if deps.Clients == nil {
		return nil, fmt.Errorf("no model bindings configured")
	}
	templateID := spec.Template
	if templateID == "" {
		templateID = spec.Name
	}
	tpl, err := deps.Templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	client, err := deps.Clients.Client(spec.ModelBinding)
	if err != nil {
		return nil, err
	}
	if len(opts.Rules) > 0 {
		tpl.Rules = append(append([]domain.ExtractionRule(nil), tpl.Rules...), opts.Rules...)
	}

	thinkerOpts := []Option{WithAuditSink(deps.Audit), WithLogger(deps.Logger), WithModel(opts.Model)}
	if opts.Temperature != nil {
		thinkerOpts = append(thinkerOpts, WithTemperature(*opts.Temperature))
	}
	if opts.TrimSpace {
		thinkerOpts = append(thinkerOpts, WithTrimSpace())
	}
	return NewPromptThinker(spec, tpl, client, thinkerOpts...), nil
}
