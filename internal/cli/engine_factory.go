package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/file"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/gemini"
	httpAdapter "github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/http"
	loamAdapter "github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/loam"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/openai"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/process"
	redisAdapter "github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/redis"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/sqlite"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/aiclient"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/config"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/observability"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/persistence/middleware"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/thinker"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/validation"
)

// Runtime is everything a command needs, built from one configuration file.
type Runtime struct {
	Config  *config.Config
	Engine  *datagen.Engine
	Metrics *observability.Metrics
	Streams *httpAdapter.StreamManager
	Logger  *slog.Logger

	closers []func() error
}

// Close releases database and network handles.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadRuntime loads the config at path and builds a Runtime.
func LoadRuntime(ctx context.Context, path string, logger *slog.Logger) (*Runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return NewRuntime(ctx, cfg, logger)
}

// NewRuntime wires model clients, templates, validator, audit sink and lock from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:  cfg,
		Metrics: observability.NewMetrics(nil),
		Streams: httpAdapter.NewStreamManager(),
		Logger:  logger,
	}

	clients, err := buildClients(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	templates, err := buildTemplates(cfg.Templates)
	if err != nil {
		return nil, err
	}
	validator, err := buildValidator(cfg.Validator)
	if err != nil {
		return nil, err
	}
	audit, locker, err := rt.buildAudit(cfg.Audit)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	hooks := rt.Metrics.Hooks().Combine(rt.Streams.Hooks()).Combine(createDebugHooks(logger))
	rt.Engine, err = datagen.New(ctx, cfg,
		datagen.WithClients(clients),
		datagen.WithTemplates(templates),
		datagen.WithValidator(validator),
		datagen.WithAuditSink(audit),
		datagen.WithLocker(locker, datagen.DefaultLockTTL),
		datagen.WithLifecycleHooks(hooks),
		datagen.WithLogger(logger),
	)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return rt, nil
}

func buildClients(ctx context.Context, cfg *config.Config, logger *slog.Logger) (thinker.Clients, error) {
	clients := make(thinker.Clients, len(cfg.Models))
	for name, m := range cfg.Models {
		var adapter aiclient.Adapter
		switch m.Provider {
		case config.ProviderOpenAI:
			if m.APIKey() == "" {
				logger.Warn("model binding has no API key", "binding", name, "env", m.APIKeyEnv)
			}
			adapter = openai.NewAdapter(openai.Config{
				Provider:     m.Provider,
				APIKey:       m.APIKey(),
				BaseURL:      m.BaseURL,
				ExtraHeaders: m.Headers,
			})
		case config.ProviderGemini:
			a, err := gemini.NewAdapter(ctx, gemini.Config{APIKey: m.APIKey(), BaseURL: m.BaseURL})
			if err != nil {
				return nil, fmt.Errorf("model binding %s: %w", name, err)
			}
			adapter = a
		case config.ProviderScripted:
			adapter = scriptedClient(m.Replies)
		default:
			return nil, fmt.Errorf("model binding %s: unknown provider %q", name, m.Provider)
		}

		mws := []aiclient.Middleware{aiclient.Logging(logger.With("binding", name), adapter.Name())}
		if m.MaxRetries > 0 {
			mws = append(mws, aiclient.Retry(m.MaxRetries, aiclient.DefaultBackoff(), logger))
		}
		if m.Timeout > 0 {
			mws = append(mws, aiclient.Timeout(m.Timeout))
		}
		opts := []aiclient.Option{aiclient.WithModel(m.Model), aiclient.WithMiddleware(mws...)}
		if m.Temperature != nil {
			opts = append(opts, aiclient.WithTemperature(*m.Temperature))
		}
		clients[name] = aiclient.New(adapter, opts...)
	}
	return clients, nil
}

// scriptedClient replays replies in order and then keeps answering with the last one.
func scriptedClient(replies []string) *memory.ScriptedClient {
	c := memory.NewScriptedClient(replies...)
	if len(replies) > 0 {
		last := replies[len(replies)-1]
		c.Otherwise(func(ports.CompletionRequest) (string, error) { return last, nil })
	}
	return c
}

func buildTemplates(cfg config.Templates) (ports.TemplateLoader, error) {
	inline, err := memory.NewLoader(cfg.Inline...)
	if err != nil {
		return nil, fmt.Errorf("inline templates: %w", err)
	}
	if cfg.Dir == "" {
		return inline, nil
	}
	dir, err := loamAdapter.Open(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if len(cfg.Inline) == 0 {
		return dir, nil
	}
	return layeredLoader{inline, dir}, nil
}

// layeredLoader resolves a template from the first loader that has it.
type layeredLoader []ports.TemplateLoader

func (l layeredLoader) GetTemplate(ctx context.Context, id string) (domain.PromptTemplate, error) {
	for _, loader := range l {
		tpl, err := loader.GetTemplate(ctx, id)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			return domain.PromptTemplate{}, err
		}
	}
	return domain.PromptTemplate{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

func (l layeredLoader) ListTemplates(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, loader := range l {
		list, err := loader.ListTemplates(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func buildValidator(cfg config.Validator) (ports.Validator, error) {
	switch cfg.Type {
	case config.ValidatorHTTP:
		opts := []validation.HTTPOption{}
		if cfg.ContentType != "" {
			opts = append(opts, validation.WithContentType(cfg.ContentType))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, validation.WithTimeout(cfg.Timeout))
		}
		for k, v := range cfg.Headers {
			opts = append(opts, validation.WithHeader(k, v))
		}
		return validation.NewHTTPValidator(cfg.URL, opts...), nil
	case config.ValidatorSchema:
		schema, err := os.ReadFile(cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		v, err := validation.NewSchemaValidator(schema)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.ValidatorXML:
		return validation.NewXMLValidator(cfg.Root), nil
	case config.ValidatorProcess:
		return process.NewValidator(cfg.Command, cfg.Args, process.WithEnv(cfg.Env)), nil
	}
	return nil, fmt.Errorf("unknown validator type %q", cfg.Type)
}

func (rt *Runtime) buildAudit(cfg config.Audit) (ports.AuditSink, ports.Locker, error) {
	var (
		sink   ports.AuditSink
		locker ports.Locker = memory.NewLocker()
	)
	switch cfg.Type {
	case config.AuditMemory:
		sink = memory.NewAuditSink()
	case config.AuditFile:
		sink = file.NewAuditSink(cfg.Path)
	case config.AuditSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(".datagen", "audit.db")
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		sink = db
	case config.AuditRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, client.Close)
		opts := []redisAdapter.Option{redisAdapter.WithTTL(cfg.TTL)}
		prefix := "datagen:"
		if cfg.Prefix != "" {
			prefix = cfg.Prefix
			opts = append(opts, redisAdapter.WithPrefix(cfg.Prefix))
		}
		sink = redisAdapter.NewFromClient(client, opts...)
		locker = redisAdapter.NewLocker(client, prefix)
	default:
		return nil, nil, fmt.Errorf("unknown audit type %q", cfg.Type)
	}

	var mws []middleware.Middleware
	if cfg.Redact {
		patterns := append(append([]string(nil), middleware.DefaultSecretPatterns...), cfg.RedactPatterns...)
		redact, err := middleware.NewRedactMiddleware(patterns)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, redact)
	}
	if cfg.EncryptionKeyEnv != "" {
		key, err := decodeKey(os.Getenv(cfg.EncryptionKeyEnv))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", cfg.EncryptionKeyEnv, err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(sink, mws...), locker, nil
}

// decodeKey accepts a base64 encoded or raw 32 byte key.
func decodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("encryption key is empty")
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	if len(s) == 32 {
		return []byte(s), nil
	}
	return nil, errors.New("encryption key must be 32 bytes, raw or base64")
}
