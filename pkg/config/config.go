// Package config loads the generator's YAML configuration.
//
// The file maps conversation names to ordered thinker names, thinker names to their
// implementation, display name and model binding, and declares the model bindings,
// templates, facilitator policy, validator and audit sink. Values of the form ${VAR}
// are replaced with environment variables before parsing. The configuration is read
// once at startup and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Provider names accepted in model bindings.
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderScripted = "scripted"
)

// Validator types.
const (
	ValidatorHTTP    = "http"
	ValidatorSchema  = "schema"
	ValidatorXML     = "xml"
	ValidatorProcess = "process"
)

// Audit sink types.
const (
	AuditMemory = "memory"
	AuditFile   = "file"
	AuditRedis  = "redis"
	AuditSQLite = "sqlite"
)

// Config is the root document.
type Config struct {
	LogLevel string `yaml:"logLevel"`

	// Conversations maps a conversation name to its ordered thinker names.
	Conversations map[string][]string `yaml:"conversations"`

	Thinkers map[string]Thinker `yaml:"thinkers"`
	Models   map[string]Model   `yaml:"models"`

	Templates   Templates   `yaml:"templates"`
	Facilitator Facilitator `yaml:"facilitator"`
	Validator   Validator   `yaml:"validator"`
	Audit       Audit       `yaml:"audit"`
	Server      Server      `yaml:"server"`
	Batch       Batch       `yaml:"batch"`
}

// Thinker configures one pipeline step.
type Thinker struct {
	ImplementationRef string         `yaml:"implementationRef"`
	SelfName          string         `yaml:"selfName"`
	ModelBinding      string         `yaml:"modelBinding"`
	Template          string         `yaml:"template"`
	Options           map[string]any `yaml:"options"`
}

// Model is an AI client binding.
type Model struct {
	Provider    string            `yaml:"provider"`
	Model       string            `yaml:"model"`
	BaseURL     string            `yaml:"baseURL"`
	APIKeyEnv   string            `yaml:"apiKeyEnv"`
	Temperature *float64          `yaml:"temperature"`
	Timeout     time.Duration     `yaml:"timeout"`
	MaxRetries  int               `yaml:"maxRetries"`
	Headers     map[string]string `yaml:"headers"`

	// Replies feeds the scripted provider, used for dry runs.
	Replies []string `yaml:"replies"`
}

// APIKey reads the binding's key from the environment.
func (m Model) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// Templates locates prompt templates: a Loam directory, inline definitions, or both.
type Templates struct {
	Dir    string                  `yaml:"dir"`
	Inline []domain.PromptTemplate `yaml:"inline"`
}

// Facilitator configures the retry-until-valid loop.
type Facilitator struct {
	MaxIterations int      `yaml:"maxIterations"`
	BenignErrors  []string `yaml:"benignErrors"`
	CandidateKey  string   `yaml:"candidateKey"`

	Generate string `yaml:"generate"`
	Merge    string `yaml:"merge"`
	Fix      string `yaml:"fix"`
}

// Policy converts the section into a facilitator.Policy.
func (f Facilitator) Policy() facilitator.Policy {
	return facilitator.Policy{
		MaxIterations: f.MaxIterations,
		BenignErrors:  append([]string(nil), f.BenignErrors...),
		CandidateKey:  f.CandidateKey,
	}
}

// Validator selects how candidates are checked.
type Validator struct {
	Type        string            `yaml:"type"`
	URL         string            `yaml:"url"`
	ContentType string            `yaml:"contentType"`
	Timeout     time.Duration     `yaml:"timeout"`
	Headers     map[string]string `yaml:"headers"`
	SchemaFile  string            `yaml:"schemaFile"`
	Root        string            `yaml:"root"`

	// Command, Args and Env configure the process validator.
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// Audit selects the audit sink and its middleware.
type Audit struct {
	Type      string        `yaml:"type"`
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redisAddr"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`

	// Redact masks API keys and bearer tokens before entries are stored.
	Redact         bool     `yaml:"redact"`
	RedactPatterns []string `yaml:"redactPatterns"`

	// EncryptionKeyEnv names an environment variable holding a 32 byte key.
	EncryptionKeyEnv string `yaml:"encryptionKeyEnv"`
}

// Server configures `datagen serve`.
type Server struct {
	Addr string `yaml:"addr"`
}

// Batch configures multi-target generation.
type Batch struct {
	Concurrency int `yaml:"concurrency"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references with environment values. Unset variables become empty.
func ExpandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads, expands, parses and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(ExpandEnv(data))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Facilitator.Generate == "" {
		c.Facilitator.Generate = "generate"
	}
	if c.Facilitator.Fix == "" {
		c.Facilitator.Fix = "fix"
	}
	if c.Audit.Type == "" {
		c.Audit.Type = AuditFile
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 1
	}
	for name, m := range c.Models {
		if m.Provider == "" {
			m.Provider = ProviderOpenAI
			c.Models[name] = m
		}
	}
}

// Validate reports every structural problem joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if err := c.Facilitator.Policy().Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, conv := range []string{c.Facilitator.Generate, c.Facilitator.Merge, c.Facilitator.Fix} {
		if conv == "" {
			continue
		}
		if _, ok := c.Conversations[conv]; !ok {
			add("facilitator references unknown conversation %q", conv)
		}
	}

	for _, conv := range sortedKeys(c.Conversations) {
		names := c.Conversations[conv]
		if len(names) == 0 {
			add("conversation %q has no thinkers", conv)
		}
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			t, ok := c.Thinkers[name]
			if !ok {
				add("conversation %q references unknown thinker %q", conv, name)
				continue
			}
			// Responses are keyed by display name.
			display := t.SelfName
			if display == "" {
				display = name
			}
			if seen[display] {
				add("conversation %q has two thinkers named %q", conv, display)
			}
			seen[display] = true
		}
	}

	for _, name := range sortedKeys(c.Thinkers) {
		t := c.Thinkers[name]
		if t.ModelBinding == "" {
			add("thinker %q has no modelBinding", name)
		} else if _, ok := c.Models[t.ModelBinding]; !ok {
			add("thinker %q references unknown model binding %q", name, t.ModelBinding)
		}
	}

	for _, name := range sortedKeys(c.Models) {
		m := c.Models[name]
		switch m.Provider {
		case ProviderOpenAI, ProviderGemini:
			if m.Model == "" {
				add("model binding %q has no model", name)
			}
		case ProviderScripted:
		default:
			add("model binding %q has unknown provider %q", name, m.Provider)
		}
		if m.MaxRetries < 0 {
			add("model binding %q has negative maxRetries", name)
		}
	}

	switch c.Validator.Type {
	case ValidatorHTTP:
		if c.Validator.URL == "" {
			add("http validator requires url")
		}
	case ValidatorSchema:
		if c.Validator.SchemaFile == "" {
			add("schema validator requires schemaFile")
		}
	case ValidatorXML:
	case ValidatorProcess:
		if c.Validator.Command == "" {
			add("process validator requires command")
		}
	case "":
		add("validator type is required")
	default:
		add("unknown validator type %q", c.Validator.Type)
	}

	switch c.Audit.Type {
	case AuditMemory, AuditFile, AuditSQLite:
	case AuditRedis:
		if c.Audit.RedisAddr == "" {
			add("redis audit sink requires redisAddr")
		}
	default:
		add("unknown audit type %q", c.Audit.Type)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ThoughtProcess resolves a conversation into its ordered ThinkerSpecs.
func (c *Config) ThoughtProcess(conversation string) (domain.ThoughtProcess, error) {
	names, ok := c.Conversations[conversation]
	if !ok {
		return domain.ThoughtProcess{}, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversation)
	}
	process := domain.ThoughtProcess{Name: conversation}
	for _, name := range names {
		t, ok := c.Thinkers[name]
		if !ok {
			return domain.ThoughtProcess{}, fmt.Errorf("%w: %s", domain.ErrThinkerNotFound, name)
		}
		process.Thinkers = append(process.Thinkers, domain.ThinkerSpec{
			Name:              name,
			ImplementationRef: t.ImplementationRef,
			SelfName:          t.SelfName,
			ModelBinding:      t.ModelBinding,
			Template:          t.Template,
			Options:           t.Options,
		})
	}
	return process, nil
}

// ConversationNames lists the configured conversations, sorted.
func (c *Config) ConversationNames() []string {
	return sortedKeys(c.Conversations)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
