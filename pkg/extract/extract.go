// Package extract pulls named, delimiter-bounded segments out of raw model text.
//
// A rule whose delimiters cannot be found does not fail the extraction: the field falls back
// to the entire raw text and a warning is logged. Callers that need to distinguish the two
// cases inspect Fields.Fallbacks.
package extract

import (
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Fields is the result of applying a rule set to one response.
type Fields struct {
	// Values maps rule names to extracted text.
	Values map[string]string

	// Fallbacks lists rule names whose delimiters were not found.
	Fallbacks []string
}

// Wisdom returns the extracted values as a Wisdom layer.
func (f Fields) Wisdom() domain.Wisdom {
	w := make(domain.Wisdom, len(f.Values))
	for k, v := range f.Values {
		w[k] = v
	}
	return w
}

type config struct {
	logger    *slog.Logger
	trimSpace bool
}

// Option configures Extract.
type Option func(*config)

// WithLogger sets the logger used to warn about unmatched rules.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTrimSpace trims surrounding whitespace from every matched segment.
func WithTrimSpace() Option {
	return func(c *config) {
		c.trimSpace = true
	}
}

// Extract applies every rule to raw.
// For each rule the first occurrence of Front is located, then the first occurrence of Back
// after it; the text in between is the field value. Embedded newlines never end a match.
// An empty Front anchors at the start of raw and an empty Back at its end.
func Extract(raw string, rules []domain.ExtractionRule, opts ...Option) Fields {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := Fields{Values: make(map[string]string, len(rules))}
	for _, rule := range rules {
		m := compile(rule.Front, rule.Back).FindStringSubmatch(raw)
		if m == nil {
			cfg.logger.Warn("extraction rule did not match, using raw response",
				"rule", rule.Name, "front", rule.Front, "back", rule.Back, "raw_len", len(raw))
			out.Values[rule.Name] = raw
			out.Fallbacks = append(out.Fallbacks, rule.Name)
			continue
		}
		v := m[1]
		if cfg.trimSpace {
			v = strings.TrimSpace(v)
		}
		out.Values[rule.Name] = v
	}
	return out
}

var cache sync.Map // map[string]*regexp.Regexp

func compile(front, back string) *regexp.Regexp {
	key := front + "\x00" + back
	if re, ok := cache.Load(key); ok {
		return re.(*regexp.Regexp)
	}

	f := `^`
	if front != "" {
		f = regexp.QuoteMeta(front)
	}
	b := `\z`
	if back != "" {
		b = regexp.QuoteMeta(back)
	}
	re := regexp.MustCompile(`(?s)` + f + `(.*?)` + b)
	actual, _ := cache.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}
