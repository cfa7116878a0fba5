package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultSecretPatterns match common provider credentials that can leak into prompts.
var DefaultSecretPatterns = []string{
	`sk-[A-Za-z0-9_-]{20,}`,
	`AIza[0-9A-Za-z_-]{35}`,
	`(?i)bearer\s+[A-Za-z0-9._~+/=-]{16,}`,
}

type redactMiddleware struct {
	next     ports.AuditSink
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks content matching any of the patterns before it is stored.
// Entries already stored are returned as they are.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.AuditSink) ports.AuditSink {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Append(ctx context.Context, entry domain.AuditEntry) error {
	for _, p := range m.patterns {
		entry.Content = p.ReplaceAllString(entry.Content, Mask)
	}
	return m.next.Append(ctx, entry)
}

func (m *redactMiddleware) Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	return m.next.Entries(ctx, runID)
}

func (m *redactMiddleware) Runs(ctx context.Context) ([]string, error) {
	return m.next.Runs(ctx)
}
