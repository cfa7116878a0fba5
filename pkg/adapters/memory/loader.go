package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Loader implements ports.TemplateLoader using an in-memory map.
type Loader struct {
	templates map[string]domain.PromptTemplate
}

// NewLoader creates a Loader from templates keyed by their ID.
func NewLoader(templates ...domain.PromptTemplate) (*Loader, error) {
	m := make(map[string]domain.PromptTemplate, len(templates))
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template missing ID")
		}
		if _, dup := m[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template ID: %s", t.ID)
		}
		m[t.ID] = t
	}
	return &Loader{templates: m}, nil
}

// GetTemplate retrieves a template by ID.
func (l *Loader) GetTemplate(ctx context.Context, id string) (domain.PromptTemplate, error) {
	t, ok := l.templates[id]
	if !ok {
		return domain.PromptTemplate{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return t, nil
}

// ListTemplates returns all template IDs in sorted order.
func (l *Loader) ListTemplates(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
