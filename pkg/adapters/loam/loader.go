// Package loam loads prompt templates from a directory of Markdown documents managed by Loam.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Loader adapts a Loam repository to ports.TemplateLoader.
type Loader struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

// New creates a Loader over repo.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only, unversioned Loam repository at dir.
func Open(dir string) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false), loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("loam init %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// GetTemplate reads the document for id. Frontmatter supplies the system prompt, temperature
// and extraction rules; the body becomes the user prompt.
func (l *Loader) GetTemplate(ctx context.Context, id string) (domain.PromptTemplate, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return domain.PromptTemplate{}, fmt.Errorf("%w: %s: %v", domain.ErrTemplateNotFound, id, err)
	}

	rawID := doc.Data.ID
	if rawID == "" {
		rawID = doc.ID
	}
	tpl := domain.PromptTemplate{
		ID:          trimExtension(rawID),
		System:      strings.TrimSpace(doc.Data.System),
		User:        strings.TrimSpace(doc.Content),
		Temperature: doc.Data.Temperature,
		Rules:       doc.Data.Rules,
	}
	if err := validateRules(tpl); err != nil {
		return domain.PromptTemplate{}, err
	}
	return tpl, nil
}

// ListTemplates returns normalized template IDs, failing when two documents claim the same ID.
func (l *Loader) ListTemplates(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func validateRules(tpl domain.PromptTemplate) error {
	names := make(map[string]bool, len(tpl.Rules))
	for i, r := range tpl.Rules {
		if r.Name == "" {
			return fmt.Errorf("template %s: rule %d has no name", tpl.ID, i)
		}
		if names[r.Name] {
			return fmt.Errorf("template %s: duplicate rule %q", tpl.ID, r.Name)
		}
		names[r.Name] = true
	}
	return nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
