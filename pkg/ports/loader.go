package ports

import (
	"context"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// TemplateLoader defines how prompt templates are retrieved.
// This allows the template source (Markdown library, config file, memory) to be decoupled.
type TemplateLoader interface {
	// GetTemplate retrieves a template by ID.
	// Returns domain.ErrTemplateNotFound when the ID is unknown.
	GetTemplate(ctx context.Context, id string) (domain.PromptTemplate, error)

	// ListTemplates returns the IDs of all available templates.
	ListTemplates(ctx context.Context) ([]string, error)
}
