package loam

import "github.com/tqwhite/unity-data-generator-sub000/pkg/domain"

// TemplateMetadata is the frontmatter of a prompt template document.
// The document body is the user prompt.
type TemplateMetadata struct {
	ID          string                  `json:"id" mapstructure:"id"`
	System      string                  `json:"system" mapstructure:"system"`
	Temperature *float64                `json:"temperature,omitempty" mapstructure:"temperature"`
	Rules       []domain.ExtractionRule `json:"rules" mapstructure:"rules"`

	// Description is shown by the CLI when listing templates.
	Description string `json:"description,omitempty" mapstructure:"description"`
}
