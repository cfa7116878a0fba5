package domain

// ExtractionRule names one delimiter-bounded segment inside free-form model text.
type ExtractionRule struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Front string `json:"front" yaml:"front" mapstructure:"front"`
	Back  string `json:"back" yaml:"back" mapstructure:"back"`
}

// PromptTemplate is the static prompt definition a Thinker renders on every invocation.
type PromptTemplate struct {
	ID string `json:"id" yaml:"id"`

	// System is rendered into a leading system message when non-empty.
	System string `json:"system,omitempty" yaml:"system,omitempty"`

	// User is rendered into the final user message.
	User string `json:"user" yaml:"user"`

	// Rules is the extraction rule set applied to the model's raw response.
	Rules []ExtractionRule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Temperature is the template's preferred variability, if any.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// PromptElements is what the Prompt Generator hands to a Thinker for one invocation.
// It is created fresh for every call and never reused.
type PromptElements struct {
	Messages []Message
	Rules    []ExtractionRule

	// Unresolved lists placeholders that had no value and rendered empty.
	Unresolved []string
}
