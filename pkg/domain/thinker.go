package domain

// ThinkerSpec identifies one Thinker inside a conversation.
// It is resolved once when a conversation is built and never changes afterwards.
type ThinkerSpec struct {
	// Name is the configuration key of the thinker.
	Name string `json:"name" yaml:"name"`

	// ImplementationRef selects the registered implementation (e.g. "prompt").
	ImplementationRef string `json:"implementationRef" yaml:"implementationRef"`

	// SelfName is the display name; responses are keyed by it.
	SelfName string `json:"selfName" yaml:"selfName"`

	// ModelBinding names the AI client binding this thinker talks to.
	ModelBinding string `json:"modelBinding" yaml:"modelBinding"`

	// Template names the prompt template used by template-driven implementations.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Options carries implementation specific settings.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// DisplayName returns SelfName, falling back to Name.
func (s ThinkerSpec) DisplayName() string {
	if s.SelfName != "" {
		return s.SelfName
	}
	return s.Name
}

// ThoughtProcess is a named, ordered list of thinkers forming one conversation.
type ThoughtProcess struct {
	Name     string
	Thinkers []ThinkerSpec
}
