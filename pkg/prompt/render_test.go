package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

func TestRender_SystemAndUser(t *testing.T) {
	tpl := domain.PromptTemplate{
		ID:     "xml-maker",
		System: "You write {{ format }} documents.",
		User:   "Build an object for:\n{{ .specification }}\nPrior:\n{{bestSoFar}}",
		Rules:  []domain.ExtractionRule{{Name: "candidate", Front: "<START>", Back: "<END>"}},
	}
	state := domain.Wisdom{
		"format":        "XML",
		"specification": "element: Person",
		"bestSoFar":     domain.SeedPlaceholder,
	}

	pe := Render(tpl, state)

	require.Len(t, pe.Messages, 2)
	assert.Equal(t, domain.RoleSystem, pe.Messages[0].Role)
	assert.Equal(t, "You write XML documents.", pe.Messages[0].Content)
	assert.Equal(t, domain.RoleUser, pe.Messages[1].Role)
	assert.Equal(t, "Build an object for:\nelement: Person\nPrior:\n"+domain.SeedPlaceholder, pe.Messages[1].Content)
	assert.Empty(t, pe.Unresolved)
	assert.Equal(t, tpl.Rules, pe.Rules)
}

func TestRender_MissingPlaceholderDegradesToEmpty(t *testing.T) {
	tpl := domain.PromptTemplate{User: "A={{ a }} B={{ missing }} again={{missing}} C={{ .nested.none }}"}

	pe := Render(tpl, domain.Wisdom{"a": "1"})

	require.Len(t, pe.Messages, 1, "no system message when the template has none")
	assert.Equal(t, "A=1 B= again= C=", pe.Messages[0].Content)
	assert.Equal(t, []string{"missing", "nested.none"}, pe.Unresolved)
}

func TestRender_NestedAndNonStringValues(t *testing.T) {
	state := domain.Wisdom{
		"spec":              map[string]any{"element": "Course", "count": 3},
		"validationHistory": domain.ValidationHistory{"tag not closed", "bad date"},
	}
	tpl := domain.PromptTemplate{User: "{{ .spec.element }} x{{ spec.count }}\n{{ validationHistory }}"}

	pe := Render(tpl, state)

	assert.Equal(t, "Course x3\n1. tag not closed\n2. bad date", pe.Messages[0].Content)
}

func TestRender_RulesAreCopied(t *testing.T) {
	tpl := domain.PromptTemplate{User: "x", Rules: []domain.ExtractionRule{{Name: "a", Front: "[", Back: "]"}}}
	pe := Render(tpl, nil)
	pe.Rules[0].Name = "mutated"
	assert.Equal(t, "a", tpl.Rules[0].Name)
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{ a }} {{.b.c}} {{a}} {{ not valid! }}")
	assert.Equal(t, []string{"a", "b.c"}, got)
}
