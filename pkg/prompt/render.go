package prompt

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*\.?([A-Za-z_][\w-]*(?:\.[A-Za-z_][\w-]*)*)\s*\}\}`)

// Render builds the message list for one Thinker invocation.
// The result always ends with the rendered user message; a system message is prepended
// when the template defines one.
func Render(tpl domain.PromptTemplate, state domain.Wisdom) domain.PromptElements {
	var unresolved []string

	msgs := make([]domain.Message, 0, 2)
	if strings.TrimSpace(tpl.System) != "" {
		msgs = append(msgs, domain.SystemMessage(Interpolate(tpl.System, state, &unresolved)))
	}
	msgs = append(msgs, domain.UserMessage(Interpolate(tpl.User, state, &unresolved)))

	rules := make([]domain.ExtractionRule, len(tpl.Rules))
	copy(rules, tpl.Rules)

	return domain.PromptElements{
		Messages:   msgs,
		Rules:      rules,
		Unresolved: unresolved,
	}
}

// Interpolate substitutes placeholders in text with values from state.
// Names without a value are appended to unresolved (once each) and render as "".
func Interpolate(text string, state domain.Wisdom, unresolved *[]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := lookup(state, name)
		if !ok {
			if unresolved != nil && !slices.Contains(*unresolved, name) {
				*unresolved = append(*unresolved, name)
			}
			return ""
		}
		return domain.Stringify(v)
	})
}

// Placeholders lists the distinct placeholder names used in text, in order of appearance.
func Placeholders(text string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

func lookup(state domain.Wisdom, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = map[string]any(state)
	for _, p := range parts {
		var next any
		var ok bool
		switch m := cur.(type) {
		case map[string]any:
			next, ok = m[p]
		case domain.Wisdom:
			next, ok = m[p]
		case map[string]string:
			next, ok = m[p]
		default:
			return nil, false
		}
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
