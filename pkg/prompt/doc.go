/*
Package prompt renders prompt templates against the current Wisdom.

Placeholders use the form {{ name }}, {{ .name }} or a dotted path such as
{{ .spec.element }}. Rendering never fails: a placeholder without a value renders as the
empty string and is reported in PromptElements.Unresolved, so the broken prompt reaches the
audit log instead of aborting the run.
*/
package prompt
