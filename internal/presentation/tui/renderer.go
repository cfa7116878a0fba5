// Package tui renders run reports and audit replays for terminals.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// AuditMarkdown formats a run's audit log as Markdown, one section per entry.
func AuditMarkdown(runID string, entries []domain.AuditEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run `%s`\n\n", runID)
	if len(entries) == 0 {
		sb.WriteString("_No entries recorded._\n")
		return sb.String()
	}

	for i, e := range entries {
		title := e.Thinker
		if e.Conversation != "" {
			title = e.Conversation + " / " + e.Thinker
		}
		fmt.Fprintf(&sb, "## %d. %s: %s\n\n", i+1, title, e.Kind)
		if !e.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "_%s_\n\n", e.Timestamp.UTC().Format(time.RFC3339))
		}
		fence := fenceFor(e.Content)
		fmt.Fprintf(&sb, "%s\n%s\n%s\n\n", fence, strings.TrimRight(e.Content, "\n"), fence)
	}
	return sb.String()
}

// fenceFor picks a backtick fence longer than any run inside content.
func fenceFor(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
