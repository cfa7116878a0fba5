package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/tui"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// ListRuns writes the recorded run IDs, one per line.
func ListRuns(ctx context.Context, audit ports.AuditSink, w io.Writer) error {
	runs, err := audit.Runs(ctx)
	if err != nil {
		return err
	}
	for _, id := range runs {
		fmt.Fprintln(w, id)
	}
	return nil
}

// Replay writes the audit trail of runID. With render set it is formatted as Markdown
// through render (glamour); otherwise entries are written as JSON lines.
func Replay(ctx context.Context, audit ports.AuditSink, runID string, w io.Writer, render func(string) (string, error)) error {
	entries, err := audit.Entries(ctx, runID)
	if err != nil {
		return err
	}
	if render == nil {
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	md := tui.AuditMarkdown(runID, entries)
	out, err := render(md)
	if err != nil {
		// Fall back to plain Markdown.
		out = md
	}
	_, err = io.WriteString(w, out)
	return err
}
