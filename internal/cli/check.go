package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Check reports what rt resolved from its configuration: conversations with their
// thinkers, the templates on offer and the retry policy. Building the Runtime already
// validated every reference, so Check only fails when templates cannot be listed.
func Check(ctx context.Context, rt *Runtime, w io.Writer) error {
	cfg := rt.Config
	printSystemMessage(w, "Configuration OK")

	fmt.Fprintln(w, "Conversations:")
	for _, name := range cfg.ConversationNames() {
		tp, err := cfg.ThoughtProcess(name)
		if err != nil {
			return err
		}
		names := make([]string, len(tp.Thinkers))
		for i, t := range tp.Thinkers {
			names[i] = t.DisplayName()
		}
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(names, " -> "))
	}

	ids, err := rt.Engine.Templates().ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	fmt.Fprintf(w, "Templates: %s\n", strings.Join(ids, ", "))

	p := rt.Engine.Policy()
	fmt.Fprintf(w, "Policy: maxIterations=%d benignErrors=%d\n", p.MaxIterations, len(p.BenignErrors))
	fmt.Fprintf(w, "Validator: %s\n", cfg.Validator.Type)
	fmt.Fprintf(w, "Audit: %s\n", cfg.Audit.Type)
	return nil
}
