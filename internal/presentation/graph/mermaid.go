// Package graph draws the generate, validate, repair pipeline as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Pipeline is the set of conversations driven by the Facilitator.
type Pipeline struct {
	Generate      domain.ThoughtProcess
	Merge         *domain.ThoughtProcess
	Fix           domain.ThoughtProcess
	MaxIterations int
}

// Overlay highlights the thinkers a recorded run went through.
type Overlay struct {
	// VisitedThinkers holds display names, as written in audit entries.
	VisitedThinkers []string
	Current         string
}

// OverlayFromAudit builds an Overlay from a run's audit entries. The last thinker is current.
func OverlayFromAudit(entries []domain.AuditEntry) *Overlay {
	o := &Overlay{}
	for _, e := range entries {
		o.VisitedThinkers = append(o.VisitedThinkers, e.Thinker)
		o.Current = e.Thinker
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of p. Thinkers are rectangles grouped in one
// subgraph per conversation; the validator is a hexagon and the loop back edge is dotted.
func GenerateMermaid(p Pipeline, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    start((\"start\"))\n")

	byName := make(map[string][]string)
	genFirst, genLast := writeConversation(&sb, p.Generate, byName)
	fmt.Fprintf(&sb, "    start --> %s\n", genFirst)

	last := genLast
	if p.Merge != nil {
		first, mergeLast := writeConversation(&sb, *p.Merge, byName)
		fmt.Fprintf(&sb, "    %s -- \"bestSoFar\" --> %s\n", last, first)
		last = mergeLast
	}

	fixFirst, fixLast := writeConversation(&sb, p.Fix, byName)

	sb.WriteString("    validate{{\"validate\"}}\n")
	sb.WriteString("    valid((\"valid\"))\n")
	sb.WriteString("    exhausted((\"invalid\"))\n")
	fmt.Fprintf(&sb, "    %s --> validate\n", last)
	sb.WriteString("    validate -- \"passed\" --> valid\n")
	fmt.Fprintf(&sb, "    validate -- \"failed\" --> %s\n", fixFirst)
	label := "retry"
	if p.MaxIterations > 0 {
		label = fmt.Sprintf("retry (max %d)", p.MaxIterations)
	}
	fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", fixLast, label, genFirst)
	sb.WriteString("    validate -- \"budget spent\" --> exhausted\n")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedThinkers {
			for _, id := range byName[name] {
				if !seen[id] {
					seen[id] = true
					fmt.Fprintf(&sb, "    class %s visited;\n", id)
				}
			}
		}
		for _, id := range byName[overlay.Current] {
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}
	return sb.String()
}

// writeConversation emits one subgraph and returns its first and last node IDs.
func writeConversation(sb *strings.Builder, tp domain.ThoughtProcess, byName map[string][]string) (string, string) {
	conv := sanitizeMermaidID(tp.Name)
	fmt.Fprintf(sb, "    subgraph %s [\"%s\"]\n", conv, tp.Name)

	var ids []string
	for i, spec := range tp.Thinkers {
		id := fmt.Sprintf("%s_%d_%s", conv, i, sanitizeMermaidID(spec.Name))
		ids = append(ids, id)
		name := spec.DisplayName()
		byName[name] = append(byName[name], id)
		fmt.Fprintf(sb, "        %s[\"%s\"]\n", id, strings.ReplaceAll(name, "\"", "'"))
	}
	for i := 1; i < len(ids); i++ {
		fmt.Fprintf(sb, "        %s --> %s\n", ids[i-1], ids[i])
	}
	sb.WriteString("    end\n")

	if len(ids) == 0 {
		return conv, conv
	}
	return ids[0], ids[len(ids)-1]
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
