package cli

import (
	"context"
	"io"

	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/graph"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/config"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// PipelineFromConfig resolves the Facilitator's conversations for drawing.
func PipelineFromConfig(cfg *config.Config) (graph.Pipeline, error) {
	f := cfg.Facilitator
	p := graph.Pipeline{MaxIterations: f.MaxIterations}

	var err error
	if p.Generate, err = cfg.ThoughtProcess(f.Generate); err != nil {
		return p, err
	}
	if p.Fix, err = cfg.ThoughtProcess(f.Fix); err != nil {
		return p, err
	}
	if f.Merge != "" {
		merge, err := cfg.ThoughtProcess(f.Merge)
		if err != nil {
			return p, err
		}
		p.Merge = &merge
	}
	return p, nil
}

// Graph writes the Mermaid flowchart of the pipeline. When audit and runID are set, the
// thinkers the run went through are highlighted.
func Graph(ctx context.Context, cfg *config.Config, audit ports.AuditSink, runID string, w io.Writer) error {
	p, err := PipelineFromConfig(cfg)
	if err != nil {
		return err
	}
	var overlay *graph.Overlay
	if audit != nil && runID != "" {
		entries, err := audit.Entries(ctx, runID)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFromAudit(entries)
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(p, overlay))
	return err
}
