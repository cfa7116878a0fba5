package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/graph"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

func pipeline() graph.Pipeline {
	return graph.Pipeline{
		Generate: domain.ThoughtProcess{Name: "generate", Thinkers: []domain.ThinkerSpec{
			{Name: "xml-maker", SelfName: "xmlMaker"},
			{Name: "xml-review", SelfName: "xmlReview"},
		}},
		Fix: domain.ThoughtProcess{Name: "fix", Thinkers: []domain.ThinkerSpec{
			{Name: "fixer", SelfName: "fixProblems"},
		}},
		MaxIterations: 3,
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		pipeline func() graph.Pipeline
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name:     "Loop Structure",
			pipeline: pipeline,
			contains: []string{
				"start --> generate_0_xml_maker",
				"generate_0_xml_maker --> generate_1_xml_review",
				"generate_1_xml_review --> validate",
				"validate -- \"failed\" --> fix_0_fixer",
				"fix_0_fixer -. \"retry (max 3)\" .-> generate_0_xml_maker",
				"generate_0_xml_maker[\"xmlMaker\"]",
			},
			excludes: []string{"classDef"},
		},
		{
			name: "Merge Conversation",
			pipeline: func() graph.Pipeline {
				p := pipeline()
				p.Merge = &domain.ThoughtProcess{Name: "merge", Thinkers: []domain.ThinkerSpec{{Name: "joiner"}}}
				return p
			},
			contains: []string{
				"generate_1_xml_review -- \"bestSoFar\" --> merge_0_joiner",
				"merge_0_joiner --> validate",
			},
		},
		{
			name:     "Overlay From Audit",
			pipeline: pipeline,
			overlay: graph.OverlayFromAudit([]domain.AuditEntry{
				{Thinker: "xmlMaker"}, {Thinker: "xmlMaker"}, {Thinker: "fixProblems"},
			}),
			contains: []string{
				"class generate_0_xml_maker visited;",
				"class fix_0_fixer visited;",
				"class fix_0_fixer current;",
			},
			excludes: []string{"class generate_1_xml_review"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.pipeline(), tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, got, bad)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(got, "class generate_0_xml_maker visited;"), "visited classes are deduplicated")
			}
		})
	}
}
