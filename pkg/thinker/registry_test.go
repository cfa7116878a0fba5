package thinker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/thinker"
)

func testDeps(t *testing.T, client ports.AIClient) thinker.Deps {
	t.Helper()
	loader, err := memory.NewLoader(domain.PromptTemplate{
		ID:    "maker",
		User:  "make it",
		Rules: []domain.ExtractionRule{{Name: "candidate", Front: "[[", Back: "]]"}},
	})
	require.NoError(t, err)
	return thinker.Deps{
		Clients:   thinker.Clients{"default": client},
		Templates: loader,
		Audit:     memory.NewAuditSink(),
	}
}

func TestRegistry_BuildPrompt(t *testing.T) {
	client := memory.NewScriptedClient("[[ x ]] {{note}}")
	r := thinker.NewRegistry()
	assert.Equal(t, []string{"prompt"}, r.Refs())

	spec := domain.ThinkerSpec{
		Name:         "maker",
		ModelBinding: "default",
		Options: map[string]any{
			"model":       "gpt-x",
			"temperature": 0,
			"trimSpace":   true,
			"rules":       []any{map[string]any{"name": "note", "front": "{{", "back": "}}"}},
		},
	}
	th, err := r.Build(context.Background(), spec, testDeps(t, client))
	require.NoError(t, err)

	out, _, err := th.ExecuteRequest(context.Background(), domain.Wisdom{})
	require.NoError(t, err)
	assert.Equal(t, "x", out["candidate"])
	assert.Equal(t, "note", out["note"])

	req := client.Requests()[0]
	assert.Equal(t, "gpt-x", req.Model)
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
}

func TestRegistry_Errors(t *testing.T) {
	r := thinker.NewRegistry()
	deps := testDeps(t, memory.NewScriptedClient())
	ctx := context.Background()

	_, err := r.Build(ctx, domain.ThinkerSpec{Name: "a", ImplementationRef: "nope"}, deps)
	assert.ErrorIs(t, err, domain.ErrThinkerNotFound)

	_, err = r.Build(ctx, domain.ThinkerSpec{Name: "maker", ModelBinding: "missing"}, deps)
	assert.ErrorIs(t, err, domain.ErrBindingNotFound)

	_, err = r.Build(ctx, domain.ThinkerSpec{Name: "unknown-template", ModelBinding: "default"}, deps)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	_, err = r.Build(ctx, domain.ThinkerSpec{Name: "maker", ModelBinding: "default", Options: map[string]any{"tmperature": 1}}, deps)
	assert.ErrorContains(t, err, "invalid options")
}

func TestRegistry_CustomFactory(t *testing.T) {
	r := thinker.NewRegistry()
	r.Register("upper", func(ctx context.Context, spec domain.ThinkerSpec, deps thinker.Deps) (ports.Thinker, error) {
		return ports.ThinkerFunc(func(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error) {
			return in.With("seen", spec.Name), "ok", nil
		}), nil
	})

	th, err := r.Build(context.Background(), domain.ThinkerSpec{Name: "custom", ImplementationRef: "upper"}, thinker.Deps{})
	require.NoError(t, err)
	out, raw, err := th.ExecuteRequest(context.Background(), domain.Wisdom{})
	require.NoError(t, err)
	assert.Equal(t, "ok", raw)
	assert.Equal(t, "custom", out["seen"])
}
