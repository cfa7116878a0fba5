package conversation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/conversation"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/thinker"
)

// setter returns a thinker that writes key=value and records that it ran.
// A failing setter still hands back a raw response, as a thinker whose response audit failed does.
func setter(calls *[]string, self, key string, value any, err error) conversation.Step {
	return conversation.Step{
		Spec: domain.ThinkerSpec{Name: self, SelfName: self},
		Thinker: ports.ThinkerFunc(func(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error) {
			*calls = append(*calls, self)
			if err != nil {
				return nil, "partial-" + self, err
			}
			return in.With(key, value), "raw-" + self, nil
		}),
	}
}

func TestRun_MergeSemantics(t *testing.T) {
	var calls []string
	g := conversation.New("generate", []conversation.Step{
		setter(&calls, "first", "a", "from-first", nil),
		setter(&calls, "second", "b", "from-second", nil),
		setter(&calls, "third", "b", "overwritten", nil),
	})

	seed := domain.Wisdom{"seed": true}
	out, err := g.Run(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, "from-first", out.Wisdom["a"], "untouched fields survive later thinkers")
	assert.Equal(t, "overwritten", out.Wisdom["b"], "later thinker wins")
	assert.Equal(t, true, out.Wisdom["seed"])
	assert.Equal(t, []string{"first", "second", "third"}, out.Order)
	assert.Equal(t, map[string]string{"first": "raw-first", "second": "raw-second", "third": "raw-third"}, out.Responses)
	assert.Equal(t, domain.Wisdom{"seed": true}, seed, "seed must not be mutated")
}

func TestRun_ShortCircuitOnFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	var calls []string
	g := conversation.New("fix", []conversation.Step{
		setter(&calls, "one", "x", 1, nil),
		setter(&calls, "two", "", nil, boom),
		setter(&calls, "three", "y", 3, nil),
	})

	out, err := g.Run(context.Background(), nil)
	require.ErrorIs(t, err, boom)

	se, ok := conversation.IsStepError(err)
	require.True(t, ok)
	assert.Equal(t, "fix", se.Conversation)
	assert.Equal(t, "two", se.Thinker)
	assert.Equal(t, 1, se.Index)

	assert.Equal(t, []string{"one", "two"}, calls, "thinkers after the failure never run")
	require.NotNil(t, out)
	assert.Equal(t, []string{"one", "two"}, out.Order, "the failing thinker is part of the partial outcome")
	assert.Equal(t, map[string]string{"one": "raw-one", "two": "partial-two"}, out.Responses)
	_, ok = out.Response("three")
	assert.False(t, ok)
	assert.Equal(t, 1, out.Wisdom["x"])
}

func TestRun_SequentialVisibility(t *testing.T) {
	var seen []domain.Wisdom
	observe := func(self string) conversation.Step {
		return conversation.Step{
			Spec: domain.ThinkerSpec{Name: self},
			Thinker: ports.ThinkerFunc(func(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error) {
				seen = append(seen, in.Clone())
				return in.With(self, len(seen)), "", nil
			}),
		}
	}
	g := conversation.New("c", []conversation.Step{observe("s1"), observe("s2"), observe("s3")})
	_, err := g.Run(context.Background(), domain.Wisdom{})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Empty(t, seen[0])
	assert.Equal(t, domain.Wisdom{"s1": 1}, seen[1])
	assert.Equal(t, domain.Wisdom{"s1": 1, "s2": 2}, seen[2])
}

func TestRun_CancelledContext(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	g := conversation.New("c", []conversation.Step{
		{Spec: domain.ThinkerSpec{Name: "stopper"}, Thinker: ports.ThinkerFunc(func(context.Context, domain.Wisdom) (domain.Wisdom, string, error) {
			calls = append(calls, "stopper")
			cancel()
			return domain.Wisdom{}, "", nil
		})},
		setter(&calls, "never", "k", 1, nil),
	})

	_, err := g.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"stopper"}, calls)
}

func TestRun_Hooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnThinkerStart: func(_ context.Context, e *domain.ThinkerEvent) {
			events = append(events, "start:"+e.Thinker)
		},
		OnThinkerFinish: func(_ context.Context, e *domain.ThinkerEvent) {
			assert.Equal(t, "run-7", e.RunID)
			events = append(events, "finish:"+e.Thinker)
		},
	}
	var calls []string
	g := conversation.New("c", []conversation.Step{setter(&calls, "a", "k", 1, nil)}, conversation.WithLifecycleHooks(hooks))

	_, err := g.Run(domain.WithRunID(context.Background(), "run-7"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"start:a", "finish:a"}, events)
}

func TestRun_FinishEventCarriesError(t *testing.T) {
	var finished *domain.ThinkerEvent
	hooks := domain.LifecycleHooks{
		OnThinkerFinish: func(_ context.Context, e *domain.ThinkerEvent) { finished = e },
	}
	var calls []string
	boom := errors.New("model unavailable")
	g := conversation.New("c", []conversation.Step{setter(&calls, "a", "", nil, boom)}, conversation.WithLifecycleHooks(hooks))

	_, err := g.Run(context.Background(), nil)
	require.Error(t, err)
	require.NotNil(t, finished)
	assert.ErrorIs(t, finished.Err, boom)
	assert.Equal(t, "model unavailable", finished.Error)

	data, err := json.Marshal(finished)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"model unavailable"`)
}

func TestBuild_ResolvesThroughRegistry(t *testing.T) {
	loader, err := memory.NewLoader(domain.PromptTemplate{
		ID:    "maker",
		User:  "make {{ specification }}",
		Rules: []domain.ExtractionRule{{Name: "candidate", Front: "<x>", Back: "</x>"}},
	})
	require.NoError(t, err)
	client := memory.NewScriptedClient("<x>data</x>")
	deps := thinker.Deps{Clients: thinker.Clients{"m": client}, Templates: loader}

	g, err := conversation.Build(context.Background(), domain.ThoughtProcess{
		Name:     "generate",
		Thinkers: []domain.ThinkerSpec{{Name: "maker", SelfName: "Maker", ModelBinding: "m"}},
	}, thinker.NewRegistry(), deps)
	require.NoError(t, err)
	assert.Equal(t, "generate", g.Name())
	assert.Len(t, g.Specs(), 1)

	out, err := g.Run(context.Background(), domain.Wisdom{"specification": "spec"})
	require.NoError(t, err)
	assert.Equal(t, "data", out.Wisdom["candidate"])
	assert.Equal(t, "<x>data</x>", out.Responses["Maker"])

	_, err = conversation.Build(context.Background(), domain.ThoughtProcess{
		Name:     "broken",
		Thinkers: []domain.ThinkerSpec{{Name: "maker", ImplementationRef: "python-module"}},
	}, thinker.NewRegistry(), deps)
	assert.ErrorIs(t, err, domain.ErrThinkerNotFound)

	_, err = conversation.Build(context.Background(), domain.ThoughtProcess{Name: "empty"}, thinker.NewRegistry(), deps)
	assert.Error(t, err)
}
