package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWisdom_Merge_LaterWins(t *testing.T) {
	base := Wisdom{"keep": "original", "shared": "old"}
	out := base.Merge(Wisdom{"shared": "new"}, Wisdom{"added": 3})

	assert.Equal(t, "original", out["keep"])
	assert.Equal(t, "new", out["shared"])
	assert.Equal(t, 3, out["added"])

	// The receiver is never mutated.
	assert.Equal(t, Wisdom{"keep": "original", "shared": "old"}, base)
}

func TestWisdom_Merge_NilReceiver(t *testing.T) {
	var w Wisdom
	out := w.Merge(Wisdom{"a": 1})
	assert.Equal(t, Wisdom{"a": 1}, out)
}

func TestWisdom_String(t *testing.T) {
	w := Wisdom{
		"text":    "hello",
		"number":  42,
		"list":    []string{"a", "b"},
		"history": ValidationHistory{"bad tag", "missing attr"},
		"nil":     nil,
	}

	assert.Equal(t, "hello", w.String("text"))
	assert.Equal(t, "42", w.String("number"))
	assert.Equal(t, `["a","b"]`, w.String("list"))
	assert.Equal(t, "1. bad tag\n2. missing attr", w.String("history"))
	assert.Equal(t, "", w.String("nil"))
	assert.Equal(t, "", w.String("missing"))
}

func TestWisdom_With(t *testing.T) {
	w := Wisdom{"a": 1}
	w2 := w.With("b", 2)
	assert.False(t, w.Has("b"))
	assert.True(t, w2.Has("a"))
	assert.True(t, w2.Has("b"))
}

func TestValidationHistory_AppendDoesNotAlias(t *testing.T) {
	h1 := ValidationHistory{}.Append("first")
	h2 := h1.Append("second")
	h3 := h1.Append("other")

	assert.Equal(t, ValidationHistory{"first"}, h1)
	assert.Equal(t, ValidationHistory{"first", "second"}, h2)
	assert.Equal(t, ValidationHistory{"first", "other"}, h3)
	assert.Equal(t, "other", h3.Latest())
	assert.Equal(t, "", ValidationHistory(nil).Latest())
}

func TestLifecycleHooks_Combine(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnAttempt: func(_ context.Context, e *AttemptEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{OnAttempt: func(_ context.Context, e *AttemptEvent) { calls = append(calls, "b") }}

	combined := a.Combine(b)
	combined.OnAttempt(context.Background(), &AttemptEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, a.Combine(LifecycleHooks{}).OnValidation)
}
