package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

func TestScriptedClient(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	c := memory.NewScriptedClient("one").Then(memory.Reply{Err: boom})
	req := ports.CompletionRequest{Messages: []domain.Message{domain.UserMessage("q")}}

	out, err := c.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	_, err = c.Complete(ctx, req)
	assert.ErrorIs(t, err, boom)

	_, err = c.Complete(ctx, req)
	assert.Error(t, err, "exhausted script")

	c.Otherwise(func(r ports.CompletionRequest) (string, error) { return "echo:" + r.Messages[0].Content, nil })
	out, err = c.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "echo:q", out)
	assert.Len(t, c.Requests(), 4)
}

func TestScriptedValidator_RepeatsLast(t *testing.T) {
	ctx := context.Background()
	v := memory.NewScriptedValidator(memory.Fail("bad"), memory.Pass())

	out, err := v.Validate(ctx, "a")
	require.NoError(t, err)
	assert.False(t, out.Passed)
	assert.Equal(t, "bad", out.ErrorMessage)

	for _, c := range []string{"b", "c"} {
		out, err = v.Validate(ctx, c)
		require.NoError(t, err)
		assert.True(t, out.Passed)
	}
	assert.Equal(t, []string{"a", "b", "c"}, v.Candidates())
}
