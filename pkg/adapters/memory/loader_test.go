package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

func TestLoader(t *testing.T) {
	ctx := context.Background()
	loader, err := memory.NewLoader(
		domain.PromptTemplate{ID: "maker", User: "make {{ specification }}"},
		domain.PromptTemplate{ID: "fixer", User: "fix {{ candidate }}"},
	)
	require.NoError(t, err)

	ids, err := loader.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixer", "maker"}, ids)

	tpl, err := loader.GetTemplate(ctx, "maker")
	require.NoError(t, err)
	assert.Equal(t, "make {{ specification }}", tpl.User)

	_, err = loader.GetTemplate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestLoader_RejectsBadInput(t *testing.T) {
	_, err := memory.NewLoader(domain.PromptTemplate{})
	assert.Error(t, err)

	_, err = memory.NewLoader(domain.PromptTemplate{ID: "a"}, domain.PromptTemplate{ID: "a"})
	assert.Error(t, err)
}
