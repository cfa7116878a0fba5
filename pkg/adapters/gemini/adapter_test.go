package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/aiclient"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

func TestToContents(t *testing.T) {
	temp := 0.5
	contents, cfg := toContents(ports.CompletionRequest{
		Temperature: &temp,
		Messages: []domain.Message{
			domain.SystemMessage("rule one"),
			domain.SystemMessage("rule two"),
			domain.UserMessage("hello"),
			domain.AssistantMessage("hi"),
		},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, contents[1].Role)

	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "rule one\n\nrule two", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.5, *cfg.Temperature, 1e-6)
}

func TestNewAdapter_RequiresKey(t *testing.T) {
	_, err := NewAdapter(context.Background(), Config{})
	var cfgErr *aiclient.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestClassify(t *testing.T) {
	err := classify(genai.APIError{Code: 429, Message: "resource exhausted"})
	var rl *aiclient.RateLimitError
	require.ErrorAs(t, err, &rl)

	err = classify(context.DeadlineExceeded)
	var te *aiclient.RequestTimeoutError
	require.ErrorAs(t, err, &te)
}
