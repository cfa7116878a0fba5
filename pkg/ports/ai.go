package ports

import (
	"context"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// CompletionRequest is the payload sent to a generative model.
type CompletionRequest struct {
	Messages []domain.Message

	// Model overrides the binding's default model when non-empty.
	Model string

	// Temperature is optional; nil leaves the provider default in place.
	Temperature *float64
}

// AIClient is the vendor-agnostic generative model abstraction.
// Implementations own their own timeouts and retries; errors are returned unchanged to the caller.
type AIClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AIClientFunc adapts a function to the AIClient interface.
type AIClientFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f.
func (f AIClientFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
