package ports

import (
	"context"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Thinker is one exchange step of a conversation.
//
// ExecuteRequest receives the current Wisdom and returns the updated Wisdom together with
// the raw model response. On failure the incoming Wisdom is left untouched and the error
// is returned to the caller without retrying.
type Thinker interface {
	ExecuteRequest(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error)
}

// ThinkerFunc adapts a function to the Thinker interface.
type ThinkerFunc func(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error)

// ExecuteRequest calls f.
func (f ThinkerFunc) ExecuteRequest(ctx context.Context, in domain.Wisdom) (domain.Wisdom, string, error) {
	return f(ctx, in)
}
