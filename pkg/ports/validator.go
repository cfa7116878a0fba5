package ports

import (
	"context"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Validator judges the mechanical validity of a candidate artifact (XML or JSON text).
//
// A returned error means the validator could not be reached or answered garbage; it is an
// engine-level failure. An invalid candidate is reported through ValidationOutcome.Passed.
type Validator interface {
	Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, candidate string) (domain.ValidationOutcome, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	return f(ctx, candidate)
}
