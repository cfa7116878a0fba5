package ports

import (
	"context"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// AuditSink is an append-only log of Thinker exchanges, keyed by run ID.
type AuditSink interface {
	// Append records one entry at the end of the run's log.
	Append(ctx context.Context, entry domain.AuditEntry) error

	// Entries returns the run's entries in append order.
	// Returns domain.ErrRunNotFound if nothing was recorded for runID.
	Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error)

	// Runs lists the run IDs known to the sink.
	Runs(ctx context.Context) ([]string, error)
}
