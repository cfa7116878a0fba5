package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// RunAuditSinkContract is a reusable test suite that verifies if an adapter complies with ports.AuditSink.
func RunAuditSinkContract(t *testing.T, sink ports.AuditSink) {
	t.Helper()
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000000")

	entry := func(run string, i int, kind domain.AuditKind) domain.AuditEntry {
		return domain.AuditEntry{
			ID:        fmt.Sprintf("%s-%03d", run, i),
			RunID:     run,
			Thinker:   "xml-maker",
			Kind:      kind,
			Content:   fmt.Sprintf("line one %d\nline two", i),
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("Append and Entries preserve order", func(t *testing.T) {
		want := []domain.AuditEntry{
			entry(runID, 1, domain.AuditPrompt),
			entry(runID, 2, domain.AuditResponse),
			entry(runID, 3, domain.AuditError),
		}
		for _, e := range want {
			require.NoError(t, sink.Append(ctx, e))
		}

		got, err := sink.Entries(ctx, runID)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.Equal(t, want[i].Kind, got[i].Kind)
			assert.Equal(t, want[i].Content, got[i].Content, "multi-line content must survive the round trip")
			assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "timestamp mismatch: %v vs %v", want[i].Timestamp, got[i].Timestamp)
		}
	})

	t.Run("Entries of unknown run", func(t *testing.T) {
		_, err := sink.Entries(ctx, "missing-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Runs are isolated", func(t *testing.T) {
		other := runID + "-other"
		require.NoError(t, sink.Append(ctx, entry(other, 1, domain.AuditPrompt)))

		got, err := sink.Entries(ctx, other)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		runs, err := sink.Runs(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, runID)
		assert.Contains(t, runs, other)
	})
}
