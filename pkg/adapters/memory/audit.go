package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// AuditSink implements ports.AuditSink in memory.
// Safe for concurrent use.
type AuditSink struct {
	mu   sync.RWMutex
	runs map[string][]domain.AuditEntry
}

// NewAuditSink creates an empty in-memory audit sink.
func NewAuditSink() *AuditSink {
	return &AuditSink{runs: make(map[string][]domain.AuditEntry)}
}

// Append records the entry at the end of its run.
func (s *AuditSink) Append(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[entry.RunID] = append(s.runs[entry.RunID], entry)
	return nil
}

// Entries returns a copy of the run's entries.
func (s *AuditSink) Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	out := make([]domain.AuditEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Runs returns the known run IDs, sorted.
func (s *AuditSink) Runs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.runs))
	for id := range s.runs {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}

// All returns every entry across runs, grouped by sorted run ID. Handy in tests.
func (s *AuditSink) All() []domain.AuditEntry {
	runs, _ := s.Runs(context.Background())
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditEntry
	for _, id := range runs {
		out = append(out, s.runs[id]...)
	}
	return out
}
