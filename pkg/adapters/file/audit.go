// Package file implements ports.AuditSink on the local filesystem.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const ext = ".jsonl"

// AuditSink stores each run as an append-only JSON Lines file in a directory.
type AuditSink struct {
	BasePath string

	mu sync.Mutex
}

// NewAuditSink creates a sink rooted at basePath.
// If basePath is empty, it defaults to ".datagen/audit".
func NewAuditSink(basePath string) *AuditSink {
	if basePath == "" {
		basePath = filepath.Join(".datagen", "audit")
	}
	return &AuditSink{BasePath: basePath}
}

func (s *AuditSink) path(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("runID cannot be empty")
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid runID %q", runID)
	}
	return filepath.Join(s.BasePath, runID+ext), nil
}

// Append writes entry as one line and fsyncs before returning.
func (s *AuditSink) Append(ctx context.Context, entry domain.AuditEntry) error {
	p, err := s.path(entry.RunID)
	if err != nil {
		return err
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure audit directory: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to fsync audit log: %w", err)
	}
	return f.Close()
}

// Entries reads the run's log back in order.
func (s *AuditSink) Entries(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	p, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var out []domain.AuditEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 64<<20)
	for line := 1; sc.Scan(); line++ {
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var e domain.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("corrupt audit log %s line %d: %w", runID, line, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrRunNotFound
	}
	return out, nil
}

// Runs lists run IDs that have a log file.
func (s *AuditSink) Runs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	runs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		runs = append(runs, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(runs)
	return runs, nil
}
