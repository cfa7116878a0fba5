package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/file"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	contract "github.com/tqwhite/unity-data-generator-sub000/pkg/ports/tests"
)

func TestAuditSink_Contract(t *testing.T) {
	contract.RunAuditSinkContract(t, file.NewAuditSink(t.TempDir()))
}

func TestAuditSink_FileLayout(t *testing.T) {
	dir := t.TempDir()
	sink := file.NewAuditSink(dir)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, domain.AuditEntry{ID: "1", RunID: "Student_20240101T000000_abcd", Kind: domain.AuditPrompt, Content: "p", Timestamp: time.Now()}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	data, err := os.ReadFile(filepath.Join(dir, "Student_20240101T000000_abcd.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"prompt"`)

	runs, err := sink.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Student_20240101T000000_abcd"}, runs)
}

func TestAuditSink_RejectsBadRunIDs(t *testing.T) {
	sink := file.NewAuditSink(t.TempDir())
	ctx := context.Background()

	assert.Error(t, sink.Append(ctx, domain.AuditEntry{}))
	assert.Error(t, sink.Append(ctx, domain.AuditEntry{RunID: "../escape"}))
}

func TestAuditSink_MissingDirectory(t *testing.T) {
	sink := file.NewAuditSink(filepath.Join(t.TempDir(), "nope"))
	runs, err := sink.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = sink.Entries(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
