package internal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/brouwer-lang/brouwer/internal/types"
)

type reportRecorder struct {
	mu      sync.Mutex
	reports map[string][]tt.Diagnostic
}

func (r *reportRecorder) record(filename string, diags []tt.Diagnostic, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports == nil {
		r.reports = make(map[string][]tt.Diagnostic)
	}
	r.reports[filename] = diags
}

func (r *reportRecorder) get(filename string) ([]tt.Diagnostic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	diags, ok := r.reports[filename]
	return diags, ok
}

func TestWatchReportsChangedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	engine, err := NewEngine(dir)
	require.NoError(t, err)
	engine.settle = time.Millisecond
	engine.IgnorePath("skipped")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skipped"), 0o755))

	rec := &reportRecorder{}
	require.NoError(t, engine.StartWatching(rec.record, dir))
	assert.True(t, engine.IsWatching())
	assert.Error(t, engine.StartWatching(rec.record, dir))

	bad := writeSource(t, dir, "bad.bw", "module Main\nx = (1,)\n")
	notes := writeSource(t, dir, "notes.txt", "not a source file")
	skipped := writeSource(t, dir, "skipped/x.bw", "oops")

	require.Eventually(t, func() bool {
		diags, ok := rec.get(bad)
		return ok && len(diags) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, ok := rec.get(notes)
	assert.False(t, ok)
	_, ok = rec.get(skipped)
	assert.False(t, ok)

	require.NoError(t, engine.StopWatching())
	assert.False(t, engine.IsWatching())
	assert.ErrorIs(t, engine.StopWatching(), errNotWatching)
}

func TestWatchMissingDirectory(t *testing.T) {
	t.Parallel()
	engine, err := NewEngine(t.TempDir())
	require.NoError(t, err)

	err = engine.StartWatching(nil, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.False(t, engine.IsWatching())
}
