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

func sampleDiagnostics(filename string) []tt.Diagnostic {
	return []tt.Diagnostic{{
		Kind:     tt.KindSyntax,
		Filename: filename,
		Message:  "expected newline after header",
		Start:    tt.Position{Line: 2, Column: 6},
		End:      tt.Position{Line: 2, Column: 6},
	}}
}

func TestCache(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := writeSource(t, tmpDir, "saved.bw", "module Main\nfn f = 1\n")
		diags := sampleDiagnostics(filename)

		require.NoError(t, cache.Set(filename, diags))

		loaded, found := cache.Get(filename)
		assert.True(t, found)
		assert.Equal(t, diags, loaded)

		reopened, err := NewCache(cache.Dir())
		require.NoError(t, err)
		loaded, found = reopened.Get(filename)
		assert.True(t, found)
		assert.Equal(t, diags, loaded)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.bw")
		assert.False(t, found)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := writeSource(t, tmpDir, "modified.bw", "module Main\n")
		require.NoError(t, cache.Set(filename, nil))

		require.NoError(t, os.WriteFile(filename, []byte("module Main\nx = 1\n"), 0o644))

		_, found := cache.Get(filename)
		assert.False(t, found)
	})

	t.Run("Expired", func(t *testing.T) {
		expiring, err := NewCache(filepath.Join(tmpDir, "expiring"))
		require.NoError(t, err)
		expiring.SetMaxAge(time.Nanosecond)

		filename := writeSource(t, tmpDir, "old.bw", "module Main\n")
		require.NoError(t, expiring.Set(filename, nil))
		time.Sleep(time.Millisecond)

		_, found := expiring.Get(filename)
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		filename := writeSource(t, tmpDir, "dropped.bw", "module Main\n")
		require.NoError(t, cache.Set(filename, nil))
		cache.InvalidateAll()

		_, found := cache.Get(filename)
		assert.False(t, found)
	})
}

func TestCacheDependencyChange(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	config := writeSource(t, tmpDir, ".brouwer.yaml", "name: a\n")
	source := writeSource(t, tmpDir, "main.bw", "module Main\n")

	cache, err := NewCache(filepath.Join(tmpDir, "cache"), config)
	require.NoError(t, err)
	require.NoError(t, cache.Set(source, nil))

	_, found := cache.Get(source)
	require.True(t, found)

	require.NoError(t, os.WriteFile(config, []byte("name: b\n"), 0o644))

	_, found = cache.Get(source)
	assert.False(t, found)

	reopened, err := NewCache(filepath.Join(tmpDir, "cache"), config)
	require.NoError(t, err)
	_, found = reopened.Get(source)
	assert.False(t, found)
}

func TestCacheWithEngine(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)
	engine, err := NewEngine(tmpDir, WithCache(cache))
	require.NoError(t, err)

	filename := writeSource(t, tmpDir, "cached.bw", "module Main\nx = (1,)\n")

	diags, err := engine.Run(filename)
	require.NoError(t, err)
	require.Len(t, diags, 1)

	cached, found := cache.Get(filename)
	require.True(t, found)
	assert.Equal(t, diags, cached)

	again, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Equal(t, diags, again)

	require.NoError(t, os.WriteFile(filename, []byte("module Main\nx = (1, 2)\n"), 0o644))
	fixed, err := engine.Run(filename)
	require.NoError(t, err)
	assert.Empty(t, fixed)
}

func TestCacheConcurrency(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := writeSource(t, tmpDir, "shared.bw", "module Main\n")
	diags := sampleDiagnostics(filename)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(filename, diags))
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(filename)
		}()
	}
	wg.Wait()

	loaded, found := cache.Get(filename)
	assert.True(t, found)
	assert.Equal(t, diags, loaded)
}

func TestCacheErrors(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)
	err = cache.Set(filepath.Join(tmpDir, "missing.bw"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	corrupt := filepath.Join(tmpDir, "corrupt")
	require.NoError(t, os.MkdirAll(corrupt, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, cacheFileName), []byte("not gob"), 0o644))
	_, err = NewCache(corrupt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cache file")
}
