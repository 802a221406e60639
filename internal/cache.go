package internal

import (
	"crypto/md5"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const cacheFileName = "parse_cache.gob"

// fingerprint identifies one version of a source file.
type fingerprint struct {
	Hash    string
	ModTime int64
}

// CacheEntry is the recorded outcome of checking one file; no diagnostics
// means it parsed.
type CacheEntry struct {
	Source      fingerprint
	Diagnostics []tt.Diagnostic
	CreatedAt   time.Time
}

// cacheFile is the on-disk layout.
type cacheFile struct {
	Results map[string]CacheEntry
	Deps    map[string]string
}

// Cache keeps parse results across runs. A result is reused while the
// source file is unchanged and every dependency file still hashes the same.
type Cache struct {
	dir    string
	maxAge time.Duration

	mu      sync.Mutex
	results map[string]CacheEntry
	deps    map[string]string // dependency path -> content hash
}

// NewCache opens the cache stored in dir, creating dir if needed. Results
// saved under different dependency contents are discarded.
func NewCache(dir string, deps ...string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	c := &Cache{
		dir:     dir,
		results: make(map[string]CacheEntry),
		deps:    make(map[string]string, len(deps)),
	}
	for _, dep := range deps {
		// A missing dependency hashes to "", so creating it later counts
		// as a change.
		c.deps[dep], _ = hashFile(dep)
	}

	stored, err := c.read()
	if err != nil {
		return nil, err
	}
	if stored.Results != nil && sameDeps(c.deps, stored.Deps) {
		c.results = stored.Results
	}
	return c, nil
}

// Dir returns the directory holding the cache file.
func (c *Cache) Dir() string {
	return c.dir
}

// SetMaxAge makes results older than d stale. Zero keeps them forever.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAge = d
}

// Get returns the recorded diagnostics for filename if they still apply.
func (c *Cache) Get(filename string) ([]tt.Diagnostic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.results[filename]
	if !ok {
		return nil, false
	}
	if !c.fresh(filename, entry) {
		delete(c.results, filename)
		return nil, false
	}
	return entry.Diagnostics, true
}

// Set records diags for filename and writes the cache file.
func (c *Cache) Set(filename string, diags []tt.Diagnostic) error {
	fp, err := fingerprintOf(filename)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[filename] = CacheEntry{
		Source:      fp,
		Diagnostics: diags,
		CreatedAt:   time.Now(),
	}
	return c.write()
}

// InvalidateAll forgets every result.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]CacheEntry)
	_ = c.write()
}

func (c *Cache) fresh(filename string, entry CacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return false
	}
	fp, err := fingerprintOf(filename)
	if err != nil || fp != entry.Source {
		return false
	}
	for dep, want := range c.deps {
		if got, _ := hashFile(dep); got != want {
			return false
		}
	}
	return true
}

func (c *Cache) path() string {
	return filepath.Join(c.dir, cacheFileName)
}

func (c *Cache) read() (cacheFile, error) {
	var stored cacheFile
	f, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return stored, nil
	}
	if err != nil {
		return stored, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&stored); err != nil {
		return stored, fmt.Errorf("decode cache file %s: %w", c.path(), err)
	}
	return stored, nil
}

func (c *Cache) write() error {
	f, err := os.Create(c.path())
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(cacheFile{Results: c.results, Deps: c.deps}); err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}
	return nil
}

func sameDeps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func fingerprintOf(filename string) (fingerprint, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return fingerprint{}, fmt.Errorf("stat source: %w", err)
	}
	hash, err := hashFile(filename)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{Hash: hash, ModTime: info.ModTime().UnixNano()}, nil
}

func hashFile(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", filename, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filename, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
