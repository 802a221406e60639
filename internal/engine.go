package internal

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/internal/parser"
	"github.com/brouwer-lang/brouwer/internal/tree"
	"github.com/brouwer-lang/brouwer/internal/trie"
	tt "github.com/brouwer-lang/brouwer/internal/types"
	"github.com/brouwer-lang/brouwer/scanner"
)

// Engine parses brouwer sources and reports failures as diagnostics.
// Run and RunSource are safe for concurrent use.
type Engine struct {
	logger     *zap.Logger
	rootDir    string
	extensions []string
	ignored    *trie.Trie
	cache      *Cache
	metrics    *Metrics

	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	watchDirs  []string
	isWatching bool
	settle     time.Duration
	report     ReportFunc
	done       chan struct{}
}

type EngineOption func(*Engine)

// WithLogger sets the engine logger. The parser traces through it too.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExtensions sets the file extensions treated as sources.
func WithExtensions(exts ...string) EngineOption {
	return func(e *Engine) {
		if len(exts) > 0 {
			e.extensions = exts
		}
	}
}

// WithCache makes Run consult and fill cache.
func WithCache(cache *Cache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithMetrics makes Run record counts and parse durations in metrics.
func WithMetrics(metrics *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// Metrics returns the engine metrics, or nil when none are recorded.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// NewEngine creates an engine for the project rooted at rootDir.
func NewEngine(rootDir string, opts ...EngineOption) (*Engine, error) {
	if rootDir == "" {
		rootDir = "."
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve root directory: %w", err)
	}

	engine := &Engine{
		logger:     zap.NewNop(),
		rootDir:    abs,
		extensions: []string{scanner.DefaultExtension},
		ignored:    trie.New(),
		settle:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Run parses the named file. Malformed input yields diagnostics; only a
// file that cannot be opened or read yields an error.
func (e *Engine) Run(filename string) ([]tt.Diagnostic, error) {
	if e.cache != nil {
		if diags, ok := e.cache.Get(filename); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			e.metrics.observeCacheHit(diags)
			return diags, nil
		}
	}

	start := time.Now()
	_, diags, err := e.Parse(filename)
	if err != nil {
		e.metrics.ObserveIOFailure()
		return nil, err
	}
	e.metrics.observeParse(time.Since(start), diags)

	if e.cache != nil {
		if err := e.cache.Set(filename, diags); err != nil {
			e.logger.Warn("failed to update cache", zap.String("file", filename), zap.Error(err))
		}
	}
	return diags, nil
}

// RunSource parses source held in memory.
func (e *Engine) RunSource(source []byte) ([]tt.Diagnostic, error) {
	_, diags, err := e.ParseSource("", source)
	return diags, err
}

// Parse parses the named file and returns its tree, or the diagnostics
// explaining why there is none.
func (e *Engine) Parse(filename string) (*tree.Node, []tt.Diagnostic, error) {
	root, err := parser.ParseFile(filename, parser.WithLogger(e.logger))
	return e.result(filename, root, err)
}

// ParseSource is Parse for in-memory source; filename only labels
// diagnostics.
func (e *Engine) ParseSource(filename string, source []byte) (*tree.Node, []tt.Diagnostic, error) {
	p := parser.New(bytes.NewReader(source), parser.WithLogger(e.logger), parser.WithFilename(filename))
	root, err := p.Parse()
	return e.result(filename, root, err)
}

func (e *Engine) result(filename string, root *tree.Node, err error) (*tree.Node, []tt.Diagnostic, error) {
	if err == nil {
		return root, nil, nil
	}
	diag, ok := Diagnose(filename, err)
	if !ok {
		e.logger.Error("cannot parse file", zap.String("file", filename), zap.Error(err))
		return nil, nil, err
	}
	e.logger.Debug("parse failed",
		zap.String("file", filename),
		zap.Stringer("kind", diag.Kind),
		zap.String("message", diag.Message))
	return nil, []tt.Diagnostic{diag}, nil
}

// Diagnose converts a parser failure into a diagnostic. It reports false
// for errors that are not about the source text.
func Diagnose(filename string, err error) (tt.Diagnostic, bool) {
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		pos := tt.Position{Line: se.Pos.Line, Column: se.Pos.Column}
		return tt.Diagnostic{
			Kind:     tt.KindSyntax,
			Filename: filename,
			Message:  se.Msg,
			Start:    pos,
			End:      pos,
		}, true
	}
	var ie *parser.InternalError
	if errors.As(err, &ie) {
		return tt.Diagnostic{
			Kind:     tt.KindInternal,
			Filename: filename,
			Message:  ie.Msg,
		}, true
	}
	return tt.Diagnostic{}, false
}

// IOFailure describes a file that could not be read.
func IOFailure(filename string, err error) tt.Diagnostic {
	return tt.Diagnostic{
		Kind:     tt.KindIO,
		Filename: filename,
		Message:  err.Error(),
	}
}

// IgnorePath excludes path, and everything below it, from checking.
// Relative paths are taken from the root directory.
func (e *Engine) IgnorePath(path string) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.rootDir, path)
	}
	e.ignored.InsertPath(e.relative(path))
}

// IsIgnored reports whether path lies under an ignored path. Relative
// paths are taken from the working directory.
func (e *Engine) IsIgnored(path string) bool {
	return e.ignored.MatchPath(e.relative(path))
}

// Extensions returns the source file extensions.
func (e *Engine) Extensions() []string {
	return e.extensions
}

// HasSourceExtension reports whether path names a source file.
func (e *Engine) HasSourceExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range e.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (e *Engine) relative(path string) string {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		path = abs
	}
	rel, err := filepath.Rel(e.rootDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
