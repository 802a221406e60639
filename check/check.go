// Package check parses brouwer source trees and collects the diagnostics
// of every file that does not parse.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/internal"
	tt "github.com/brouwer-lang/brouwer/internal/types"
	"github.com/brouwer-lang/brouwer/scanner"
)

// Checker parses single files or sources. *internal.Engine implements it.
type Checker interface {
	Run(filePath string) ([]tt.Diagnostic, error)
	RunSource(source []byte) ([]tt.Diagnostic, error)
	IgnorePath(path string)
	IsIgnored(path string) bool
	Extensions() []string
	HasSourceExtension(path string) bool
}

// Processor checks one file with a Checker.
type Processor func(Checker, string) ([]tt.Diagnostic, error)

// New builds an engine for the project at rootDir, configured from the
// file at configPath. A missing configuration file yields the defaults.
// extra options are applied after the configured ones.
func New(rootDir, configPath string, logger *zap.Logger, extra ...internal.EngineOption) (*internal.Engine, Config, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, config, err
	}

	opts := []internal.EngineOption{
		internal.WithLogger(logger),
		internal.WithExtensions(config.Extensions...),
	}
	if config.Cache.Enabled {
		dir := config.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(rootDir, dir)
		}
		var deps []string
		if configPath != "" {
			deps = append(deps, configPath)
		}
		cache, err := internal.NewCache(dir, deps...)
		if err != nil {
			return nil, config, err
		}
		opts = append(opts, internal.WithCache(cache))
	}
	opts = append(opts, extra...)

	engine, err := internal.NewEngine(rootDir, opts...)
	if err != nil {
		return nil, config, err
	}
	for _, path := range config.Ignore {
		engine.IgnorePath(path)
	}
	return engine, config, nil
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	checker Checker,
	sources [][]byte,
	processor func(Checker, []byte) ([]tt.Diagnostic, error),
) ([]tt.Diagnostic, error) {
	logger = orNop(logger)
	var all []tt.Diagnostic
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		diags, err := processor(checker, source)
		if err != nil {
			logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			return nil, err
		}
		all = append(all, diags...)
	}

	return all, nil
}

// ProcessFiles runs ProcessPath over each path in turn.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	checker Checker,
	paths []string,
	progress io.Writer,
	processor Processor,
) ([]tt.Diagnostic, error) {
	logger = orNop(logger)
	var all []tt.Diagnostic
	for _, path := range paths {
		diags, err := ProcessPath(ctx, logger, checker, path, progress, processor)
		all = append(all, diags...)
		if err != nil {
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			return all, err
		}
	}

	return all, nil
}

// ProcessPath checks path, or every source file below it when it is a
// directory. Files are checked concurrently by up to runtime.NumCPU()
// workers, with a progress bar written to progress. Diagnostics come back
// in file order. A file that cannot be read yields an io diagnostic.
// Cancelling ctx stops scheduling new files; the diagnostics gathered so
// far are returned with ctx.Err().
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	checker Checker,
	path string,
	progress io.Writer,
	processor Processor,
) ([]tt.Diagnostic, error) {
	logger = orNop(logger)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !checker.HasSourceExtension(path) {
			logger.Debug("skipping non-source file", zap.String("file", path))
			return nil, nil
		}
		return processOne(logger, checker, path, processor), nil
	}

	files, err := scanner.New(path, checker.Extensions()...).Skip(checker.IsIgnored).Paths()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	results := make([][]tt.Diagnostic, len(files))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

schedule:
	for i, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = processOne(logger, checker, fp, processor)
			_ = bar.Add(1)
		}(i, filePath)
	}
	wg.Wait()

	diags := make([]tt.Diagnostic, 0, len(files))
	for _, r := range results {
		diags = append(diags, r...)
	}
	return diags, ctx.Err()
}

func processOne(logger *zap.Logger, checker Checker, path string, processor Processor) []tt.Diagnostic {
	diags, err := processor(checker, path)
	if err != nil {
		logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
		return []tt.Diagnostic{internal.IOFailure(path, err)}
	}
	return diags
}

func ProcessFile(checker Checker, filePath string) ([]tt.Diagnostic, error) {
	return checker.Run(filePath)
}

func ProcessSource(checker Checker, source []byte) ([]tt.Diagnostic, error) {
	return checker.RunSource(source)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
