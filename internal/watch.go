package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/brouwer-lang/brouwer/internal/types"
)

// ReportFunc receives the outcome of re-checking a changed file. err is set
// only when the file could not be read.
type ReportFunc func(filename string, diags []tt.Diagnostic, err error)

var errNotWatching = errors.New("not watching")

// StartWatching re-checks source files under dirs whenever they are written
// and passes each result to report.
func (e *Engine) StartWatching(report ReportFunc, dirs ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isWatching {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := e.addTree(watcher, dir); err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.watchDirs = dirs
	e.report = report
	e.done = make(chan struct{})
	e.isWatching = true
	go e.watchLoop(watcher, e.done)

	e.logger.Info("watching", zap.Strings("dirs", dirs))
	return nil
}

// StopWatching closes the watcher and waits for the event loop to finish.
func (e *Engine) StopWatching() error {
	e.mu.Lock()
	if !e.isWatching {
		e.mu.Unlock()
		return errNotWatching
	}
	e.isWatching = false
	watcher, done := e.watcher, e.done
	e.mu.Unlock()

	err := watcher.Close()
	<-done
	return err
}

// IsWatching reports whether the event loop is running.
func (e *Engine) IsWatching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isWatching
}

func (e *Engine) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && e.IsIgnored(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if e.IsIgnored(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		if err := e.addTree(watcher, event.Name); err == nil {
			e.logger.Debug("watching new directory", zap.String("dir", event.Name))
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !e.HasSourceExtension(event.Name) {
		return
	}

	// editors often write a file in several steps
	time.Sleep(e.settle)

	diags, err := e.Run(event.Name)
	if err != nil {
		e.logger.Error("error checking file", zap.String("file", event.Name), zap.Error(err))
	}
	e.reportDiagnostics(event.Name, diags, err)
}

func (e *Engine) reportDiagnostics(filename string, diags []tt.Diagnostic, err error) {
	if e.report != nil {
		e.report(filename, diags, err)
		return
	}
	if err != nil {
		return
	}
	if len(diags) == 0 {
		e.logger.Info("no problems found", zap.String("file", filename))
		return
	}
	for _, d := range diags {
		e.logger.Warn(d.Message,
			zap.String("file", filename),
			zap.Stringer("kind", d.Kind),
			zap.Stringer("pos", d.Start))
	}
}
