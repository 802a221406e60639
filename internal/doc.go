// Package internal drives the brouwer parser over files on disk.
//
// Engine: parses one file or in-memory source and turns a *parser.SyntaxError
// or *parser.InternalError into a types.Diagnostic. Only a file that cannot
// be opened or read is returned as an error. Paths can be excluded with
// IgnorePath; exclusion covers everything below the path.
//
// Cache: remembers the diagnostics of each file, keyed by content hash and
// modification time, so unchanged files are not parsed again.
//
// Watching: StartWatching re-checks source files on write events and hands
// each result to a callback until StopWatching is called.
//
// Metrics: Prometheus counters of checked files, cache hits and diagnostics
// by kind, plus a parse duration histogram, recorded by Run when the engine
// is built WithMetrics.
//
// SourceCode: the lines of a file, used when rendering diagnostics.
//
// Usage:
//
//	engine, err := internal.NewEngine("path/to/root/dir", internal.WithLogger(logger))
//	if err != nil {
//	    // handle error
//	}
//	diags, err := engine.Run("path/to/file.bw")
//	if err != nil {
//	    // file could not be read
//	}
//	for _, d := range diags {
//	    fmt.Println(d)
//	}
package internal
