package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brouwer-lang/brouwer/check"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const (
	goodSource = "module Main\nfn main args -> Unit\n  print \"hi\"\n"
	badSource  = "module Main\nx = (1,)\n"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type project struct {
	dir    string
	config string
}

func newProject(t *testing.T, files map[string]string) project {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return project{dir: dir, config: filepath.Join(dir, check.DefaultConfigFile)}
}

func (p project) path(name string) string {
	return filepath.Join(p.dir, name)
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&options{logger: zap.NewNop()})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestParseCommand(t *testing.T) {
	p := newProject(t, map[string]string{
		"good.bw": goodSource,
		"bad.bw":  badSource,
	})

	t.Run("sexpr", func(t *testing.T) {
		out, _, err := execute(context.Background(), "parse", "--config", p.config, "--format", "sexpr", p.path("good.bw"))
		require.NoError(t, err)
		assert.Contains(t, out, "(root (prog (modDecl")
		assert.Contains(t, out, `(fnDecl`)
	})

	t.Run("outline from config default", func(t *testing.T) {
		out, _, err := execute(context.Background(), "parse", "--config", p.config, p.path("good.bw"))
		require.NoError(t, err)
		assert.Contains(t, out, "└─ prog")
		assert.Contains(t, out, `ident "Main"`)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(context.Background(), "parse", "--config", p.config, "-f", "json", p.path("good.bw"))
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "root", decoded["tag"])
	})

	t.Run("syntax error", func(t *testing.T) {
		out, errOut, err := execute(context.Background(), "parse", "--config", p.config, p.path("good.bw"), p.path("bad.bw"))
		require.Error(t, err)
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.True(t, Silent(err))
		assert.Contains(t, out, "good.bw:")
		assert.Contains(t, errOut, p.path("bad.bw")+":2:8")
		assert.Contains(t, errOut, "= expected 0 or at least 2 elements in tuple")
	})

	t.Run("missing file", func(t *testing.T) {
		_, errOut, err := execute(context.Background(), "parse", "--config", p.config, p.path("missing.bw"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.Contains(t, errOut, "io error")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(context.Background(), "parse", "--config", p.config, "-f", "xml", p.path("good.bw"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.False(t, Silent(err))
	})

	t.Run("no arguments", func(t *testing.T) {
		_, _, err := execute(context.Background(), "parse")
		assert.Error(t, err)
	})
}

func TestCheckCommand(t *testing.T) {
	p := newProject(t, map[string]string{
		"src/good.bw":    goodSource,
		"src/bad.bw":     badSource,
		"vendor/junk.bw": "junk",
		"clean/only.bw":  goodSource,
	})

	t.Run("reports failures", func(t *testing.T) {
		out, _, err := execute(context.Background(), "check", "--config", p.config, "--no-progress",
			"--ignore-paths", p.path("vendor"), p.dir)
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.Contains(t, out, p.path("src/bad.bw")+":2:8")
		assert.Contains(t, out, "2 | x = (1,)")
		assert.NotContains(t, out, "junk")
	})

	t.Run("clean tree", func(t *testing.T) {
		out, _, err := execute(context.Background(), "check", "--config", p.config, "--no-progress", p.path("clean"))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("root behaves as check", func(t *testing.T) {
		out, _, err := execute(context.Background(), "--config", p.config, p.path("src/bad.bw"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.Contains(t, out, "expected 0 or at least 2 elements in tuple")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(context.Background(), "check", "--config", p.config, "--json", p.path("src"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		var byFile map[string][]tt.Diagnostic
		require.NoError(t, json.Unmarshal([]byte(out), &byFile))
		require.Len(t, byFile[p.path("src/bad.bw")], 1)
		assert.Equal(t, tt.Position{Line: 2, Column: 8}, byFile[p.path("src/bad.bw")][0].Start)
	})

	t.Run("json to file", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "report.json")
		_, _, err := execute(context.Background(), "check", "--config", p.config, "--json", "-o", outFile, p.path("src"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		data, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "expected 0 or at least 2 elements in tuple")
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := execute(context.Background(), "check", "--config", p.config, p.path("nowhere"))
		assert.Equal(t, ExitFailure, ExitCode(err))
		assert.False(t, Silent(err))
	})

	t.Run("broken config", func(t *testing.T) {
		broken := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(broken, []byte("output:\n  format: xml\n"), 0o644))
		_, _, err := execute(context.Background(), "check", "--config", broken, p.path("clean"))
		assert.Equal(t, ExitFailure, ExitCode(err))
	})
}

func TestInitCommand(t *testing.T) {
	config := filepath.Join(t.TempDir(), check.DefaultConfigFile)

	out, _, err := execute(context.Background(), "init", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created")

	loaded, err := check.LoadConfig(config)
	require.NoError(t, err)
	assert.Equal(t, check.DefaultConfig(), loaded)

	_, _, err = execute(context.Background(), "init", "--config", config)
	assert.Equal(t, ExitFailure, ExitCode(err))

	_, _, err = execute(context.Background(), "init", "--config", config, "--force")
	assert.NoError(t, err)

	tomlConfig := filepath.Join(t.TempDir(), ".brouwer.toml")
	_, _, err = execute(context.Background(), "init", "--config", tomlConfig)
	require.NoError(t, err)
	data, err := os.ReadFile(tomlConfig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `name = "brouwer"`)
}

func TestWatchCommand(t *testing.T) {
	p := newProject(t, map[string]string{"main.bw": goodSource})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	root := newRootCmd(&options{logger: zap.NewNop()})
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"watch", "--config", p.config, p.dir})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	bad := p.path("main.bw")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(bad, []byte(badSource), 0o644)
		return bytes.Contains([]byte(out.String()), []byte("expected 0 or at least 2 elements in tuple"))
	}, 10*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchServesMetrics(t *testing.T) {
	p := newProject(t, map[string]string{"main.bw": goodSource})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	root := newRootCmd(&options{logger: zap.NewNop()})
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"watch", "--config", p.config, "--metrics-addr", "127.0.0.1:0", p.dir})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	var url string
	require.Eventually(t, func() bool {
		for _, line := range strings.Split(out.String(), "\n") {
			if after, ok := strings.CutPrefix(line, "metrics: "); ok {
				url = after
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "brouwer_files_checked_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRunWithTimeout(t *testing.T) {
	o := &options{timeout: 10 * time.Millisecond}

	block := make(chan struct{})
	defer close(block)
	err := o.runWithTimeout(context.Background(), func(ctx context.Context) error {
		<-block
		return nil
	})
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "timed out")

	o.timeout = time.Minute
	err = o.runWithTimeout(context.Background(), func(ctx context.Context) error {
		return errors.New("inner")
	})
	assert.EqualError(t, err, "inner")

	assert.PanicsWithValue(t, "boom", func() {
		_ = o.runWithTimeout(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("x")))
	assert.Equal(t, ExitInternal, ExitCode(&ExitError{Code: ExitInternal}))
	assert.Equal(t, "exit status 2", (&ExitError{Code: ExitInternal}).Error())

	wrapped := &ExitError{Code: ExitFailure, Err: context.Canceled}
	assert.ErrorIs(t, wrapped, context.Canceled)
	assert.False(t, Silent(wrapped))

	assert.NoError(t, diagnosticsError(nil))
	assert.Equal(t, ExitFailure, ExitCode(diagnosticsError([]tt.Diagnostic{{Kind: tt.KindSyntax}})))
	assert.Equal(t, ExitFailure, ExitCode(diagnosticsError([]tt.Diagnostic{{Kind: tt.KindIO}})))
	assert.Equal(t, ExitInternal, ExitCode(diagnosticsError([]tt.Diagnostic{
		{Kind: tt.KindSyntax},
		{Kind: tt.KindInternal},
	})))
}
