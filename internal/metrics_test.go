package internal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordRuns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, ".cache"))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	engine, err := NewEngine(dir, WithMetrics(metrics), WithCache(cache))
	require.NoError(t, err)
	assert.Same(t, metrics, engine.Metrics())
	assert.Same(t, registry, metrics.Registry())

	good := writeSource(t, dir, "good.bw", validSource)
	bad := writeSource(t, dir, "bad.bw", "module Main\nx = (1,)\n")

	for _, path := range []string{good, bad, bad} {
		_, err := engine.Run(path)
		require.NoError(t, err)
	}
	_, err = engine.Run(filepath.Join(dir, "missing.bw"))
	require.Error(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.filesChecked))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.diagnostics.WithLabelValues("syntax error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.diagnostics.WithLabelValues("io error")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.parseDuration))
}

func TestMetricsNilIsNoop(t *testing.T) {
	t.Parallel()
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.observeParse(0, nil)
		metrics.observeCacheHit(nil)
		metrics.ObserveIOFailure()
	})

	engine, err := NewEngine(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, engine.Metrics())
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics(nil)
	metrics.ObserveIOFailure()

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "brouwer_files_checked_total 1")
	assert.Contains(t, string(body), `brouwer_diagnostics_total{kind="io error"} 1`)
}
