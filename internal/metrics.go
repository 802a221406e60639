package internal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const metricsNamespace = "brouwer"

// Metrics counts the files an Engine checks and how long parsing takes.
type Metrics struct {
	registry *prometheus.Registry

	filesChecked  prometheus.Counter
	cacheHits     prometheus.Counter
	diagnostics   *prometheus.CounterVec
	parseDuration prometheus.Histogram
}

// NewMetrics registers the engine metrics on registry. A nil registry
// gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		filesChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_checked_total",
			Help:      "Total number of source files checked",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Total number of checks answered from the result cache",
		}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "diagnostics_total",
			Help:      "Total number of diagnostics reported, by kind",
		}, []string{"kind"}),
		parseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one source file",
			// Source files parse in well under a second.
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

func (m *Metrics) observeParse(elapsed time.Duration, diags []tt.Diagnostic) {
	if m == nil {
		return
	}
	m.filesChecked.Inc()
	m.parseDuration.Observe(elapsed.Seconds())
	m.observeDiagnostics(diags)
}

func (m *Metrics) observeCacheHit(diags []tt.Diagnostic) {
	if m == nil {
		return
	}
	m.filesChecked.Inc()
	m.cacheHits.Inc()
	m.observeDiagnostics(diags)
}

func (m *Metrics) observeDiagnostics(diags []tt.Diagnostic) {
	for _, d := range diags {
		m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
}

// ObserveIOFailure records a file that could not be read.
func (m *Metrics) ObserveIOFailure() {
	if m == nil {
		return
	}
	m.filesChecked.Inc()
	m.diagnostics.WithLabelValues(tt.KindIO.String()).Inc()
}
