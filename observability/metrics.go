package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tmikov/c99/diag"
)

// Metrics of one driver run. Each Metrics owns its registry so runs and
// tests do not share counters.
type Metrics struct {
	Registry *prometheus.Registry

	FilesTotal        prometheus.Counter
	FileErrorsTotal   prometheus.Counter
	DeclarationsTotal prometheus.Counter
	DiagnosticsTotal  *prometheus.CounterVec
	ParseDuration     prometheus.Histogram
	WatchEventsTotal  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FilesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "c99_files_total",
			Help: "Total number of translation units parsed.",
		}),
		FileErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "c99_file_errors_total",
			Help: "Total number of files that could not be read or tokenized.",
		}),
		DeclarationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "c99_declarations_total",
			Help: "Total number of external declarations and function definitions.",
		}),
		DiagnosticsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "c99_diagnostics_total",
			Help: "Total number of diagnostics by kind and severity.",
		}, []string{"kind", "severity"}),
		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "c99_parse_seconds",
			Help:    "Time spent parsing a translation unit.",
			Buckets: prometheus.DefBuckets,
		}),
		WatchEventsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "c99_watch_events_total",
			Help: "Total number of change batches handled in watch mode.",
		}),
	}
}

// ObserveFile records the outcome of parsing one file.
func (m *Metrics) ObserveFile(decls int, ds []diag.Diagnostic, elapsed time.Duration) {
	m.FilesTotal.Inc()
	m.DeclarationsTotal.Add(float64(decls))
	for _, d := range ds {
		m.DiagnosticsTotal.WithLabelValues(d.Kind.String(), d.Severity.String()).Inc()
	}
	m.ParseDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
