package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row results recorded by Metrics.
const (
	resultImported = "imported"
	resultError    = "error"
	resultSkipped  = "skipped"
)

// Run statuses recorded by Metrics.
const (
	runCompleted = "completed"
	runRejected  = "rejected" // file could not be decoded
	runFailed    = "failed"   // category pre-fetch failed
)

// Metrics holds Prometheus instruments for catalog imports. A nil *Metrics
// records nothing.
type Metrics struct {
	rows              *prometheus.CounterVec
	runs              *prometheus.CounterVec
	categoriesCreated prometheus.Counter
	duration          prometheus.Histogram
}

// NewMetrics creates the import metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Spreadsheet rows processed by outcome.",
		}, []string{"result"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Import runs by final status.",
		}, []string{"status"}),
		categoriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "import",
			Name:      "categories_created_total",
			Help:      "Categories created while importing.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Wall time of completed import runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) row(result string) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(result).Inc()
}

func (m *Metrics) categoryCreated() {
	if m == nil {
		return
	}
	m.categoriesCreated.Inc()
}

func (m *Metrics) run(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	if status == runCompleted {
		m.duration.Observe(elapsed.Seconds())
	}
}
