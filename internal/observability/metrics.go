package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	templatePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "template_service",
		Subsystem: "persistence",
		Name:      "last_template_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent template persisted to Postgres.",
	})
	classificationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "template_service",
		Subsystem: "classifier",
		Name:      "assignments_total",
		Help:      "Number of intensity assignments, labeled by resulting intensity.",
	}, []string{"intensity"})
	backfillChangedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "template_service",
		Subsystem: "backfill",
		Name:      "rows_changed_total",
		Help:      "Number of rows whose intensity changed during a backfill pass, labeled by new intensity.",
	}, []string{"intensity"})
	backfillLastRunGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "template_service",
		Subsystem: "backfill",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed backfill pass.",
	})
)

func init() {
	prometheus.MustRegister(templatePersistGauge, classificationCounter, backfillChangedCounter, backfillLastRunGauge)
}

// RecordTemplatePersisted updates the persistence watermark gauge.
func RecordTemplatePersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	templatePersistGauge.Set(float64(ts.Unix()))
}

// RecordClassification counts an intensity assignment.
func RecordClassification(label string) {
	classificationCounter.WithLabelValues(label).Inc()
}

// RecordBackfillChange counts a row rewritten by the backfill pass.
func RecordBackfillChange(label string) {
	backfillChangedCounter.WithLabelValues(label).Inc()
}

// RecordBackfillRun updates the backfill completion watermark.
func RecordBackfillRun(ts time.Time) {
	if ts.IsZero() {
		return
	}
	backfillLastRunGauge.Set(float64(ts.Unix()))
}
