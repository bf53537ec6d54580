// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scraperAttemptsTotal       *prometheus.CounterVec
	scraperRecordsTotal        prometheus.Counter
	scraperRecordsDroppedTotal prometheus.Counter
	scraperEscalationsTotal    prometheus.Counter
	scraperConfigDropsTotal    prometheus.Counter
	scraperPhaseDuration       *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		scraperAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_attempts_total",
				Help: "Extraction attempts, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)
		scraperRecordsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_records_total",
				Help: "Validated job records produced across runs.",
			},
		)
		scraperRecordsDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_records_dropped_total",
				Help: "Records dropped by validation (empty fields, bad links, duplicates).",
			},
		)
		scraperEscalationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_escalations_total",
				Help: "Generic-strategy sites escalated to the browser phase.",
			},
		)
		scraperConfigDropsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_config_drops_total",
				Help: "Targets dropped for configuration problems (unknown strategy, missing schema).",
			},
		)
		scraperPhaseDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_phase_duration_seconds",
				Help:    "Wall time per extraction phase.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"phase"},
		)
	})
}

// ObserveAttempt counts one extraction attempt.
func ObserveAttempt(strategy, outcome string) {
	if scraperAttemptsTotal == nil {
		return
	}
	scraperAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// AddRecords counts validated records.
func AddRecords(n int) {
	if scraperRecordsTotal == nil || n <= 0 {
		return
	}
	scraperRecordsTotal.Add(float64(n))
}

// AddDroppedRecords counts records rejected by validation.
func AddDroppedRecords(n int) {
	if scraperRecordsDroppedTotal == nil || n <= 0 {
		return
	}
	scraperRecordsDroppedTotal.Add(float64(n))
}

// AddEscalations counts sites promoted to the browser phase.
func AddEscalations(n int) {
	if scraperEscalationsTotal == nil || n <= 0 {
		return
	}
	scraperEscalationsTotal.Add(float64(n))
}

// AddConfigDrops counts targets dropped during routing.
func AddConfigDrops(n int) {
	if scraperConfigDropsTotal == nil || n <= 0 {
		return
	}
	scraperConfigDropsTotal.Add(float64(n))
}

// ObservePhaseDuration records wall time for one phase.
func ObservePhaseDuration(phase string, d time.Duration) {
	if scraperPhaseDuration == nil {
		return
	}
	scraperPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
