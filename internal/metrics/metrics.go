// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksScheduledTotal   *prometheus.CounterVec
	tasksRescheduledTotal *prometheus.CounterVec
	tasksRevokedTotal     *prometheus.CounterVec
	tasksFiredTotal       *prometheus.CounterVec
	lifecycleSignalsTotal *prometheus.CounterVec
	racesCanceledTotal    prometheus.Counter
	crawlDurationSeconds  *prometheus.HistogramVec
	racersRetiredTotal    prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		tasksScheduledTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boatrace_tasks_scheduled_total",
				Help: "Total number of crawl tasks submitted to the registry, labeled by kind.",
			},
			[]string{"kind"},
		)

		tasksRescheduledTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boatrace_tasks_rescheduled_total",
				Help: "Total number of crawl tasks re-submitted after a deadline change, labeled by kind.",
			},
			[]string{"kind"},
		)

		tasksRevokedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boatrace_tasks_revoked_total",
				Help: "Total number of revoke calls issued, labeled by kind.",
			},
			[]string{"kind"},
		)

		tasksFiredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boatrace_tasks_fired_total",
				Help: "Total number of tasks fired by the registry, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		lifecycleSignalsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boatrace_lifecycle_signals_total",
				Help: "Total number of lifecycle signals handled, labeled by signal.",
			},
			[]string{"signal"},
		)

		racesCanceledTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "boatrace_races_canceled_total",
				Help: "Total number of races marked canceled in the ledger.",
			},
		)

		crawlDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boatrace_crawl_duration_seconds",
				Help:    "Histogram of crawl task durations, labeled by kind.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"kind"},
		)

		racersRetiredTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "boatrace_racers_retired_total",
				Help: "Total number of racers marked retired by the backfill sweep.",
			},
		)
	})
}

// TaskScheduled increments the scheduled counter for a kind.
func TaskScheduled(kind string) {
	Init()
	tasksScheduledTotal.WithLabelValues(kind).Inc()
}

// TaskRescheduled increments the rescheduled counter for a kind.
func TaskRescheduled(kind string) {
	Init()
	tasksRescheduledTotal.WithLabelValues(kind).Inc()
}

// TaskRevoked increments the revoked counter for a kind.
func TaskRevoked(kind string) {
	Init()
	tasksRevokedTotal.WithLabelValues(kind).Inc()
}

// TaskFired increments the fired counter for a kind/outcome pair.
func TaskFired(kind, outcome string) {
	Init()
	tasksFiredTotal.WithLabelValues(kind, outcome).Inc()
}

// LifecycleSignal increments the signal counter.
func LifecycleSignal(signal string) {
	Init()
	lifecycleSignalsTotal.WithLabelValues(signal).Inc()
}

// RaceCanceled increments the canceled-races counter.
func RaceCanceled() {
	Init()
	racesCanceledTotal.Inc()
}

// ObserveCrawlDuration records a crawl task's duration.
func ObserveCrawlDuration(kind string, d time.Duration) {
	Init()
	crawlDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// RacerRetired increments the retired-racers counter.
func RacerRetired() {
	Init()
	racersRetiredTotal.Inc()
}
