package storex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the pool and executor instrumentation.
type Metrics struct {
	ConnsOpen      prometheus.Gauge
	ConnsCreated   prometheus.Counter
	ConnsDiscarded prometheus.Counter

	Queries       prometheus.Counter
	QueryErrors   prometheus.Counter
	QueryRetries  prometheus.Counter
	SlowQueries   prometheus.Counter
	QueryDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConnsOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "connections_open",
			Help: "Store connections currently open.",
		}),
		ConnsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "connections_created_total",
			Help: "Store connections dialed since start.",
		}),
		ConnsDiscarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "connections_discarded_total",
			Help: "Store connections discarded after a failed health probe.",
		}),
		Queries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "queries_total",
			Help: "Statements and batches executed.",
		}),
		QueryErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "query_errors_total",
			Help: "Statements and batches that failed after retries.",
		}),
		QueryRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "query_retries_total",
			Help: "Retries of transiently failed statements.",
		}),
		SlowQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name: "slow_queries_total",
			Help: "Statements slower than the slow-query threshold.",
		}),
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voucherd", Subsystem: "store",
			Name:    "query_duration_seconds",
			Help:    "Wall-clock statement duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
