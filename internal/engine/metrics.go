package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts worker cycles per worker name.
type Metrics struct {
	Cycles        *prometheus.CounterVec
	CycleErrors   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voucherd",
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Completed worker cycles.",
		}, []string{"worker"}),
		CycleErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voucherd",
			Subsystem: "engine",
			Name:      "cycle_errors_total",
			Help:      "Worker cycles that ended with an error or panic.",
		}, []string{"worker"}),
		CycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voucherd",
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of worker cycles.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"worker"}),
	}
}
