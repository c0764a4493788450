package engine

import (
	"context"
	"errors"
	"time"

	"github.com/dkarlovs/voucherd/internal/logging"
)

// Task is one reconciliation pass. Run is called repeatedly on the owning
// worker's cadence; a returned error fails the cycle, not the worker.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type worker struct {
	task     Task
	interval time.Duration
	log      logging.Logger
	metrics  *Metrics
}

// loop runs the task once immediately, then on every tick until ctx is
// canceled. Each iteration is isolated: errors and panics are logged and
// counted, never propagated.
func (w *worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx)
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "worker stopped", "worker", w.task.Name())
			return
		case <-ticker.C:
		}
	}
}

func (w *worker) runOnce(ctx context.Context) {
	name := w.task.Name()
	defer func() {
		if r := recover(); r != nil {
			w.metrics.CycleErrors.WithLabelValues(name).Inc()
			w.log.Error(ctx, "worker cycle panicked", "worker", name, "panic", r)
		}
	}()

	start := time.Now()
	if err := w.task.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.metrics.CycleErrors.WithLabelValues(name).Inc()
		w.log.Error(ctx, "worker cycle failed", "worker", name, "error", err)
		return
	}

	w.metrics.Cycles.WithLabelValues(name).Inc()
	w.metrics.CycleDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
