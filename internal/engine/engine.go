// Package engine runs the reconciliation workers: sync, active-monitor and
// expiry-check, each on its own cadence against the device gateway and the
// store.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkarlovs/voucherd/internal/logging"
)

// Engine owns the worker goroutines. Workers run independently and may
// interleave arbitrarily; only the billing recorder serializes across them.
type Engine struct {
	log     logging.Logger
	metrics *Metrics
	workers []*worker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(log logging.Logger, metrics *Metrics) *Engine {
	return &Engine{log: log, metrics: metrics}
}

// Register adds a task to run every interval. Must be called before Start.
func (e *Engine) Register(t Task, interval time.Duration) {
	e.workers = append(e.workers, &worker{
		task:     t,
		interval: interval,
		log:      e.log,
		metrics:  e.metrics,
	})
}

// Start launches all registered workers. Each runs its first cycle
// immediately.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	var wg sync.WaitGroup
	for _, w := range e.workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			e.log.Info(runCtx, "worker started", "worker", w.task.Name(), "interval", w.interval.String())
			w.loop(runCtx)
		}(w)
	}

	done := e.done
	go func() {
		wg.Wait()
		close(done)
	}()
}

// Stop signals all workers and waits for them to acknowledge, bounded by
// ctx. A worker stuck in a device call can outlive the deadline; the error
// reports that without blocking shutdown forever.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine stop: %w", ctx.Err())
	}
}
