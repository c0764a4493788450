package storex

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/dkarlovs/voucherd/internal/logging"
)

// slowThreshold is the wall-clock duration above which a statement is
// logged as slow. Slow statements are a visibility signal, not a failure.
const slowThreshold = time.Second

// retryBaseDelay is the linear backoff unit between transient retries
// (first retry waits 1x, second 2x, ...).
const retryBaseDelay = 100 * time.Millisecond

// Executor runs statements and batches against pooled connections. Every
// call acquires a connection, runs inside a transaction, and commits or
// rolls back before returning. Transient connection errors are retried up
// to the configured count with linear backoff; server-reported errors
// (syntax, constraint violations) are rolled back and propagated
// immediately.
type Executor struct {
	pool    *Pool
	log     logging.Logger
	metrics *Metrics
	retries int
}

func NewExecutor(pool *Pool, retries int, log logging.Logger, metrics *Metrics) *Executor {
	if retries < 0 {
		retries = 0
	}
	return &Executor{pool: pool, log: log, metrics: metrics, retries: retries}
}

// Exec runs a single statement and returns the number of rows affected.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := e.withTx(ctx, query, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// SendBatch runs all queued statements of the batch in one transaction.
func (e *Executor) SendBatch(ctx context.Context, batch *pgx.Batch) error {
	return e.withTx(ctx, "batch", func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

// QueryOne runs a query expected to return at most one row and maps it with
// fn. It returns pgx.ErrNoRows when the result set is empty; repositories
// translate that into their not-found sentinel.
func QueryOne[T any](ctx context.Context, e *Executor, query string, args []any, fn pgx.RowToFunc[T]) (T, error) {
	var out T
	err := e.withTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, fn)
		return err
	})
	return out, err
}

// QueryAll runs a query and maps every row with fn.
func QueryAll[T any](ctx context.Context, e *Executor, query string, args []any, fn pgx.RowToFunc[T]) ([]T, error) {
	var out []T
	err := e.withTx(ctx, query, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, fn)
		return err
	})
	return out, err
}

func (e *Executor) withTx(ctx context.Context, label string, fn func(tx pgx.Tx) error) error {
	attempt := 0
	err := retry.Do(ctx, retry.WithMaxRetries(uint64(e.retries), linearBackoff(retryBaseDelay)), func(ctx context.Context) error {
		attempt++
		err := e.runOnce(ctx, label, fn)
		if err != nil && isTransient(err) {
			e.metrics.QueryRetries.Inc()
			e.log.Warn(ctx, "transient store error", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		e.metrics.QueryErrors.Inc()
	}
	return err
}

func (e *Executor) runOnce(ctx context.Context, label string, fn func(tx pgx.Tx) error) error {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Release(ctx, conn)

	start := time.Now()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	elapsed := time.Since(start)
	e.metrics.Queries.Inc()
	e.metrics.QueryDuration.Observe(elapsed.Seconds())
	if elapsed > slowThreshold {
		e.metrics.SlowQueries.Inc()
		e.log.Warn(ctx, "slow statement", "elapsed", elapsed.String(), "query", truncate(label, 100))
	}
	return nil
}

// isTransient classifies errors worth retrying on a fresh connection.
// Anything the server actually answered (pgconn.PgError) is not transient:
// retrying a syntax or constraint error cannot help.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func linearBackoff(base time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
