// Package storex provides the store access layer: a bounded pool of
// PostgreSQL connections with health-checked reuse, and a query executor
// that wraps every statement or batch in a committed transaction with
// bounded retries for transient connection failures.
package storex

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/dkarlovs/voucherd/internal/logging"
)

// ErrPoolClosed is returned by Acquire after Close has been called.
var ErrPoolClosed = errors.New("connection pool is closed")

// Conn is the subset of *pgx.Conn the pool and executor need. Keeping it
// small lets tests substitute mock connections.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// DialFunc creates a new store connection.
type DialFunc func(ctx context.Context) (Conn, error)

// PgxDialer returns a DialFunc that opens *pgx.Conn connections for the
// given DSN.
func PgxDialer(dsn string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		return pgx.Connect(ctx, dsn)
	}
}

// Pool is a bounded set of persistent-store connections. Connections are
// created lazily up to the configured maximum; when all are checked out,
// Acquire blocks until one is released or the context is done. On release a
// lightweight health probe decides whether the connection goes back to the
// free list or is discarded.
//
// The mutex guards only acquire/release bookkeeping; an acquired connection
// is used exclusively by its caller until released.
type Pool struct {
	dial    DialFunc
	log     logging.Logger
	metrics *Metrics

	// slots holds one token per checked-out connection; its capacity is
	// the pool's hard cap.
	slots chan struct{}

	mu     sync.Mutex
	free   []Conn
	closed bool
}

func NewPool(dial DialFunc, maxConns int, log logging.Logger, metrics *Metrics) *Pool {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Pool{
		dial:    dial,
		log:     log,
		metrics: metrics,
		slots:   make(chan struct{}, maxConns),
	}
}

// Acquire returns a healthy connection, dialing a new one if the free list
// is empty and the cap has not been reached. It blocks while the pool is at
// capacity.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.free); n > 0 {
		conn := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := p.dial(ctx)
	if err != nil {
		<-p.slots
		return nil, err
	}
	p.metrics.ConnsCreated.Inc()
	p.metrics.ConnsOpen.Inc()
	return conn, nil
}

// Release runs the health probe and returns the connection to the free
// list, or discards it so the next Acquire dials a replacement.
func (p *Pool) Release(ctx context.Context, conn Conn) {
	defer func() { <-p.slots }()

	if err := conn.Ping(ctx); err != nil {
		p.log.Warn(ctx, "discarding unhealthy connection", "error", err)
		p.discard(ctx, conn)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.discard(ctx, conn)
		return
	}
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

func (p *Pool) discard(ctx context.Context, conn Conn) {
	_ = conn.Close(ctx)
	p.metrics.ConnsDiscarded.Inc()
	p.metrics.ConnsOpen.Dec()
}

// Close marks the pool closed and closes all idle connections. Checked-out
// connections are closed as they are released.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	free := p.free
	p.free = nil
	p.mu.Unlock()

	for _, conn := range free {
		p.discard(ctx, conn)
	}
}
