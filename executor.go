package mediator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Work is the unit an async command handler hands to an Executor.
type Work func(ctx context.Context) ([]Event, error)

// Executor runs async command handlers. Execute must eventually call done
// exactly once with the result of work; it may do so on any goroutine.
type Executor interface {
	Execute(ctx context.Context, work Work, done func([]Event, error))
}

// runWork calls work, converting a panic into an ErrHandlerPanic error.
func runWork(ctx context.Context, work Work) (events []Event, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		events, err = work(ctx)
	})
	if rec := pc.Recovered(); rec != nil {
		return nil, panicError(rec.Value)
	}
	return events, err
}

// InlineExecutor runs work on the calling goroutine.
type InlineExecutor struct{}

// Execute implements Executor.
func (InlineExecutor) Execute(ctx context.Context, work Work, done func([]Event, error)) {
	done(runWork(ctx, work))
}

// GoExecutor starts a goroutine per unit of work.
type GoExecutor struct{}

// Execute implements Executor.
func (GoExecutor) Execute(ctx context.Context, work Work, done func([]Event, error)) {
	go func() {
		done(runWork(context.WithoutCancel(ctx), work))
	}()
}

// PoolExecutor runs work on a bounded pool of goroutines. Execute blocks
// while all workers are busy.
type PoolExecutor struct {
	mu      sync.RWMutex
	pool    *pool.Pool
	workers int
	log     *slog.Logger
}

// NewPoolExecutor creates a PoolExecutor with at most workers goroutines.
// workers below one means unbounded.
func NewPoolExecutor(workers int, log *slog.Logger) *PoolExecutor {
	if log == nil {
		log = slog.Default()
	}
	e := &PoolExecutor{workers: workers, log: log}
	e.pool = e.newPool()
	return e
}

func (e *PoolExecutor) newPool() *pool.Pool {
	p := pool.New()
	if e.workers > 0 {
		p = p.WithMaxGoroutines(e.workers)
	}
	return p
}

// Execute implements Executor.
func (e *PoolExecutor) Execute(ctx context.Context, work Work, done func([]Event, error)) {
	ctx = context.WithoutCancel(ctx)
	// Hold the read lock until the task is handed over, so Wait never
	// starts on a pool that is still being submitted to.
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.pool.Go(func() {
		events, err := runWork(ctx, work)
		var pc panics.Catcher
		pc.Try(func() { done(events, err) })
		if rec := pc.Recovered(); rec != nil {
			e.log.ErrorContext(ctx, "async completion panicked", slog.Any("error", rec.AsError()))
		}
	})
}

// Wait blocks until the work submitted before the call and its completions
// have finished. Work submitted while Wait runs goes to a fresh pool and is
// waited for by the next call.
func (e *PoolExecutor) Wait() {
	e.mu.Lock()
	p := e.pool
	e.pool = e.newPool()
	e.mu.Unlock()
	p.Wait()
}
