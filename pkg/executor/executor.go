package executor

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cuemby/burrow/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

// Management is the name of the pool that runs cluster management work
// such as assembling deployment stats.
const Management = "management"

// Pool runs functions on a bounded number of slots. Callers block until a
// slot is free and the function has returned.
type Pool struct {
	name string
	size int64
	sem  *semaphore.Weighted
}

// DefaultManagementSize returns half the usable CPUs, at least one
func DefaultManagementSize() int {
	size := runtime.GOMAXPROCS(0) / 2
	if size < 1 {
		size = 1
	}
	return size
}

// NewPool creates a pool with the given number of slots. A size below one
// is treated as one.
func NewPool(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		name: name,
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.name
}

// Size returns the number of slots
func (p *Pool) Size() int {
	return int(p.size)
}

// Run waits for a slot, runs fn on a pool goroutine and returns its result.
// If ctx is done before a slot is acquired, fn is not run and the context
// error is returned.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	waiting := metrics.ExecutorWaiting.WithLabelValues(p.name)
	waiting.Inc()
	err := p.sem.Acquire(ctx, 1)
	waiting.Dec()
	if err != nil {
		return fmt.Errorf("failed to acquire %s slot: %w", p.name, err)
	}

	active := metrics.ExecutorActive.WithLabelValues(p.name)
	active.Inc()

	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		defer active.Dec()
		done <- fn(ctx)
	}()
	return <-done
}
