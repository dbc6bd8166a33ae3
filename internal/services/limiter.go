package services

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of concurrently executing tasks. Waiters
// are admitted in FIFO order; there is no ordering guarantee between
// tasks once admitted.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a limiter admitting at most size tasks at once.
func NewLimiter(size int) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs task once a slot is free, blocking until then. The slot is
// released when the task settles, success or failure. A cancelled
// context while queued returns the context error without running the
// task.
func (l *Limiter) Do(ctx context.Context, task func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return task()
}
