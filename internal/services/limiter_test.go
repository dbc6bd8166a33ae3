package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterCapsConcurrency(t *testing.T) {
	limiter := NewLimiter(4)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	gate := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Do(context.Background(), func() error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-gate
				current.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	close(gate)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestLimiterCancelledWhileQueued(t *testing.T) {
	limiter := NewLimiter(1)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = limiter.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := limiter.Do(ctx, func() error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)

	close(release)
}

func TestLimiterMinimumSize(t *testing.T) {
	limiter := NewLimiter(0)
	err := limiter.Do(context.Background(), func() error { return nil })
	assert.NoError(t, err)
}
