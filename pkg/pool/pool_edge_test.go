package pool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/habedi/rentdesk/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyItems(t *testing.T) {
	errs := pool.Run(context.Background(), []int{}, 3, func(ctx context.Context, item int) error {
		t.Error("worker should not be called")
		return nil
	})
	assert.Empty(t, errs)
}

func TestRun_ZeroAndNegativeWorkers(t *testing.T) {
	for _, workers := range []int{0, -4} {
		var count atomic.Int32
		errs := pool.Run(context.Background(), []int{1, 2, 3}, workers, func(ctx context.Context, item int) error {
			count.Add(1)
			return nil
		})
		assert.Empty(t, errs)
		assert.Equal(t, int32(3), count.Load(), "workers=%d", workers)
	}
}

func TestRun_ContextCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count atomic.Int32
	pool.Run(ctx, []int{1, 2, 3, 4, 5}, 2, func(ctx context.Context, item int) error {
		count.Add(1)
		return nil
	})
	assert.Less(t, count.Load(), int32(5))
}

func TestAll_RunsEveryTask(t *testing.T) {
	var a, b, c atomic.Bool
	err := pool.All(context.Background(),
		func(ctx context.Context) error { a.Store(true); return nil },
		func(ctx context.Context) error { b.Store(true); return nil },
		func(ctx context.Context) error { c.Store(true); return nil },
	)
	require.NoError(t, err)
	assert.True(t, a.Load() && b.Load() && c.Load())
}

func TestAll_RunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	wait := func(ctx context.Context) error {
		if started.Add(1) == 2 {
			close(release)
		}
		select {
		case <-release:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("tasks did not run concurrently")
		}
	}
	assert.NoError(t, pool.All(context.Background(), wait, wait))
}

func TestAll_ReturnsTaskError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := pool.All(context.Background(),
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { time.Sleep(20 * time.Millisecond); return first },
		func(ctx context.Context) error { return second },
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, first) || errors.Is(err, second))
}

func TestAll_CancelsOthersOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Bool
	started := make(chan struct{})
	err := pool.All(context.Background(),
		func(ctx context.Context) error {
			<-started
			return boom
		},
		func(ctx context.Context) error {
			close(started)
			select {
			case <-ctx.Done():
				cancelled.Store(true)
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		},
	)
	assert.ErrorIs(t, err, boom)
	assert.True(t, cancelled.Load())
}

func TestAll_NoTasks(t *testing.T) {
	assert.NoError(t, pool.All(context.Background()))
}
