package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenledger.io/greenledger/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func newTestPools(t *testing.T, cfg PoolConfig) *Pools {
	t.Helper()
	pools, err := NewPools(context.Background(), cfg)
	require.NoError(t, err)
	return pools
}

func TestNewPools(t *testing.T) {
	pools := newTestPools(t, DefaultPoolConfig())
	defer pools.Shutdown()

	assert.NotNil(t, pools.General)
	assert.NotNil(t, pools.Search)
}

func TestNewPools_InvalidSize(t *testing.T) {
	// ants rejects a preallocated pool without a positive size
	_, err := NewPools(context.Background(), PoolConfig{GeneralPoolSize: 4, SearchPoolSize: -1})
	require.Error(t, err)
}

func TestPool_Submit(t *testing.T) {
	ctx := context.Background()
	pools := newTestPools(t, PoolConfig{GeneralPoolSize: 10, SearchPoolSize: 2})
	defer pools.Shutdown()

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err := pools.General.Submit(ctx, func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	require.NoError(t, err)

	wg.Wait()
	assert.True(t, executed.Load())
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	pools := newTestPools(t, DefaultPoolConfig())
	defer pools.Shutdown()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pools.General.Submit(cancelledCtx, func(ctx context.Context) {
		t.Error("task should not execute with cancelled context")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_Run(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		tasks    int
	}{
		{"fewer tasks than workers", 8, 3},
		{"more tasks than workers", 2, 20},
		{"no tasks", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := newTestPools(t, PoolConfig{GeneralPoolSize: 1, SearchPoolSize: tt.poolSize})
			defer pools.Shutdown()

			var done atomic.Int32
			tasks := make([]Task, tt.tasks)
			for i := range tasks {
				tasks[i] = func(ctx context.Context) {
					done.Add(1)
				}
			}

			require.NoError(t, pools.Search.Run(context.Background(), tasks...))
			assert.Equal(t, int32(tt.tasks), done.Load())
		})
	}
}

func TestPool_Run_CancelledContext(t *testing.T) {
	pools := newTestPools(t, DefaultPoolConfig())
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pools.Search.Run(ctx, func(ctx context.Context) {
		t.Error("task should not execute with cancelled context")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_Run_PanicDoesNotHang(t *testing.T) {
	pools := newTestPools(t, PoolConfig{GeneralPoolSize: 1, SearchPoolSize: 2})
	defer pools.Shutdown()

	var ran atomic.Bool
	err := pools.Search.Run(context.Background(),
		func(ctx context.Context) { panic("boom") },
		func(ctx context.Context) { ran.Store(true) },
	)
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestPools_SubmitDetached(t *testing.T) {
	tests := []struct {
		name     string
		poolName string
	}{
		{"general pool", "general"},
		{"search pool", "search"},
		{"default fallback", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := newTestPools(t, DefaultPoolConfig())

			var executed atomic.Bool
			var wg sync.WaitGroup
			wg.Add(1)

			err := pools.SubmitDetached(tt.poolName, func(ctx context.Context) {
				executed.Store(true)
				wg.Done()
			})
			require.NoError(t, err)

			wg.Wait()
			pools.Shutdown()
			assert.True(t, executed.Load())
		})
	}
}

func TestPools_SubmitAfterShutdown(t *testing.T) {
	pools := newTestPools(t, DefaultPoolConfig())
	pools.Shutdown()

	err := pools.General.Submit(context.Background(), func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPools_Metrics(t *testing.T) {
	pools := newTestPools(t, PoolConfig{GeneralPoolSize: 10, SearchPoolSize: 5})
	defer pools.Shutdown()

	metrics := pools.Metrics()
	require.NotNil(t, metrics)

	general, ok := metrics["general"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 10, general["cap"])

	search, ok := metrics["search"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 5, search["cap"])
	assert.Equal(t, 5, pools.Search.Cap())
}

func TestPool_Submit_ContextCancelledWhileQueued(t *testing.T) {
	ctx := context.Background()
	pools := newTestPools(t, PoolConfig{GeneralPoolSize: 1, SearchPoolSize: 1})
	defer pools.Shutdown()

	blockCh := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	_ = pools.General.Submit(ctx, func(ctx context.Context) {
		started.Done()
		<-blockCh
	})
	started.Wait()

	cancelCtx, cancel := context.WithCancel(ctx)

	var submitWg sync.WaitGroup
	submitWg.Add(1)
	go func() {
		defer submitWg.Done()
		_ = pools.General.Submit(cancelCtx, func(ctx context.Context) {})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	close(blockCh)
	submitWg.Wait()
}
