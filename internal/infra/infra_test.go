package infra

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLoadsOnce(t *testing.T) {
	c := NewCache[int]()
	var calls atomic.Int32
	load := func(ctx context.Context) (int, bool) {
		calls.Add(1)
		return 42, true
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCacheSingleFlight(t *testing.T) {
	c := NewCache[string]()
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (string, bool) {
		calls.Add(1)
		<-release
		return "v", true
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestCacheKeepFalseIsNotStored(t *testing.T) {
	c := NewCache[int]()
	var calls atomic.Int32
	load := func(ctx context.Context) (int, bool) {
		return int(calls.Add(1)), false
	}

	v1, _ := c.GetOrLoad(context.Background(), "k", load)
	v2, _ := c.GetOrLoad(context.Background(), "k", load)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Equal(t, 0, c.Len())
}

func TestCacheCallerCancellationDoesNotAbortLoad(t *testing.T) {
	c := NewCache[int]()
	release := make(chan struct{})
	loadCtxErr := make(chan error, 1)
	load := func(ctx context.Context) (int, bool) {
		<-release
		loadCtxErr <- ctx.Err()
		return 7, true
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctx, "k", load)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.NoError(t, <-loadCtxErr)

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return ok
	}, time.Second, 5*time.Millisecond)
	v, _ := c.Get("k")
	assert.Equal(t, 7, v)
}

func TestCacheItemsSorted(t *testing.T) {
	c := NewCache[int]()
	for _, k := range []string{"b", "a", "c"} {
		_, err := c.GetOrLoad(context.Background(), k, func(context.Context) (int, bool) { return len(k), true })
		require.NoError(t, err)
	}
	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, "c", items[2].Key)
	assert.False(t, items[0].StoredAt.IsZero())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	ctx := context.Background()
	require.NoError(t, rl.Wait(ctx))
	require.NoError(t, rl.Wait(ctx))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}

func TestNilRateLimiterNeverBlocks(t *testing.T) {
	var rl *RateLimiter = PerSecond(0)
	assert.Nil(t, rl)
	assert.NoError(t, rl.Wait(context.Background()))
}
