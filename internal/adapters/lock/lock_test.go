package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-route-service/internal/ports"
)

func newRedisLock(t *testing.T, ttl time.Duration) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLock(client, ttl), mr
}

func TestRedisLock(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLock(t, time.Minute)

	release, err := l.Acquire(ctx, "route-generation:2026-10-21")
	require.NoError(t, err)
	assert.True(t, mr.Exists("waste-routes:lock:route-generation:2026-10-21"))

	_, err = l.Acquire(ctx, "route-generation:2026-10-21")
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	other, err := l.Acquire(ctx, "route-generation:2026-10-22")
	require.NoError(t, err, "other days are independent")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("waste-routes:lock:route-generation:2026-10-21"))

	again, err := l.Acquire(ctx, "route-generation:2026-10-21")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisLockExpiry(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLock(t, time.Second)

	stale, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "k")
	require.NoError(t, err, "expired lock can be taken over")

	// The stale holder must not delete the new holder's key.
	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("waste-routes:lock:k"))

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("waste-routes:lock:k"))
}

func TestNewRedisLockFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	l, err := NewRedisLockFromURL(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	defer l.Close()

	_, err = NewRedisLockFromURL(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrLockHeld)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	_, err = l.Acquire(ctx, "k")
	assert.NoError(t, err)
}

func TestLocalLockConcurrentAcquire(t *testing.T) {
	l := NewLocalLock()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(context.Background(), "k"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
