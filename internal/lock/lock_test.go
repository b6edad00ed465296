package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-minimart-pos/internal/apperr"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Normalize([]string{"c", "a", "", "b", "a"}))
	assert.Empty(t, Normalize(nil))
}

func testLocker(t *testing.T, l Locker) {
	ctx := context.Background()

	release, err := l.Acquire(ctx, "product:1", "product:2")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "product:2", "product:3")
	assert.True(t, errors.Is(err, apperr.ErrLocked), "overlapping key must wait and time out")

	other, err := l.Acquire(ctx, "product:3")
	require.NoError(t, err, "failed acquire must not keep product:3")
	other()

	release()
	again, err := l.Acquire(ctx, "product:2")
	require.NoError(t, err)
	again()
}

func TestLocal(t *testing.T) {
	testLocker(t, NewLocal(50*time.Millisecond))
}

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal(time.Second)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "product:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.locks)
}

func testDoubleRelease(t *testing.T, l Locker) {
	ctx := context.Background()

	first, err := l.Acquire(ctx, "product:1")
	require.NoError(t, err)
	first()

	second, err := l.Acquire(ctx, "product:1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		first()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second release blocked")
	}

	_, err = l.Acquire(ctx, "product:1")
	assert.True(t, errors.Is(err, apperr.ErrLocked), "stale release freed a newer holder")

	second()
	third, err := l.Acquire(ctx, "product:1")
	require.NoError(t, err)
	third()
}

func TestLocal_DoubleReleaseIsNoop(t *testing.T) {
	l := NewLocal(50 * time.Millisecond)
	testDoubleRelease(t, l)
	assert.Empty(t, l.locks)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	testLocker(t, NewRedis(rdb, time.Second, 50*time.Millisecond, 10*time.Millisecond, zap.NewNop()))
	testDoubleRelease(t, NewRedis(rdb, time.Second, 50*time.Millisecond, 10*time.Millisecond, zap.NewNop()))
}
