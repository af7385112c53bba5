package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	got := normalize([]string{"user:b:2026-03-02", "seat:7", "seat:7", "seat:10"})
	assert.Equal(t, []string{"seat:10", "seat:7", "user:b:2026-03-02"}, got)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "seat:42", SeatKey(42))
	assert.Equal(t, "user:ana@example.com:2026-03-02", UserDayKey("Ana@Example.com", "2026-03-02"))
}

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	l := NewMemoryLocker(Options{TTL: time.Minute, WaitTimeout: 5 * time.Second})

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), SeatKey(1), UserDayKey("a@x.io", "2026-03-02"))
			if !assert.NoError(t, err) {
				return
			}

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)

			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.entries, "entries should be reclaimed once nobody holds or waits")
}

func TestMemoryLocker_WaitTimeout(t *testing.T) {
	l := NewMemoryLocker(Options{TTL: time.Minute, WaitTimeout: 20 * time.Millisecond})

	userDay := UserDayKey("a@x.io", "2026-03-02")
	release, err := l.Acquire(context.Background(), userDay)
	require.NoError(t, err)
	defer release(context.Background())

	_, err = l.Acquire(context.Background(), SeatKey(1), userDay)
	require.ErrorIs(t, err, reservationserrors.ErrLockTimeout)

	// seat:1 sorts first and was taken before the wait ran out; it must be free again.
	other, err := l.Acquire(context.Background(), SeatKey(1))
	require.NoError(t, err)
	require.NoError(t, other(context.Background()))
}

func TestMemoryLocker_CallerCancellation(t *testing.T) {
	l := NewMemoryLocker(Options{TTL: time.Minute, WaitTimeout: time.Second})

	release, err := l.Acquire(context.Background(), SeatKey(1))
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(ctx, SeatKey(1))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, reservationserrors.ErrLockTimeout))
}

func TestMemoryLocker_LeaseExpiry(t *testing.T) {
	l := NewMemoryLocker(Options{TTL: 20 * time.Millisecond, WaitTimeout: time.Second})

	stale, err := l.Acquire(context.Background(), SeatKey(1))
	require.NoError(t, err)

	fresh, err := l.Acquire(context.Background(), SeatKey(1))
	require.NoError(t, err, "an expired lease must not wedge the key")
	require.NoError(t, fresh(context.Background()))

	err = stale(context.Background())
	assert.ErrorIs(t, err, reservationserrors.ErrLockNotHeld)
}

func TestMemoryLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLocker(Options{TTL: time.Minute, WaitTimeout: time.Second})

	release, err := l.Acquire(context.Background(), SeatKey(1))
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))
}
