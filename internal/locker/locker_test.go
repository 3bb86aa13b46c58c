package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLocker_MutualExclusion(t *testing.T) {
	l := New()

	const workers = 16
	var inside int
	var maxInside int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := l.WithLock(context.Background(), "acc-1", func() error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
}

func TestAccountLocker_DifferentAccountsRunInParallel(t *testing.T) {
	l := New()

	releaseA, err := l.Acquire(context.Background(), "acc-a")
	require.NoError(t, err)
	defer releaseA()

	// acc-a is held; acc-b must still be acquirable immediately.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := l.Acquire(ctx, "acc-b")
	require.NoError(t, err)
	releaseB()
}

func TestAccountLocker_AcquireCancelledWhileWaiting(t *testing.T) {
	l := New()

	release, err := l.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Acquire(ctx, "acc-1")
	require.ErrorIs(t, err, context.Canceled)

	// the holder is unaffected and the lock works again after release
	release()

	release2, err := l.Acquire(context.Background(), "acc-1")
	require.NoError(t, err)
	release2()
}

func TestAccountLocker_WithLockPropagatesError(t *testing.T) {
	l := New()

	sentinel := assert.AnError
	err := l.WithLock(context.Background(), "acc-1", func() error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
}

func TestAccountLocker_IdleEntriesAreRemoved(t *testing.T) {
	l := New()

	err := l.WithLock(context.Background(), "acc-1", func() error { return nil })
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.locks)
}
