package moving

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistryTryLock(t *testing.T) {
	registry := NewLockRegistry()

	handle, ok := registry.TryLock("chan-1")
	require.True(t, ok)
	require.NotNil(t, handle)
	assert.True(t, registry.Locked("chan-1"))

	_, ok = registry.TryLock("chan-1")
	assert.False(t, ok, "second lock on the same channel must fail")

	other, ok := registry.TryLock("chan-2")
	require.True(t, ok, "a different channel must lock independently")
	other.Release()

	handle.Release()
	assert.False(t, registry.Locked("chan-1"))

	_, ok = registry.TryLock("chan-1")
	assert.True(t, ok, "channel must be lockable again after release")
}

func TestLockRegistryReleaseIsIdempotent(t *testing.T) {
	registry := NewLockRegistry()

	handle, ok := registry.TryLock("chan-1")
	require.True(t, ok)

	handle.Release()
	handle.Release()

	// A stale double release must not free someone else's lock.
	fresh, ok := registry.TryLock("chan-1")
	require.True(t, ok)
	handle.Release()
	assert.True(t, registry.Locked("chan-1"))
	fresh.Release()
}

func TestLockRegistryConcurrentAcquisition(t *testing.T) {
	registry := NewLockRegistry()

	const attempts = 32
	var won atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := registry.TryLock("contested"); ok {
				won.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), won.Load(), "exactly one concurrent TryLock may succeed")
}

func TestWaitForLockAcquiresAfterRelease(t *testing.T) {
	registry := NewLockRegistry()

	handle, ok := registry.TryLock("chan-1")
	require.True(t, ok)

	go func() {
		time.Sleep(250 * time.Millisecond)
		handle.Release()
	}()

	acquired, err := registry.WaitForLock(context.Background(), "chan-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, acquired)
	acquired.Release()
}

func TestWaitForLockTimesOut(t *testing.T) {
	registry := NewLockRegistry()

	handle, ok := registry.TryLock("chan-1")
	require.True(t, ok)
	defer handle.Release()

	_, err := registry.WaitForLock(context.Background(), "chan-1", 300*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChannelBusy)
}

func TestWaitForLockHonorsContextCancellation(t *testing.T) {
	registry := NewLockRegistry()

	handle, ok := registry.TryLock("chan-1")
	require.True(t, ok)
	defer handle.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := registry.WaitForLock(ctx, "chan-1", time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
