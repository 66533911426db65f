package moving

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrChannelBusy is returned when a channel is already claimed by another
// move operation and the lock could not be acquired in time.
var ErrChannelBusy = fmt.Errorf("channel is already used by another move operation")

const (
	lockWaitTimeout = 120 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// LockRegistry tracks which channels are currently part of a move operation.
// At most one live LockHandle exists per channel ID at any time.
type LockRegistry struct {
	mu     sync.Mutex
	locked map[string]struct{}
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locked: make(map[string]struct{})}
}

// TryLock attempts to claim a channel without blocking. The second return
// value is false if the channel is already locked.
func (r *LockRegistry) TryLock(channelID string) (*LockHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locked[channelID]; ok {
		return nil, false
	}

	r.locked[channelID] = struct{}{}
	return &LockHandle{registry: r, channelID: channelID}, true
}

// WaitForLock polls until the channel can be claimed or the timeout elapses.
func (r *LockRegistry) WaitForLock(ctx context.Context, channelID string, timeout time.Duration) (*LockHandle, error) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if handle, ok := r.TryLock(channelID); ok {
			return handle, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollEvery):
		}
	}

	return nil, fmt.Errorf("waiting for lock on channel %s: %w", channelID, ErrChannelBusy)
}

// Locked reports whether the channel is currently claimed.
func (r *LockRegistry) Locked(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.locked[channelID]
	return ok
}

// LockHandle represents exclusive possession of one channel ID.
type LockHandle struct {
	registry  *LockRegistry
	channelID string
	released  sync.Once
}

// Release removes the channel from the locked set. It is safe to call more
// than once, so callers can both defer it and release early before handing
// the channel off.
func (h *LockHandle) Release() {
	h.released.Do(func() {
		h.registry.mu.Lock()
		defer h.registry.mu.Unlock()
		delete(h.registry.locked, h.channelID)
	})
}
