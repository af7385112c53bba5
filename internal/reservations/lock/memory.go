package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	reservationserrors "deskbook/internal/reservations/errors"
)

type memoryEntry struct {
	token chan struct{}
	refs  int
}

// MemoryLocker serialises holders within one process. Each key is a one-slot
// channel; a lease timer frees keys whose holder outlives TTL.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	opts    Options
}

func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]*memoryEntry),
		opts:    opts,
	}
}

func (l *MemoryLocker) ref(key string) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{token: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key)
		}
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = normalize(keys)
	if len(keys) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	waitCtx := ctx
	if l.opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.opts.WaitTimeout)
		defer cancel()
	}

	held := make([]string, 0, len(keys))
	entries := make([]*memoryEntry, 0, len(keys))
	giveBack := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-entries[i].token
			l.unref(held[i])
		}
	}

	for _, key := range keys {
		e := l.ref(key)
		select {
		case e.token <- struct{}{}:
			held = append(held, key)
			entries = append(entries, e)
		case <-waitCtx.Done():
			l.unref(key)
			giveBack()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", reservationserrors.ErrLockTimeout, keys)
		}
	}

	var (
		once    sync.Once
		expired bool
		timer   *time.Timer
	)
	if l.opts.TTL > 0 {
		timer = time.AfterFunc(l.opts.TTL, func() {
			once.Do(func() {
				expired = true
				giveBack()
			})
		})
	}

	return func(context.Context) error {
		released := false
		once.Do(func() {
			released = true
			if timer != nil {
				timer.Stop()
			}
			giveBack()
		})
		if !released && expired {
			return errors.Join(reservationserrors.ErrLockNotHeld, fmt.Errorf("lease on %v expired after %s", keys, l.opts.TTL))
		}
		return nil
	}, nil
}
