package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
)

// lockTable hands out exclusive locks by key. A lock is a one-slot channel:
// sending acquires, receiving releases. Waiting honours ctx. A slot lives
// only while someone holds or waits for it.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*lockSlot)}
}

func (t *lockTable) ref(key string) *lockSlot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		t.slots[key] = s
	}
	s.refs++
	return s
}

func (t *lockTable) unref(key string, s *lockSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(t.slots, key)
	}
}

// acquire blocks until key is free, ctx is done, or timeout (if positive)
// elapses. Giving up yields account.ErrLockTimeout.
func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	s := t.ref(key)
	select {
	case s.ch <- struct{}{}:
		return nil
	default:
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.unref(key, s)
		return fmt.Errorf("%w: %s: %w", account.ErrLockTimeout, key, ctx.Err())
	}
}

// release frees a key taken by acquire.
func (t *lockTable) release(key string) {
	t.mu.Lock()
	s := t.slots[key]
	t.mu.Unlock()
	<-s.ch
	t.unref(key, s)
}

// size reports how many keys are held or awaited.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

func accountKey(id int64) string {
	return fmt.Sprintf("account:%d", id)
}

func limitKey(accountID int64, day string) string {
	return fmt.Sprintf("limit:%d:%s", accountID, day)
}
