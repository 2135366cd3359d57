package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/habitr/internal/errs"
)

// lockSet serializes mutations of the same habit. Each habit gets a
// one-slot semaphore that is dropped once nobody holds or waits for it.
type lockSet struct {
	mu    sync.Mutex
	locks map[int64]*habitLock
}

type habitLock struct {
	sem  chan struct{}
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[int64]*habitLock)}
}

// acquire blocks until the habit's lock is held, ctx is done, or timeout
// elapses (zero waits indefinitely). The returned func releases the lock.
func (l *lockSet) acquire(ctx context.Context, habitID int64, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	hl, ok := l.locks[habitID]
	if !ok {
		hl = &habitLock{sem: make(chan struct{}, 1)}
		l.locks[habitID] = hl
	}
	hl.refs++
	l.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case hl.sem <- struct{}{}:
		return func() {
			<-hl.sem
			l.release(habitID, hl)
		}, nil
	case <-ctx.Done():
		l.release(habitID, hl)
		return nil, ctx.Err()
	case <-expired:
		l.release(habitID, hl)
		return nil, &errs.ConflictError{HabitID: habitID}
	}
}

func (l *lockSet) release(habitID int64, hl *habitLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hl.refs--
	if hl.refs == 0 {
		delete(l.locks, habitID)
	}
}
