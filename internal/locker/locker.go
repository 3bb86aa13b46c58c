// Package locker provides the account-scoped mutual exclusion primitive used
// to serialize archive operations.
//
// Locks are keyed by account identifier: calls for different accounts proceed
// fully in parallel, calls for the same account are serialized. A lock entry
// exists only while at least one request holds or waits for it, so the lock
// table does not grow with the number of registered accounts.
package locker

import (
	"context"
	"sync"
)

// AccountLocker hands out per-account exclusive locks.
// The zero value is unusable; construct instances with New.
type AccountLocker struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

// accountLock is one keyed lock. sem is a channel-based mutex so acquisition
// can be abandoned on context cancellation; refs counts holders plus waiters
// and drives removal from the table.
type accountLock struct {
	sem  chan struct{}
	refs int
}

// New constructs an empty AccountLocker.
func New() *AccountLocker {
	return &AccountLocker{
		locks: make(map[string]*accountLock),
	}
}

// Acquire blocks until the lock for accountID is held exclusively or ctx is
// done. On success it returns a release function that must be called exactly
// once; on cancellation it returns ctx.Err() and no lock is held.
func (l *AccountLocker) Acquire(ctx context.Context, accountID string) (func(), error) {
	lock := l.enter(accountID)

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			l.leave(accountID, lock)
		}, nil
	case <-ctx.Done():
		l.leave(accountID, lock)
		return nil, ctx.Err()
	}
}

// WithLock executes fn while holding the exclusive lock for accountID.
// If the lock cannot be acquired before ctx is done, fn is not executed.
// Once fn has started, it always runs to completion and the lock is released
// afterwards, even if fn panics.
func (l *AccountLocker) WithLock(ctx context.Context, accountID string, fn func() error) error {
	release, err := l.Acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer release()

	return fn()
}

func (l *AccountLocker) enter(accountID string) *accountLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[accountID]
	if !ok {
		lock = &accountLock{sem: make(chan struct{}, 1)}
		l.locks[accountID] = lock
	}
	lock.refs++

	return lock
}

func (l *AccountLocker) leave(accountID string, lock *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, accountID)
	}
}
