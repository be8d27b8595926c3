// Package locks provides the single-writer lock that serializes leaderboard
// recomputes.
package locks

import (
	"context"
	"errors"
)

// ErrNotHeld is returned when releasing a lock that has expired or was taken
// over by another holder.
var ErrNotHeld = errors.New("lock not held")

// Locker grants exclusive access until the returned unlock func is called.
// Lock blocks until the lock is acquired or ctx is done.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
