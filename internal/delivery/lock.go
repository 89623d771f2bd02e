package delivery

import "sync/atomic"

// JobLock is a non-blocking busy flag. The zero value is unlocked.
type JobLock struct {
	busy atomic.Bool
}

// TryAcquire takes the lock and reports whether it was free.
func (l *JobLock) TryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

// Release frees the lock. Releasing an unlocked JobLock is a no-op.
func (l *JobLock) Release() {
	l.busy.Store(false)
}

// Busy reports whether a job currently holds the lock.
func (l *JobLock) Busy() bool {
	return l.busy.Load()
}
