// slock guards long running services from being started twice
// or stopped when not running.
package slock

import "sync/atomic"

// ServiceLocker is implemented by services started with Run
type ServiceLocker interface {
	TryLock() bool
	TryUnlock() bool
	Running() bool
}

// AtomicServiceLock is a lock free ServiceLocker.
// Zero value is an unlocked (stopped) service.
type AtomicServiceLock struct {
	running atomic.Bool
}

// TryLock marks service as running. Returns false if it already was.
func (sl *AtomicServiceLock) TryLock() bool {
	return sl.running.CompareAndSwap(false, true)
}

// TryUnlock marks service as stopped. Returns false if it was not running.
func (sl *AtomicServiceLock) TryUnlock() bool {
	return sl.running.CompareAndSwap(true, false)
}

func (sl *AtomicServiceLock) Running() bool {
	return sl.running.Load()
}
