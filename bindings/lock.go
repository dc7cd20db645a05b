package bindings

import (
	"sync"
	"sync/atomic"
)

// Lock is the executor's critical-section permit. The zero value is the
// released (empty) state.
//
// A Lock is moved, not shared: the handler that receives one either returns
// it or releases it. Copies refer to the same guard, and the underlying
// mutex is unlocked at most once no matter how many copies call Release.
type Lock struct {
	g *guard
}

type guard struct {
	mu       sync.Locker
	released atomic.Bool
}

// Acquire locks mu and returns the held guard.
func Acquire(mu sync.Locker) Lock {
	mu.Lock()
	return Lock{g: &guard{mu: mu}}
}

// Held reports whether l still holds the executor mutex.
func (l Lock) Held() bool {
	return l.g != nil && !l.g.released.Load()
}

// Same reports whether l and other are the same guard.
func (l Lock) Same(other Lock) bool {
	return l.g == other.g
}

// Release unlocks the mutex now and leaves l empty. It reports whether this
// call performed the unlock.
func (l *Lock) Release() bool {
	g := l.g
	l.g = nil
	if g == nil {
		return false
	}
	if !g.released.CompareAndSwap(false, true) {
		return false
	}
	g.mu.Unlock()
	return true
}

// HandleLock returns the lock an opcode handler hands back to the executor.
// When drop is set the mutex is released before HandleLock returns and the
// result is empty; otherwise lock is returned unchanged.
func HandleLock(drop bool, lock Lock) Lock {
	if drop {
		lock.Release()
		return Lock{}
	}
	return lock
}
