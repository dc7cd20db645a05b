// Package exttest provides a test harness for OpenEntry extensions.
package exttest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
)

// SpyLocker is a sync.Locker that exposes its state, so tests can observe
// when an executor lock is released.
type SpyLocker struct {
	mu      sync.Mutex
	held    atomic.Bool
	locks   atomic.Int64
	unlocks atomic.Int64
}

func (s *SpyLocker) Lock() {
	s.mu.Lock()
	s.held.Store(true)
	s.locks.Add(1)
}

func (s *SpyLocker) Unlock() {
	s.held.Store(false)
	s.unlocks.Add(1)
	s.mu.Unlock()
}

// Held reports whether the mutex is currently locked.
func (s *SpyLocker) Held() bool { return s.held.Load() }

// Locks returns how many times the mutex was locked.
func (s *SpyLocker) Locks() int64 { return s.locks.Load() }

// Unlocks returns how many times the mutex was unlocked.
func (s *SpyLocker) Unlocks() int64 { return s.unlocks.Load() }

// Recorder collects bindings traffic through a bindings.Hook.
type Recorder struct {
	mu    sync.Mutex
	calls []bindings.Access
}

// Hook returns the hook to install on a registry or runtime.
func (r *Recorder) Hook() bindings.Hook {
	return func(a bindings.Access) {
		r.mu.Lock()
		r.calls = append(r.calls, a)
		r.mu.Unlock()
	}
}

// Calls returns a copy of the recorded traffic in order.
func (r *Recorder) Calls() []bindings.Access {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bindings.Access, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the recorded operations in order.
func (r *Recorder) Ops() []bindings.Op {
	calls := r.Calls()
	ops := make([]bindings.Op, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Harness bundles a fresh runtime, registry and traffic recorder.
type Harness struct {
	Runtime  *bindings.Runtime
	Registry *bindings.Registry
	Recorder *Recorder
}

// New builds a harness whose runtime is closed when the test ends.
func New(t testing.TB, opts ...bindings.Option) *Harness {
	t.Helper()

	rec := &Recorder{}
	opts = append([]bindings.Option{bindings.WithHook(rec.Hook())}, opts...)
	rt := bindings.NewRuntime(opts...)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.Close(ctx); err != nil {
			t.Errorf("closing runtime: %v", err)
		}
	})

	return &Harness{
		Runtime:  rt,
		Registry: bindings.NewRegistry(rec.Hook()),
		Recorder: rec,
	}
}

// AssertInitFirst fails the test unless the first recorded call is the
// bindings init for id.
func (h *Harness) AssertInitFirst(t testing.TB, id uint32) {
	t.Helper()
	calls := h.Recorder.Calls()
	if len(calls) == 0 {
		t.Errorf("no bindings traffic recorded, expected init")
		return
	}
	if calls[0].Op != bindings.OpInit || calls[0].ExtensionID != id {
		t.Errorf("first bindings call: expected init(%d), got %s(%d)", id, calls[0].Op, calls[0].ExtensionID)
	}
}

// OpcodeCase describes one opcode handler invocation and its expected
// lock post-state.
type OpcodeCase struct {
	Name string
	ID   uint32
	Drop bool
	// WantHeld is whether the handler should hand the lock back still held.
	WantHeld      bool
	WantBehaviour entities.ExecutorBehaviour
}

// RunOpcodeTests invokes fn once per case with a freshly acquired lock and
// checks the lock-handoff law: a lock returned held is the one handed in,
// and a lock returned empty was unlocked exactly once before fn returned.
func RunOpcodeTests(t *testing.T, fn abi.OpcodeFunc, cases []OpcodeCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			spy := &SpyLocker{}
			in := bindings.Acquire(spy)

			out, behaviour := fn(entities.VThread{ID: 1}, in, tc.ID, tc.Drop)

			if behaviour != tc.WantBehaviour {
				t.Errorf("behaviour: expected %s, got %s", tc.WantBehaviour, behaviour)
			}

			if tc.WantHeld {
				if !out.Held() || !spy.Held() {
					t.Fatalf("expected lock still held")
				}
				if !out.Same(in) {
					t.Errorf("expected the lock handed in, got a different guard")
				}
				out.Release()
				return
			}

			if out.Held() {
				t.Errorf("expected empty lock, got a held one")
				out.Release()
			}
			if spy.Held() {
				t.Errorf("mutex still locked after handler returned")
			}
			if n := spy.Unlocks(); n != 1 {
				t.Errorf("expected exactly one unlock, got %d", n)
			}
		})
	}
}

// LockLawCases returns the keep and drop cases every handler that does
// not release early must satisfy for id.
func LockLawCases(id uint32) []OpcodeCase {
	return []OpcodeCase{
		{Name: "keep lock", ID: id, Drop: false, WantHeld: true},
		{Name: "drop lock", ID: id, Drop: true, WantHeld: false},
	}
}
