package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// Instruction is one custom opcode in a program run by Executor.Run.
type Instruction struct {
	Kind entities.OpcodeKind
	ID   uint32
}

// ExecutorStats counts executor activity.
type ExecutorStats struct {
	Steps         uint64
	EarlyReleases uint64
	Violations    uint64
}

// Executor runs custom opcodes under block-scoped locking: the mutex is
// acquired around each opcode and handed to the extension, which returns
// the lock state the executor should continue with.
type Executor struct {
	ext    *Extension
	locker sync.Locker
	logger *slog.Logger
	drop   bool

	steps         atomic.Uint64
	earlyReleases atomic.Uint64
	violations    atomic.Uint64
}

// NewExecutor creates an executor for ext.
func NewExecutor(ext *Extension, opts ...Option) *Executor {
	e := &Executor{
		ext:    ext,
		locker: &sync.Mutex{},
		logger: slog.Default(),
		drop:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step runs one custom opcode on thread. A lock handed back in the wrong
// state is reported as *errors.ContractError after the executor has
// restored a consistent mutex state.
func (e *Executor) Step(thread entities.VThread, kind entities.OpcodeKind, id uint32) (entities.ExecutorBehaviour, error) {
	var call func(entities.VThread, bindings.Lock, uint32, bool) (bindings.Lock, entities.ExecutorBehaviour, error)
	switch kind {
	case entities.OpcodeInterrupt:
		call = e.ext.Interrupt
	case entities.OpcodeFunction:
		call = e.ext.FunctionCall
	default:
		return entities.BehaviourNone, fmt.Errorf("unknown opcode kind %d", kind)
	}

	in := bindings.Acquire(e.locker)
	out, behaviour, err := call(thread, in, id, e.drop)
	if err != nil {
		out.Release()
		return entities.BehaviourNone, fmt.Errorf("%s %d: %w", kind, id, err)
	}
	e.steps.Add(1)

	if err := e.settle(in, out); err != nil {
		e.violations.Add(1)
		e.logger.Error("extension broke the lock handoff", "kind", kind, "id", id, "thread", thread, "error", err)
		return behaviour, err
	}
	return behaviour, nil
}

// settle checks the returned lock against the drop request and ends the
// block scope.
func (e *Executor) settle(in, out bindings.Lock) error {
	op := "lock_handoff"
	switch {
	case out.Held() && !out.Same(in):
		in.Release()
		return &sdkerrors.ContractError{Operation: op, Reason: "returned a lock it was not given"}
	case out.Held() && e.drop:
		out.Release()
		return &sdkerrors.ContractError{Operation: op, Reason: "lock still held after drop request"}
	case out.Held():
		out.Release()
		return nil
	case in.Held():
		in.Release()
		return &sdkerrors.ContractError{Operation: op, Reason: "returned an empty lock without releasing the mutex"}
	case !e.drop:
		// Released early although the executor wanted to keep it.
		e.earlyReleases.Add(1)
		reacquired := bindings.Acquire(e.locker)
		reacquired.Release()
		return nil
	default:
		return nil
	}
}

// Run steps through prog on thread until it ends, an opcode asks for
// shutdown, a step fails, or ctx is done. It returns the number of opcodes
// executed.
func (e *Executor) Run(ctx context.Context, thread entities.VThread, prog []Instruction) (int, error) {
	for i, ins := range prog {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		behaviour, err := e.Step(thread, ins.Kind, ins.ID)
		if err != nil {
			return i + 1, err
		}
		if behaviour == entities.BehaviourShutdown {
			return i + 1, nil
		}
	}
	return len(prog), nil
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		Steps:         e.steps.Load(),
		EarlyReleases: e.earlyReleases.Load(),
		Violations:    e.violations.Load(),
	}
}
