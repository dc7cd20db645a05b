package bindings

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// Task is a unit of asynchronous work. ctx is cancelled when the runtime
// shuts down.
type Task func(ctx context.Context) error

// TaskExecutor runs spawned tasks concurrently on behalf of the runtime.
// Spawn never blocks, so it is safe to call from opcode handlers and the
// event sink.
type TaskExecutor struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	hook   Hook
	group  errgroup.Group

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	errs  []error

	spawned atomic.Uint64
	failed  atomic.Uint64
}

func newTaskExecutor(parent context.Context, limit int, logger *slog.Logger, hook Hook) *TaskExecutor {
	t := &TaskExecutor{
		logger: logger,
		hook:   hook,
	}
	t.ctx, t.cancel = context.WithCancel(parent)
	if limit > 0 {
		t.group.SetLimit(limit)
	}
	return t
}

// Spawn starts task in its own goroutine. It returns errors.ErrRuntimeClosed
// after shutdown and errors.ErrExecutorSaturated when the task limit is
// reached.
func (t *TaskExecutor) Spawn(task Task) error {
	t.hook.record(Access{Op: OpSpawn})

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return sdkerrors.ErrRuntimeClosed
	}
	if !t.group.TryGo(func() error { return t.run(task) }) {
		return sdkerrors.ErrExecutorSaturated
	}
	t.spawned.Add(1)
	return nil
}

// run never fails the group: task errors are collected for Drain so the
// group stays reusable.
func (t *TaskExecutor) run(task Task) error {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = &sdkerrors.PanicError{Value: r, Where: "task", Stack: debug.Stack()}
		}
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		t.failed.Add(1)
		t.logger.Error("spawned task failed", "error", err)
		t.errMu.Lock()
		t.errs = append(t.errs, err)
		t.errMu.Unlock()
	}()
	err = task(t.ctx)
	return nil
}

// Drain waits for every in-flight task and returns the errors of tasks that
// failed since the previous Drain, joined. A task failure is reported by
// exactly one Drain call; Failed counts them over the executor's lifetime.
func (t *TaskExecutor) Drain() error {
	_ = t.group.Wait()

	t.errMu.Lock()
	defer t.errMu.Unlock()
	err := errors.Join(t.errs...)
	t.errs = nil
	return err
}

// Spawned returns the number of tasks accepted so far.
func (t *TaskExecutor) Spawned() uint64 {
	return t.spawned.Load()
}

// Failed returns the number of tasks that returned an error or panicked.
func (t *TaskExecutor) Failed() uint64 {
	return t.failed.Load()
}

func (t *TaskExecutor) shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()

	done := make(chan struct{})
	go func() {
		_ = t.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
