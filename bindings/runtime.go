package bindings

import (
	"context"
	"log/slog"
	"sync"
)

// Runtime is the shared handle to the host runtime. The host creates it
// before calling the extension's init entry point; extensions may keep the
// pointer for as long as they are loaded.
type Runtime struct {
	tasks  *TaskExecutor
	logger *slog.Logger
	hook   Hook

	mu   sync.Mutex
	data map[uint32]*DataSlot
}

// NewRuntime creates a runtime handle. It is called by the host.
func NewRuntime(opts ...Option) *Runtime {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Runtime{
		tasks:  newTaskExecutor(cfg.ctx, cfg.maxTasks, cfg.logger, cfg.hook),
		logger: cfg.logger,
		hook:   cfg.hook,
		data:   make(map[uint32]*DataSlot),
	}
}

// Tasks returns the runtime's asynchronous task executor.
func (r *Runtime) Tasks() *TaskExecutor {
	return r.tasks
}

// ExtensionData returns the data slot of the extension loaded under id.
// Every extension ID gets its own slot, created on first use.
func (r *Runtime) ExtensionData(id uint32) *DataSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.data[id]
	if !ok {
		slot = newDataSlot(id, r.hook)
		r.data[id] = slot
	}
	return slot
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Close cancels spawned tasks and waits for them to return or for ctx to
// expire. Spawning after Close fails.
func (r *Runtime) Close(ctx context.Context) error {
	return r.tasks.shutdown(ctx)
}
