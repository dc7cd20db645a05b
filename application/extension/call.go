package extension

import (
	"log/slog"

	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
)

// HandlerFunc services one custom opcode and tells the executor what to do
// next. Returning entities.BehaviourNone advances to the next instruction.
type HandlerFunc func(call *Call) entities.ExecutorBehaviour

// Call is the context of one opcode handler invocation. It must not be
// retained after the handler returns.
type Call struct {
	Logger   *slog.Logger
	lock     *bindings.Lock
	registry *bindings.Registry
	Thread   entities.VThread
	ID       uint32
	Kind     entities.OpcodeKind
	released bool
}

// ReleaseLock releases the executor lock before the handler returns, so
// work that must not hold the executor can proceed. The executor receives
// an empty lock regardless of its drop request.
func (c *Call) ReleaseLock() {
	c.lock.Release()
	c.released = true
}

// LockReleased reports whether ReleaseLock was called.
func (c *Call) LockReleased() bool {
	return c.released
}

// Runtime returns the registered runtime handle.
func (c *Call) Runtime() (*bindings.Runtime, error) {
	return c.registry.Runtime()
}

// ExtensionData returns this extension's data slot.
func (c *Call) ExtensionData() (*bindings.DataSlot, error) {
	return c.registry.ExtensionData()
}

// Spawn runs task on the runtime's executor.
func (c *Call) Spawn(task bindings.Task) error {
	rt, err := c.Runtime()
	if err != nil {
		return err
	}
	return rt.Tasks().Spawn(task)
}

// InitHook runs once during the init entry point, after bindings
// registration.
type InitHook func(ctx *InitContext) error

// InitContext is passed to InitHook.
type InitContext struct {
	Runtime     *bindings.Runtime
	Logger      *slog.Logger
	ExtensionID uint32
}

// EventHook reacts to one event. It must not block; long reactions belong on
// the task executor.
type EventHook func(ctx *EventContext)

// EventContext is passed to EventHook.
type EventContext struct {
	Runtime *bindings.Runtime
	Logger  *slog.Logger
	// Message is the decoded payload of an EventExtensionMessage when the
	// definition declares a message type.
	Message any
	Event   entities.Event
}
