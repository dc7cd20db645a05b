package extension

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
	sdklog "github.com/openentry/entry-extension/log"
)

// Extension implements the four entry points for a Definition.
// All methods are safe for concurrent use.
//
// Opcodes and events are serviced only once Init has returned; until then
// they are dropped without touching the bindings layer.
type Extension struct {
	def      *Definition
	registry *bindings.Registry
	base     *slog.Logger
	logger   atomic.Pointer[slog.Logger]
	ready    atomic.Bool

	unknown       atomic.Uint64
	dropped       atomic.Uint64
	panics        atomic.Uint64
	earlyReleases atomic.Uint64
}

// Stats is a snapshot of an extension's opcode counters.
type Stats struct {
	// Calls counts dispatched invocations per kind and opcode ID.
	Calls map[entities.OpcodeKind]map[uint32]uint64
	// Unknown counts invocations for IDs with no registered handler.
	Unknown uint64
	// Dropped counts opcode invocations that arrived before init.
	Dropped uint64
	// Panics counts recovered handler panics.
	Panics uint64
	// EarlyReleases counts handlers that released the lock themselves.
	EarlyReleases uint64
}

// New wraps def. The extension gets its own bindings registry unless
// WithRegistry supplies one.
func New(def *Definition, opts ...Option) *Extension {
	e := &Extension{
		def:      def,
		registry: bindings.NewRegistry(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extension) log() *slog.Logger {
	if l := e.logger.Load(); l != nil {
		return l
	}
	if e.base != nil {
		return e.base
	}
	return slog.Default()
}

// Init is the init entry point. It registers rt and id with the bindings
// layer first, then runs the definition's OnInit hook. Any failure panics:
// the host cannot continue with a half-initialized extension.
func (e *Extension) Init(rt *bindings.Runtime, id uint32) {
	if err := e.registry.Init(rt, id); err != nil {
		panic(fmt.Sprintf("%s: %v", abi.EntryInit, err))
	}

	var logger *slog.Logger
	if e.base != nil {
		logger = e.base.With("extension", e.def.Name(), "extension_id", id)
	} else {
		logger = sdklog.New(sdklog.WithExtension(e.def.Name(), id))
	}
	e.logger.Store(logger)

	if hook := e.def.def.OnInit; hook != nil {
		if err := hook(&InitContext{Runtime: rt, Logger: logger, ExtensionID: id}); err != nil {
			panic(fmt.Sprintf("%s: %s: %v", abi.EntryInit, e.def.Name(), err))
		}
	}

	e.ready.Store(true)
	logger.Info("extension initialized", "id", id)
}

// EventRecv is the event sink entry point. Unknown event kinds are accepted.
func (e *Extension) EventRecv(rt *bindings.Runtime, ev entities.Event) {
	logger := e.log()
	if !e.ready.Load() {
		logger.Warn("event received before init", "kind", ev.Kind, "source", ev.Source)
		return
	}
	if ev.Kind.Known() {
		logger.Debug("event received", "kind", ev.Kind, "source", ev.Source)
	} else {
		logger.Debug("event of unknown kind received", "kind", ev.Kind, "source", ev.Source)
	}

	hook := e.def.def.OnEvent
	if hook == nil {
		return
	}

	ectx := &EventContext{Runtime: rt, Logger: logger, Event: ev}
	if ev.Kind == entities.EventExtensionMessage && e.def.messageType != nil {
		msg, err := e.def.decodeMessage(ev.Payload)
		if err != nil {
			logger.Warn("ignoring undecodable extension message", "source", ev.Source, "error", err)
			return
		}
		ectx.Message = msg
	}

	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
			logger.Error("event hook panicked", "error",
				&sdkerrors.PanicError{Value: r, Where: abi.EntryEventRecv, Stack: debug.Stack()})
		}
	}()
	hook(ectx)
}

// Interrupt is the interrupt entry point.
func (e *Extension) Interrupt(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
	return e.dispatch(entities.OpcodeInterrupt, thread, lock, id, drop)
}

// FunctionCall is the function-call entry point.
func (e *Extension) FunctionCall(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
	return e.dispatch(entities.OpcodeFunction, thread, lock, id, drop)
}

// dispatch runs the handler for (kind, id). On every path the returned lock
// is either the one handed in, still held, or empty after exactly one
// release.
func (e *Extension) dispatch(kind entities.OpcodeKind, thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
	logger := e.log()
	if !e.ready.Load() {
		e.dropped.Add(1)
		logger.Warn("opcode invoked before init", "kind", kind, "id", id, "thread", thread)
		return bindings.HandleLock(drop, lock), entities.BehaviourNone
	}

	entry, ok := e.def.lookup(kind, id)
	if !ok {
		e.unknown.Add(1)
		logger.Debug("unknown opcode", "kind", kind, "id", id, "thread", thread)
		return bindings.HandleLock(drop, lock), entities.BehaviourNone
	}
	entry.calls.Add(1)

	call := &Call{
		Logger:   logger.With("opcode", entry.info.Name, "id", id, "thread", thread),
		lock:     &lock,
		registry: e.registry,
		Thread:   thread,
		ID:       id,
		Kind:     kind,
	}
	behaviour := e.invoke(entry, call)
	if behaviour.HostReserved() {
		call.Logger.Debug("handler returned host-reserved behaviour", "behaviour", behaviour)
	}

	if call.released {
		e.earlyReleases.Add(1)
		return bindings.Lock{}, behaviour
	}
	return bindings.HandleLock(drop, lock), behaviour
}

func (e *Extension) invoke(entry *opcodeEntry, call *Call) (behaviour entities.ExecutorBehaviour) {
	defer func() {
		if r := recover(); r != nil {
			e.panics.Add(1)
			call.Logger.Error("opcode handler panicked", "error",
				&sdkerrors.PanicError{Value: r, Where: fmt.Sprintf("%s %d", call.Kind, call.ID), Stack: debug.Stack()})
			behaviour = entities.BehaviourNone
		}
	}()
	return entry.handler(call)
}

// Describe returns the extension's metadata.
func (e *Extension) Describe() entities.Metadata {
	return e.def.Describe()
}

// Stats returns a snapshot of the opcode counters.
func (e *Extension) Stats() Stats {
	s := Stats{
		Calls:         make(map[entities.OpcodeKind]map[uint32]uint64),
		Unknown:       e.unknown.Load(),
		Dropped:       e.dropped.Load(),
		Panics:        e.panics.Load(),
		EarlyReleases: e.earlyReleases.Load(),
	}

	e.def.mu.RLock()
	defer e.def.mu.RUnlock()
	for kind, table := range e.def.tables {
		counts := make(map[uint32]uint64, len(table))
		for id, entry := range table {
			counts[id] = entry.calls.Load()
		}
		s.Calls[kind] = counts
	}
	return s
}

// Entrypoints returns e's methods as the abi symbol surface.
func (e *Extension) Entrypoints() abi.Entrypoints {
	return abi.Entrypoints{
		Init:         e.Init,
		EventRecv:    e.EventRecv,
		Interrupt:    e.Interrupt,
		FunctionCall: e.FunctionCall,
	}
}
