package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

// Extension is a resolved extension. Init must complete before any other
// entry point is driven; calls made earlier fail without reaching the
// extension.
type Extension struct {
	entry       abi.Entrypoints
	mu          sync.Mutex
	initialized atomic.Bool
	id          uint32
}

// FromEntrypoints wraps an in-process symbol surface.
func FromEntrypoints(entry abi.Entrypoints) (*Extension, error) {
	if missing := entry.Missing(); len(missing) > 0 {
		return nil, &sdkerrors.SymbolError{
			Symbol: strings.Join(missing, ","),
			Err:    errors.New("entry point not set"),
		}
	}
	return &Extension{entry: entry}, nil
}

// Init calls the extension's init entry point once. A panic in the
// extension's init propagates: the runtime cannot continue with a
// half-initialized extension.
func (x *Extension) Init(rt *bindings.Runtime, id uint32) error {
	if rt == nil {
		return &sdkerrors.ContractError{Operation: abi.EntryInit, Reason: "nil runtime"}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.initialized.Load() {
		return sdkerrors.ErrAlreadyInitialized
	}

	x.entry.Init(rt, id)
	x.id = id
	x.initialized.Store(true)
	return nil
}

// Initialized reports whether Init has completed.
func (x *Extension) Initialized() bool {
	return x.initialized.Load()
}

// ID returns the extension ID passed to Init.
func (x *Extension) ID() uint32 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.id
}

// Deliver hands ev to the extension's event sink.
func (x *Extension) Deliver(rt *bindings.Runtime, ev entities.Event) error {
	if !x.initialized.Load() {
		return x.notInitialized(abi.EntryEventRecv)
	}
	x.entry.EventRecv(rt, ev)
	return nil
}

// Interrupt drives the interrupt entry point. Before Init it returns lock
// untouched together with an error.
func (x *Extension) Interrupt(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour, error) {
	return x.opcode(abi.EntryInterrupt, x.entry.Interrupt, thread, lock, id, drop)
}

// FunctionCall drives the function-call entry point. Before Init it returns
// lock untouched together with an error.
func (x *Extension) FunctionCall(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour, error) {
	return x.opcode(abi.EntryFunctionCall, x.entry.FunctionCall, thread, lock, id, drop)
}

func (x *Extension) opcode(name string, fn abi.OpcodeFunc, thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour, error) {
	if !x.initialized.Load() {
		return lock, entities.BehaviourNone, x.notInitialized(name)
	}
	out, behaviour := fn(thread, lock, id, drop)
	return out, behaviour, nil
}

func (x *Extension) notInitialized(op string) error {
	return &sdkerrors.ContractError{
		Operation: op,
		Reason:    fmt.Sprintf("called before %s", abi.EntryInit),
		Err:       sdkerrors.ErrNotInitialized,
	}
}
