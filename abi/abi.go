// Package abi names the entry points an OpenEntry extension exports and the
// Go types the host resolves them to.
//
// Extensions are built with -buildmode=plugin. Go only exports capitalized
// identifiers, so each entry point has a semantic name (vm_init) and the
// exported symbol the host looks up (VmInit).
package abi

import (
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
)

// Version is the extension ABI this module implements. Hosts refuse
// artifacts built against a different version.
const Version uint32 = 1

// Exported symbol names.
const (
	SymbolInit         = "VmInit"
	SymbolEventRecv    = "VmEventRecv"
	SymbolInterrupt    = "VmInterrupt"
	SymbolFunctionCall = "VmFunctionCall"
	// SymbolABIVersion is an optional uint32 variable holding Version.
	SymbolABIVersion = "ABIVersion"
)

// Semantic entry point names, as they appear in logs.
const (
	EntryInit         = "vm_init"
	EntryEventRecv    = "vm_event_recv"
	EntryInterrupt    = "vm_interrupt"
	EntryFunctionCall = "vm_function_call"
)

// InitFunc is the type of the init entry point. It runs once, before any
// other entry point.
type InitFunc = func(rt *bindings.Runtime, id uint32)

// EventRecvFunc is the type of the event sink.
type EventRecvFunc = func(rt *bindings.Runtime, ev entities.Event)

// OpcodeFunc is the type of both opcode handlers.
type OpcodeFunc = func(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour)

// Entrypoints is the full symbol surface of one extension.
type Entrypoints struct {
	Init         InitFunc
	EventRecv    EventRecvFunc
	Interrupt    OpcodeFunc
	FunctionCall OpcodeFunc
}

// Missing returns the symbol names of unset entry points.
func (e Entrypoints) Missing() []string {
	var missing []string
	if e.Init == nil {
		missing = append(missing, SymbolInit)
	}
	if e.EventRecv == nil {
		missing = append(missing, SymbolEventRecv)
	}
	if e.Interrupt == nil {
		missing = append(missing, SymbolInterrupt)
	}
	if e.FunctionCall == nil {
		missing = append(missing, SymbolFunctionCall)
	}
	return missing
}
