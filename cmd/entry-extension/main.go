// Package main is the reference OpenEntry extension.
//
// It registers the runtime with the bindings layer on init, exercises the
// extension data slot from a spawned task, and services a small set of
// tracing opcodes.
//
// Build:
//
//	go build -buildmode=plugin -o entry-extension.so ./cmd/entry-extension
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/application/extension"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
)

const (
	interruptYield uint32 = 1
	interruptTrace uint32 = 42
	functionTrace  uint32 = 9

	// slotProbe is written to and read back from the data slot on init.
	slotProbe int32 = 12345

	yieldPause = 10 * time.Millisecond
)

// pingMessage is the payload peers send in extension message events.
type pingMessage struct {
	Note string `json:"note,omitempty" jsonschema:"description=Free-form note"`
	Seq  uint64 `json:"seq" jsonschema:"description=Sender sequence number"`
}

var definition = define()

func define() *extension.Definition {
	def := extension.DefineExtension(extension.Def{
		Name:        "entry-extension",
		Version:     "0.1.0",
		Description: "Reference extension: data slot probe and tracing opcodes",
		Message:     pingMessage{},
		OnInit:      onInit,
		OnEvent:     onEvent,
	})

	def.MustRegisterInterrupt(extension.Opcode{
		ID:          interruptTrace,
		Name:        "trace",
		Description: "Logs the calling thread",
		Handler:     trace,
	})
	def.MustRegisterFunction(extension.Opcode{
		ID:          functionTrace,
		Name:        "trace",
		Description: "Logs the calling thread",
		Handler:     trace,
	})
	def.MustRegisterInterrupt(extension.Opcode{
		ID:          interruptYield,
		Name:        "yield",
		Description: "Releases the executor lock and resumes work off the executor",
		Handler:     yield,
	})
	return def
}

func onInit(ictx *extension.InitContext) error {
	return ictx.Runtime.Tasks().Spawn(func(ctx context.Context) error {
		slot := ictx.Runtime.ExtensionData(ictx.ExtensionID)
		if err := slot.Set(ctx, slotProbe); err != nil {
			return err
		}
		got, err := bindings.Get[int32](ctx, slot)
		if err != nil {
			return err
		}
		if got != slotProbe {
			return fmt.Errorf("data slot round trip: wrote %d, read %d", slotProbe, got)
		}
		ictx.Logger.Debug("data slot round trip ok", "value", got)
		return nil
	})
}

func onEvent(ectx *extension.EventContext) {
	ev := ectx.Event
	if ev.FromRuntime() {
		ectx.Logger.Debug("runtime event", "kind", ev.Kind, "thread", ev.Thread)
		return
	}
	if msg, ok := ectx.Message.(pingMessage); ok {
		ectx.Logger.Info("ping", "source", ev.Source, "seq", msg.Seq, "note", msg.Note)
		return
	}
	ectx.Logger.Debug("peer event", "kind", ev.Kind, "source", ev.Source)
}

func trace(call *extension.Call) entities.ExecutorBehaviour {
	call.Logger.Info("trace", "kind", call.Kind, "id", call.ID, "thread", call.Thread)
	return entities.BehaviourNone
}

func yield(call *extension.Call) entities.ExecutorBehaviour {
	call.ReleaseLock()

	thread := call.Thread
	logger := call.Logger
	err := call.Spawn(func(ctx context.Context) error {
		timer := time.NewTimer(yieldPause)
		defer timer.Stop()
		select {
		case <-timer.C:
			logger.Debug("yield resumed", "thread", thread)
		case <-ctx.Done():
		}
		return nil
	})
	if err != nil {
		logger.Warn("yield task not spawned", "thread", thread, "error", err)
	}
	return entities.BehaviourNone
}

func newExtension(opts ...extension.Option) *extension.Extension {
	return extension.New(definition, opts...)
}

var ext = newExtension()

// ABIVersion is the extension ABI this artifact was built against.
var ABIVersion = abi.Version

// VmInit is the init entry point.
func VmInit(rt *bindings.Runtime, id uint32) {
	ext.Init(rt, id)
}

// VmEventRecv is the event sink.
func VmEventRecv(rt *bindings.Runtime, ev entities.Event) {
	ext.EventRecv(rt, ev)
}

// VmInterrupt services interrupt opcodes.
func VmInterrupt(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
	return ext.Interrupt(thread, lock, id, drop)
}

// VmFunctionCall services function-call opcodes.
func VmFunctionCall(thread entities.VThread, lock bindings.Lock, id uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
	return ext.FunctionCall(thread, lock, id, drop)
}

func main() {}
