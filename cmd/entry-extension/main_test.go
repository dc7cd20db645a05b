package main

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/application/extension"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
	"github.com/openentry/entry-extension/host"
	sdklog "github.com/openentry/entry-extension/log"
	"github.com/openentry/entry-extension/testing/exttest"
)

func newTestExtension(t *testing.T) (*extension.Extension, *exttest.Harness) {
	t.Helper()
	h := exttest.New(t)
	e := newExtension(
		extension.WithRegistry(h.Registry),
		extension.WithLogger(sdklog.New(sdklog.WithWriter(&bytes.Buffer{}))),
	)
	return e, h
}

func initialized(t *testing.T) (*extension.Extension, *exttest.Harness) {
	t.Helper()
	e, h := newTestExtension(t)
	e.Init(h.Runtime, 7)
	require.NoError(t, h.Runtime.Tasks().Drain())
	return e, h
}

func TestInit(t *testing.T) {
	e, h := newTestExtension(t)

	e.Init(h.Runtime, 7)
	require.NoError(t, h.Runtime.Tasks().Drain())

	h.AssertInitFirst(t, 7)
	assert.Equal(t,
		[]bindings.Op{bindings.OpInit, bindings.OpSpawn, bindings.OpSlotSet, bindings.OpSlotGet},
		h.Recorder.Ops())

	got, err := bindings.Get[int32](context.Background(), h.Runtime.ExtensionData(7))
	require.NoError(t, err)
	assert.Equal(t, int32(12345), got)
	assert.Zero(t, h.Runtime.Tasks().Failed())
}

func TestInterrupt_Trace(t *testing.T) {
	e, _ := initialized(t)
	// opcode tables, and their counters, are shared by every extension built
	// from the package definition
	before := e.Stats().Calls[entities.OpcodeInterrupt][interruptTrace]

	exttest.RunOpcodeTests(t, e.Interrupt, exttest.LockLawCases(interruptTrace))
	assert.Equal(t, before+2, e.Stats().Calls[entities.OpcodeInterrupt][interruptTrace])
}

func TestFunctionCall_Trace(t *testing.T) {
	e, _ := initialized(t)

	exttest.RunOpcodeTests(t, e.FunctionCall, []exttest.OpcodeCase{
		{Name: "drop lock", ID: functionTrace, Drop: true},
		{Name: "keep lock", ID: functionTrace, Drop: false, WantHeld: true},
	})
}

func TestInterrupt_Yield(t *testing.T) {
	e, h := initialized(t)

	exttest.RunOpcodeTests(t, e.Interrupt, []exttest.OpcodeCase{
		{Name: "keep requested", ID: interruptYield, Drop: false},
		{Name: "drop requested", ID: interruptYield, Drop: true},
	})

	require.NoError(t, h.Runtime.Tasks().Drain())
	assert.Equal(t, uint64(2), e.Stats().EarlyReleases)
	// one task from init, one per yield
	assert.Equal(t, uint64(3), h.Runtime.Tasks().Spawned())
}

func TestUnknownOpcode(t *testing.T) {
	e, _ := initialized(t)

	exttest.RunOpcodeTests(t, e.FunctionCall, exttest.LockLawCases(4242))
	assert.Equal(t, uint64(2), e.Stats().Unknown)
}

func TestEventRecv(t *testing.T) {
	e, h := initialized(t)
	before := h.Recorder.Len()

	payload, err := json.Marshal(pingMessage{Seq: 3, Note: "hi"})
	require.NoError(t, err)

	events := []entities.Event{
		{Kind: entities.EventRuntimeReady},
		{Kind: entities.EventExtensionMessage, Source: 2, Payload: payload},
		{Kind: entities.EventExtensionMessage, Source: 2, Payload: []byte("not json")},
		{Kind: entities.EventKind(999), Thread: entities.VThread{ID: 4}},
	}
	for _, ev := range events {
		assert.NotPanics(t, func() { e.EventRecv(h.Runtime, ev) })
	}

	assert.Equal(t, before, h.Recorder.Len(), "events must not touch bindings state")
	got, err := bindings.Get[int32](context.Background(), h.Runtime.ExtensionData(7))
	require.NoError(t, err)
	assert.Equal(t, int32(12345), got)
}

func TestDescribe(t *testing.T) {
	meta := newExtension().Describe()

	assert.Equal(t, "entry-extension", meta.Name)
	assert.Equal(t, abi.Version, meta.ABIVersion)
	require.Len(t, meta.Interrupts, 2)
	assert.Equal(t, interruptYield, meta.Interrupts[0].ID)
	assert.Equal(t, interruptTrace, meta.Interrupts[1].ID)
	require.Len(t, meta.Functions, 1)
	assert.Equal(t, functionTrace, meta.Functions[0].ID)
	assert.Contains(t, string(meta.MessageSchema), `"seq"`)
}

func TestSeveralInstancesOnOneRuntime(t *testing.T) {
	h := exttest.New(t)
	quiet := extension.WithLogger(sdklog.New(sdklog.WithWriter(&bytes.Buffer{})))
	first, second := newExtension(quiet), newExtension(quiet)

	require.NotPanics(t, func() { first.Init(h.Runtime, 1) })
	require.NotPanics(t, func() { second.Init(h.Runtime, 2) })
	require.NoError(t, h.Runtime.Tasks().Drain())

	for _, id := range []uint32{1, 2} {
		got, err := bindings.Get[int32](context.Background(), h.Runtime.ExtensionData(id))
		require.NoError(t, err)
		assert.Equal(t, int32(12345), got)
	}
	exttest.RunOpcodeTests(t, second.Interrupt, exttest.LockLawCases(interruptTrace))
}

var exportedOnce sync.Once

// TestExportedSymbols drives the exported entry points the way a host does.
// They belong to the package-level extension, so init runs at most once per
// test binary.
func TestExportedSymbols(t *testing.T) {
	x, err := host.FromEntrypoints(abi.Entrypoints{
		Init:         VmInit,
		EventRecv:    VmEventRecv,
		Interrupt:    VmInterrupt,
		FunctionCall: VmFunctionCall,
	})
	require.NoError(t, err)

	rt := exttest.New(t).Runtime
	exportedOnce.Do(func() {
		require.NoError(t, x.Init(rt, 1))
	})
	if !x.Initialized() {
		t.Skip("package-level extension already initialized by an earlier run")
	}

	spy := &exttest.SpyLocker{}
	exec := host.NewExecutor(x, host.WithLocker(spy))

	n, err := exec.Run(context.Background(), entities.VThread{ID: 1}, []host.Instruction{
		{Kind: entities.OpcodeInterrupt, ID: interruptTrace},
		{Kind: entities.OpcodeFunction, ID: functionTrace},
		{Kind: entities.OpcodeInterrupt, ID: interruptYield},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, spy.Held())
	assert.Zero(t, exec.Stats().Violations)

	require.NoError(t, x.Deliver(rt, entities.Event{Kind: entities.EventRuntimeShutdown}))
	require.NoError(t, rt.Tasks().Drain())
}
