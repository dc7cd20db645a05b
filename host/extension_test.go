package host_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openentry/entry-extension/abi"
	"github.com/openentry/entry-extension/bindings"
	"github.com/openentry/entry-extension/domain/entities"
	sdkerrors "github.com/openentry/entry-extension/domain/errors"
	"github.com/openentry/entry-extension/host"
	"github.com/openentry/entry-extension/testing/exttest"
)

// traced records which entry points reached the extension.
type traced struct {
	calls []string
}

func (tr *traced) entrypoints() abi.Entrypoints {
	return abi.Entrypoints{
		Init: func(*bindings.Runtime, uint32) { tr.calls = append(tr.calls, abi.EntryInit) },
		EventRecv: func(*bindings.Runtime, entities.Event) {
			tr.calls = append(tr.calls, abi.EntryEventRecv)
		},
		Interrupt: func(_ entities.VThread, lock bindings.Lock, _ uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
			tr.calls = append(tr.calls, abi.EntryInterrupt)
			return bindings.HandleLock(drop, lock), entities.BehaviourNone
		},
		FunctionCall: func(_ entities.VThread, lock bindings.Lock, _ uint32, drop bool) (bindings.Lock, entities.ExecutorBehaviour) {
			tr.calls = append(tr.calls, abi.EntryFunctionCall)
			return bindings.HandleLock(drop, lock), entities.BehaviourNone
		},
	}
}

func TestExtension_CallsBeforeInit(t *testing.T) {
	tr := &traced{}
	ext, err := host.FromEntrypoints(tr.entrypoints())
	require.NoError(t, err)

	h := exttest.New(t)
	spy := &exttest.SpyLocker{}
	lock := bindings.Acquire(spy)

	out, behaviour, err := ext.Interrupt(entities.VThread{ID: 1}, lock, 42, true)
	assert.True(t, errors.Is(err, sdkerrors.ErrNotInitialized))
	assert.Equal(t, entities.BehaviourNone, behaviour)
	assert.True(t, out.Same(lock))
	assert.True(t, spy.Held())
	out.Release()

	_, _, err = ext.FunctionCall(entities.VThread{ID: 1}, bindings.Lock{}, 9, true)
	assert.True(t, errors.Is(err, sdkerrors.ErrNotInitialized))

	err = ext.Deliver(h.Runtime, entities.Event{Kind: entities.EventRuntimeReady})
	assert.True(t, errors.Is(err, sdkerrors.ErrNotInitialized))

	assert.Empty(t, tr.calls)
}

func TestExtension_InitOnce(t *testing.T) {
	tr := &traced{}
	ext, err := host.FromEntrypoints(tr.entrypoints())
	require.NoError(t, err)
	h := exttest.New(t)

	var ce *sdkerrors.ContractError
	require.True(t, errors.As(ext.Init(nil, 1), &ce))
	assert.False(t, ext.Initialized())

	require.NoError(t, ext.Init(h.Runtime, 5))
	assert.True(t, ext.Initialized())
	assert.Equal(t, uint32(5), ext.ID())

	assert.ErrorIs(t, ext.Init(h.Runtime, 6), sdkerrors.ErrAlreadyInitialized)
	assert.Equal(t, uint32(5), ext.ID())

	require.NoError(t, ext.Deliver(h.Runtime, entities.Event{Kind: entities.EventRuntimeReady}))
	out, _, err := ext.Interrupt(entities.VThread{}, bindings.Acquire(&exttest.SpyLocker{}), 1, true)
	require.NoError(t, err)
	assert.False(t, out.Held())

	assert.Equal(t, []string{abi.EntryInit, abi.EntryEventRecv, abi.EntryInterrupt}, tr.calls)
}

func TestExtension_InitPanicPropagates(t *testing.T) {
	entry := (&traced{}).entrypoints()
	entry.Init = func(*bindings.Runtime, uint32) { panic("no runtime for you") }
	ext, err := host.FromEntrypoints(entry)
	require.NoError(t, err)
	h := exttest.New(t)

	assert.PanicsWithValue(t, "no runtime for you", func() { _ = ext.Init(h.Runtime, 1) })
	assert.False(t, ext.Initialized())
}
