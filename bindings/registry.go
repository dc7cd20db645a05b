package bindings

import (
	"sync"
	"sync/atomic"

	sdkerrors "github.com/openentry/entry-extension/domain/errors"
)

type registration struct {
	rt *Runtime
	id uint32
}

// Registry is the write-once cell holding the runtime handle and extension
// ID for later entry points. Reads before Init fail with
// errors.ErrNotInitialized.
//
// Each extension instance owns its registry. Go plugins share package
// state with the host and with every other loaded plugin, so a
// package-level cell would let only one extension initialize per process.
type Registry struct {
	mu   sync.Mutex
	reg  atomic.Pointer[registration]
	hook Hook
}

// NewRegistry returns an empty registry. hook may be nil.
func NewRegistry(hook Hook) *Registry {
	return &Registry{hook: hook}
}

// Init stores rt and id. It fails if rt is nil or if the registry was
// already initialized.
func (r *Registry) Init(rt *Runtime, id uint32) error {
	if rt == nil {
		return &sdkerrors.ContractError{Operation: "init", Reason: "nil runtime"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reg.Load() != nil {
		return sdkerrors.ErrAlreadyInitialized
	}
	r.hook.record(Access{Op: OpInit, ExtensionID: id})
	r.reg.Store(&registration{rt: rt, id: id})
	return nil
}

// Initialized reports whether Init has completed. It does not count as
// bindings traffic.
func (r *Registry) Initialized() bool {
	return r.reg.Load() != nil
}

// Runtime returns the registered runtime handle.
func (r *Registry) Runtime() (*Runtime, error) {
	reg, err := r.load("runtime")
	if err != nil {
		return nil, err
	}
	r.hook.record(Access{Op: OpRuntime, ExtensionID: reg.id})
	return reg.rt, nil
}

// ExtensionID returns the ID the host assigned to this extension.
func (r *Registry) ExtensionID() (uint32, error) {
	reg, err := r.load("extension_id")
	if err != nil {
		return 0, err
	}
	r.hook.record(Access{Op: OpExtensionID, ExtensionID: reg.id})
	return reg.id, nil
}

// ExtensionData returns the data slot of the registered extension.
func (r *Registry) ExtensionData() (*DataSlot, error) {
	reg, err := r.load("extension_data")
	if err != nil {
		return nil, err
	}
	return reg.rt.ExtensionData(reg.id), nil
}

func (r *Registry) load(op string) (*registration, error) {
	reg := r.reg.Load()
	if reg == nil {
		return nil, &sdkerrors.ContractError{
			Operation: op,
			Reason:    "bindings used before init",
			Err:       sdkerrors.ErrNotInitialized,
		}
	}
	return reg, nil
}
