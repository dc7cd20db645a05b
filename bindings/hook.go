package bindings

// Op names a side-effecting bindings call.
type Op string

const (
	OpInit        Op = "init"
	OpRuntime     Op = "runtime"
	OpExtensionID Op = "extension_id"
	OpSpawn       Op = "spawn"
	OpSlotSet     Op = "slot_set"
	OpSlotGet     Op = "slot_get"
	OpSlotClear   Op = "slot_clear"
)

// Access is one observed bindings call.
type Access struct {
	Op          Op
	ExtensionID uint32
}

// Hook observes bindings traffic. It is called synchronously and must be
// safe for concurrent use.
type Hook func(Access)

func (h Hook) record(a Access) {
	if h != nil {
		h(a)
	}
}
