package entities

// OpcodeKind is the semantic domain of a custom opcode.
type OpcodeKind uint8

const (
	// OpcodeInterrupt reads its arguments from VM registers only; the executor
	// preserves registers across the call.
	OpcodeInterrupt OpcodeKind = iota + 1
	// OpcodeFunction may also read arguments from the VM stack frame and must
	// restore every register it touched.
	OpcodeFunction
)

func (k OpcodeKind) String() string {
	switch k {
	case OpcodeInterrupt:
		return "interrupt"
	case OpcodeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// OpcodeInfo describes a registered custom opcode.
type OpcodeInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ID          uint32     `json:"id"`
	Kind        OpcodeKind `json:"kind"`
}
