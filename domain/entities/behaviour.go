package entities

import "fmt"

// ExecutorBehaviour tells the executor what to do after a custom opcode returns.
type ExecutorBehaviour uint8

const (
	// BehaviourNone advances to the next instruction.
	BehaviourNone ExecutorBehaviour = iota
	// BehaviourShutdown asks the executor to stop. Host-reserved.
	BehaviourShutdown
	// BehaviourYield asks the scheduler to switch virtual threads. Host-reserved.
	BehaviourYield
)

// String returns the behaviour name.
func (b ExecutorBehaviour) String() string {
	switch b {
	case BehaviourNone:
		return "none"
	case BehaviourShutdown:
		return "shutdown"
	case BehaviourYield:
		return "yield"
	default:
		return fmt.Sprintf("behaviour(%d)", uint8(b))
	}
}

// HostReserved reports whether only the host should emit b.
func (b ExecutorBehaviour) HostReserved() bool {
	return b != BehaviourNone
}
