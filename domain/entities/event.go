package entities

import "fmt"

// EventKind tags an Event. The catalog is owned by the host; extensions must
// accept kinds they do not know.
type EventKind uint16

const (
	EventUnknown EventKind = iota
	EventRuntimeReady
	EventRuntimeShutdown
	EventThreadSpawned
	EventThreadExited
	EventExtensionLoaded
	// EventExtensionMessage carries a payload sent by a peer extension.
	EventExtensionMessage
)

var eventKindNames = map[EventKind]string{
	EventUnknown:          "unknown",
	EventRuntimeReady:     "runtime_ready",
	EventRuntimeShutdown:  "runtime_shutdown",
	EventThreadSpawned:    "thread_spawned",
	EventThreadExited:     "thread_exited",
	EventExtensionLoaded:  "extension_loaded",
	EventExtensionMessage: "extension_message",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint16(k))
}

// Known reports whether k is part of the catalog this SDK was built against.
func (k EventKind) Known() bool {
	_, ok := eventKindNames[k]
	return ok && k != EventUnknown
}

// Event is delivered to an extension's event sink by the runtime or on behalf
// of a peer extension.
type Event struct {
	Payload []byte    `json:"payload,omitempty"`
	Thread  VThread   `json:"thread"`
	Kind    EventKind `json:"kind"`
	// Source is the sending extension's ID, or 0 for the runtime itself.
	Source uint32 `json:"source"`
}

// FromRuntime reports whether the runtime, not a peer extension, sent e.
func (e Event) FromRuntime() bool {
	return e.Source == 0
}
