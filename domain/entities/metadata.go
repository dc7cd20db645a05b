package entities

import (
	"encoding/json"
)

// Metadata describes a loaded extension.
type Metadata struct {
	// Name is the extension's identifier.
	Name string `json:"name"`

	// Version is the extension's semantic version.
	Version string `json:"version"`

	// Description is a human readable summary.
	Description string `json:"description,omitempty"`

	// ABIVersion is the extension ABI the artifact was built against.
	ABIVersion uint32 `json:"abi_version"`

	// Interrupts lists the registered interrupt opcodes, sorted by ID.
	Interrupts []OpcodeInfo `json:"interrupts,omitempty"`

	// Functions lists the registered function-call opcodes, sorted by ID.
	Functions []OpcodeInfo `json:"functions,omitempty"`

	// MessageSchema is the JSON Schema of the payload the extension accepts
	// in EventExtensionMessage events, if it declares one.
	MessageSchema json.RawMessage `json:"message_schema,omitempty"`
}
