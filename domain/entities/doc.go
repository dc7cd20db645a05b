// Package entities provides the value types shared across the extension ABI.
// Both the host runtime and every extension compile against these types, so
// their layout is part of the contract and changes require an ABI version bump.
package entities
