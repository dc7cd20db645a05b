// Package bindings is the surface an extension uses to reach the OpenEntry
// runtime.
//
// The host constructs a Runtime and passes it to the extension's init entry
// point, which must call Registry.Init on its own registry before anything
// else. Later entry points do not receive the runtime and reach it through
// that Registry instead. One Runtime serves every loaded extension; state
// that belongs to a single extension, such as its data slot, is keyed by
// extension ID.
//
// The package also carries the executor Lock, the guard the VM's block-scoped
// locking executor hands to opcode handlers, and HandleLock, the single place
// the lock-handoff rule is encoded.
package bindings
