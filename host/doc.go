// Package host drives OpenEntry extensions from the runtime side.
//
// A Loader resolves the exported entry points of a plugin artifact (or any
// symbol source) into an Extension, which enforces the call-once,
// init-first ordering the extension ABI requires. An Executor models the
// VM's block-scoped locking discipline: it acquires the executor mutex
// around each custom opcode, hands the guard to the extension, and checks
// the lock it gets back.
package host
