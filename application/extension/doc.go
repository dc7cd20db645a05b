// Package extension is the plugin-side SDK for OpenEntry extensions.
//
// An extension declares itself once with DefineExtension, registers the
// custom opcodes it services, and wraps the definition in an Extension whose
// methods back the four exported entry points:
//
//	var def = extension.DefineExtension(extension.Def{Name: "demo", Version: "0.1.0"})
//	var ext = extension.New(def)
//
//	func VmInit(rt *bindings.Runtime, id uint32) { ext.Init(rt, id) }
//
// Opcode handlers receive a *Call. They run synchronously on a VM worker
// thread while the executor lock is held, unless they call ReleaseLock.
// Anything long-running must be spawned onto the runtime's task executor.
package extension
