// Package engine runs guest modules on wazero.
//
// The engine compiles a guest binary, checks it against the host function
// table before anything is instantiated, and wires every import to a
// host.Runtime:
//
//	eng, _ := engine.NewWazeroEngine(ctx, &engine.Config{MemoryLimitPages: 16})
//	defer eng.Close(ctx)
//
//	mod, err := eng.Compile(ctx, wasmBytes)
//	if err != nil {
//	    // *errors.LinkError lists every unresolved import and mismatch
//	}
//	inst, err := mod.Instantiate(ctx, hostRuntime)
//	err = inst.Run(ctx)
//
// # Link Checks
//
// Compile rejects a module when:
//
//	- a function import is not env.<name> for a known host function
//	- a function import's core signature differs from the table
//	- it imports a memory, table, global or tag
//	- it does not export a memory named "memory"
//	- the entry export is missing or is not () -> ()
//
// All problems are reported together in one errors.LinkError.
//
// # Host Module
//
// Instantiate builds an "env" host module with one Go function per table
// entry. Each forwards its raw call frame to host.Runtime.Dispatch, which
// decodes arguments by index. Guest linear memory is bound to the runtime
// on the first host call, so calls from a start section see it too.
//
// # Traps
//
// A dispatch error panics inside the host function. wazero unwinds the
// guest and Run returns an *errors.Error with KindTrap. The host process
// and the runtime survive; the instance is closed and cannot be run again.
//
// # Cancellation
//
// The wazero runtime is created with close-on-context-done, so cancelling
// the context passed to Run stops the guest at the next instruction
// boundary. Host calls already in progress complete first.
//
// # Concurrency
//
// One instance may be live per engine. A second Instantiate fails with
// KindAlreadyLoaded until the first is closed.
package engine
