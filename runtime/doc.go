// Package runtime provides the high-level API for running one guest
// against a board.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	err = inst.Run(ctx)
//
// # Boards
//
// By default the runtime drives a simulated board built from the
// configuration: the pin set comes from [board] profile or pins, the
// loopback pairs wire an output pin to an input pin, and the UART is a
// loopback unless [uart] device names a serial port, in which case
// uart_init opens that device. WithBoard replaces the board entirely.
//
// # Lifecycle
//
// LoadWASM compiles and links the guest. Nothing touches the board until
// Instantiate, and nothing runs until Run. Only one instance may be live;
// a second Instantiate fails with errors.KindAlreadyLoaded until the first
// is closed. Closing an instance releases every pin and the UART it held.
//
// # Traces
//
// When [trace] path is set every host call is appended to a CBOR trace
// file (see package trace). The file is flushed on Close.
package runtime
