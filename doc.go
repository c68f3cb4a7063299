// Package wasmhal lets a sandboxed WebAssembly guest drive microcontroller
// peripherals (GPIO pins and one UART) through a narrow host call boundary.
//
// The guest never touches hardware. Every peripheral operation is a named
// host function with primitive integer arguments; the host owns the
// resource tables and decides which physical lines exist, who holds them,
// and in what direction they are configured.
//
// # Architecture Overview
//
//	wasmhal/             Root package with the guest Memory interface
//	├── abi/             Closed host function table (names, indices, signatures)
//	│   └── code/        Error code space shared by host and guest
//	├── host/            Runtime façade and dispatcher (every ABI operation)
//	├── engine/          wazero integration, link-time validation
//	├── runtime/         High-level API: load, instantiate, run one guest
//	├── memory/          Bounds-checked linear memory marshaler
//	├── resource/        Pin tables and the UART handle table
//	├── hal/             Host peripheral drivers (sim board, serial port)
//	├── config/          TOML configuration
//	├── trace/           CBOR call traces
//	├── wasm/            Minimal WebAssembly module builder
//	├── demo/            Generated demo guest
//	├── errors/          Structured error types
//	├── guest/           Guest-side bindings and typestate HAL
//	└── cmd/wasmhal/     CLI and live board dashboard
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
//	    log.Fatal(err) // unresolved imports fail here, before any hardware is touched
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	if err := inst.Run(ctx); err != nil {
//	    log.Printf("guest trapped: %v", err)
//	}
//
// # Error Domains
//
// Link-time problems (unknown import, signature mismatch, missing memory or
// entry export) are Go errors from LoadWASM. Call-time problems are integer
// codes returned to the guest (see abi/code); 0 is success.
//
// # Thread Safety
//
// One guest runs at a time. Host calls are serialized by the dispatcher;
// observers may read table snapshots concurrently.
package wasmhal
