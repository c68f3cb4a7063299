//go:build wasm

// Command blink-guest is the example guest as a WebAssembly module.
//
// Build it without WASI so the only imports are the host functions:
//
//	tinygo build -target=wasm-unknown -o blink.wasm ./cmd/blink-guest
//	wasmhal run blink.wasm
package main

import (
	"github.com/wippyai/wasm-hal/guest/blink"
	"github.com/wippyai/wasm-hal/guest/hal"
)

//go:wasmexport start
func start() {
	if err := blink.Run(blink.DefaultConfig()); err != nil {
		hal.Println("blink: " + err.Error())
	}
}

func main() {}
