// Package demo generates a guest module exercising the whole host ABI.
//
// The module blinks an output pin, samples an input pin after every blink,
// reports each sample over the UART as '0' or '1', and prints progress
// through println. It needs no guest toolchain, which makes it the default
// payload for `wasmhal run --demo` and for end-to-end tests.
package demo

import (
	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/wasm"
)

// Options selects pins and timing for the generated guest.
type Options struct {
	LED     uint32
	Input   uint32
	TX      uint32
	RX      uint32
	Cycles  uint32
	DelayMs uint32
}

// DefaultOptions blinks pin 8, samples pin 10 and uses pins 3/2 for UART.
func DefaultOptions() Options {
	return Options{LED: 8, Input: 10, TX: 3, RX: 2, Cycles: 3, DelayMs: 500}
}

// Memory layout of the generated guest.
const (
	handleAddr = 0  // u8 UART handle
	levelAddr  = 4  // u8 sampled level
	textAddr   = 64 // message strings
)

var messages = []string{
	"wasm-hal demo: start",
	"gpio_init failed",
	"uart_init failed",
	"wasm-hal demo: done",
}

const (
	msgStart = iota
	msgGPIOFailed
	msgUARTFailed
	msgDone
)

// Blink builds the demo guest.
func Blink(opts Options) []byte {
	m := &wasm.Module{}
	imports := make(map[abi.Index]uint32)
	for _, idx := range []abi.Index{
		abi.GPIOInit, abi.GPIOWrite, abi.GPIORead, abi.DelayMs,
		abi.UARTInit, abi.UARTWrite, abi.Println,
	} {
		fn, _ := abi.Lookup(idx)
		imports[idx] = m.ImportFunc(abi.ModuleName, fn.Name, funcType(fn))
	}

	m.AddMemory(1, nil)
	m.ExportMemory("memory", 0)

	offsets := make([]uint32, len(messages))
	off := uint32(textAddr)
	for i, s := range messages {
		offsets[i] = off
		m.AddData(off, []byte(s))
		off += uint32(len(s))
	}
	say := func(c *wasm.Code, msg int) {
		c.I32Const(int32(offsets[msg])).I32Const(int32(len(messages[msg]))).Call(imports[abi.Println])
	}
	u32 := func(v uint32) int32 { return int32(v) }

	// local 0: loop counter
	var c wasm.Code
	say(&c, msgStart)

	// gpio_init(0, led, false) and gpio_init(0, input, true); bail out on failure
	c.I32Const(0).I32Const(u32(opts.LED)).I32Const(0).Call(imports[abi.GPIOInit]).
		I32Const(0).I32Const(u32(opts.Input)).I32Const(1).Call(imports[abi.GPIOInit]).
		I32Add().
		If()
	say(&c, msgGPIOFailed)
	c.Return().End()

	// uart_init(&handle, 0, tx, 0, rx, null, null, null, null)
	c.I32Const(handleAddr).
		I32Const(0).I32Const(u32(opts.TX)).
		I32Const(0).I32Const(u32(opts.RX)).
		I32Const(0).I32Const(0).I32Const(0).I32Const(0).
		Call(imports[abi.UARTInit]).
		If()
	say(&c, msgUARTFailed)
	c.Return().End()

	c.I32Const(u32(opts.Cycles)).LocalSet(0)
	c.Block().Loop().
		LocalGet(0).I32Eqz().BrIf(1)

	// led on, wait, led off, wait
	c.I32Const(0).I32Const(u32(opts.LED)).I32Const(1).Call(imports[abi.GPIOWrite]).Drop().
		I32Const(u32(opts.DelayMs)).Call(imports[abi.DelayMs]).
		I32Const(0).I32Const(u32(opts.LED)).I32Const(0).Call(imports[abi.GPIOWrite]).Drop().
		I32Const(u32(opts.DelayMs)).Call(imports[abi.DelayMs])

	// sample input, send '0' + level over the UART
	c.I32Const(0).I32Const(u32(opts.Input)).I32Const(levelAddr).Call(imports[abi.GPIORead]).Drop().
		I32Const(handleAddr).I32Load8U(0).
		I32Const('0').I32Const(levelAddr).I32Load8U(0).I32Add().
		Call(imports[abi.UARTWrite]).Drop()

	c.LocalGet(0).I32Const(1).I32Sub().LocalSet(0).
		Br(0).
		End().End()

	say(&c, msgDone)
	c.End()

	start := m.AddFunc(m.AddType(wasm.FuncType{}), []wasm.ValType{wasm.ValI32}, c.Bytes())
	m.ExportFunc("start", start)
	return m.Encode()
}

func funcType(fn *abi.Func) wasm.FuncType {
	var ft wasm.FuncType
	for _, vt := range fn.CoreParams() {
		ft.Params = append(ft.Params, wasm.ValType(vt))
	}
	for _, vt := range fn.CoreResults() {
		ft.Results = append(ft.Results, wasm.ValType(vt))
	}
	return ft
}
