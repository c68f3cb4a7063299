//go:build wasm

package abi

import (
	"unsafe"

	"github.com/wippyai/wasm-hal/abi/code"
)

//go:wasmimport env uart_write
func uartWrite(handle, word uint32) int32

//go:wasmimport env uart_read
func uartRead(handle uint32, out unsafe.Pointer) int32

//go:wasmimport env uart_init
func uartInit(handle unsafe.Pointer, txPort, txPin, rxPort, rxPin uint32, ctsPort, ctsPin, rtsPort, rtsPin unsafe.Pointer) int32

//go:wasmimport env print
func hostPrint(ptr unsafe.Pointer, length uint32)

//go:wasmimport env gpio_write
func gpioWrite(port, pin, value uint32) int32

//go:wasmimport env gpio_read
func gpioRead(port, pin uint32, out unsafe.Pointer) int32

//go:wasmimport env gpio_init
func gpioInit(port, pin, isInput uint32) int32

//go:wasmimport env gpio_deinit
func gpioDeinit(port, pin uint32) int32

//go:wasmimport env delay_ms
func delayMs(ms uint32)

//go:wasmimport env println
func hostPrintln(ptr unsafe.Pointer, length uint32)

// GPIOInit claims a pin, as an input when input is true.
func GPIOInit(port, pin uint32, input bool) code.Code {
	var flag uint32
	if input {
		flag = 1
	}
	return code.Code(gpioInit(port, pin, flag))
}

// GPIODeinit releases a claimed pin.
func GPIODeinit(port, pin uint32) code.Code {
	return code.Code(gpioDeinit(port, pin))
}

// GPIOWrite drives an output pin; any non-zero value is high.
func GPIOWrite(port, pin, value uint32) code.Code {
	return code.Code(gpioWrite(port, pin, value))
}

// GPIORead samples an input pin and returns 1 for high.
func GPIORead(port, pin uint32) (uint8, code.Code) {
	var level uint8
	c := code.Code(gpioRead(port, pin, unsafe.Pointer(&level)))
	return level, c
}

// UARTInit opens a UART on the given pins and returns its handle.
func UARTInit(cfg UARTConfig) (uint8, code.Code) {
	var handle uint8
	ctsPort, ctsPin := refPointers(cfg.CTS)
	rtsPort, rtsPin := refPointers(cfg.RTS)
	c := code.Code(uartInit(unsafe.Pointer(&handle),
		cfg.TX.Port, cfg.TX.Pin, cfg.RX.Port, cfg.RX.Pin,
		ctsPort, ctsPin, rtsPort, rtsPin))
	return handle, c
}

// refPointers returns null for an absent pin.
func refPointers(p *PinRef) (port, pin unsafe.Pointer) {
	if p == nil {
		return nil, nil
	}
	return unsafe.Pointer(&p.Port), unsafe.Pointer(&p.Pin)
}

// UARTWrite sends one byte.
func UARTWrite(handle uint8, b byte) code.Code {
	return code.Code(uartWrite(uint32(handle), uint32(b)))
}

// UARTRead blocks until a byte arrives.
func UARTRead(handle uint8) (byte, code.Code) {
	var b byte
	c := code.Code(uartRead(uint32(handle), unsafe.Pointer(&b)))
	return b, c
}

// Print writes s to the host diagnostic channel.
func Print(s string) {
	hostPrint(unsafe.Pointer(unsafe.StringData(s)), uint32(len(s)))
}

// Println writes s and a newline to the host diagnostic channel.
func Println(s string) {
	hostPrintln(unsafe.Pointer(unsafe.StringData(s)), uint32(len(s)))
}

// DelayMs blocks for ms milliseconds.
func DelayMs(ms uint32) {
	delayMs(ms)
}
