//go:build !wasm

package abi

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/wippyai/wasm-hal/abi/code"
)

// Backend carries host calls when the guest is not running under wasm.
type Backend interface {
	GPIOInit(port, pin uint32, input bool) code.Code
	GPIODeinit(port, pin uint32) code.Code
	GPIOWrite(port, pin, value uint32) code.Code
	GPIORead(port, pin uint32) (uint8, code.Code)
	UARTInit(cfg UARTConfig) (uint8, code.Code)
	UARTWrite(handle uint8, b byte) code.Code
	UARTRead(handle uint8) (byte, code.Code)
	Print(s string)
	Println(s string)
	DelayMs(ms uint32)
}

type holder struct{ b Backend }

var current atomic.Pointer[holder]

func init() {
	current.Store(&holder{detached{}})
}

// SetBackend installs b and returns the previous backend. A nil b restores
// the detached default, which fails every peripheral call with
// code.Hardware.
func SetBackend(b Backend) Backend {
	if b == nil {
		b = detached{}
	}
	return current.Swap(&holder{b}).b
}

func backend() Backend { return current.Load().b }

// GPIOInit claims a pin, as an input when input is true.
func GPIOInit(port, pin uint32, input bool) code.Code {
	return backend().GPIOInit(port, pin, input)
}

// GPIODeinit releases a claimed pin.
func GPIODeinit(port, pin uint32) code.Code { return backend().GPIODeinit(port, pin) }

// GPIOWrite drives an output pin; any non-zero value is high.
func GPIOWrite(port, pin, value uint32) code.Code {
	return backend().GPIOWrite(port, pin, value)
}

// GPIORead samples an input pin and returns 1 for high.
func GPIORead(port, pin uint32) (uint8, code.Code) { return backend().GPIORead(port, pin) }

// UARTInit opens a UART on the given pins and returns its handle.
func UARTInit(cfg UARTConfig) (uint8, code.Code) { return backend().UARTInit(cfg) }

// UARTWrite sends one byte.
func UARTWrite(handle uint8, b byte) code.Code { return backend().UARTWrite(handle, b) }

// UARTRead blocks until a byte arrives.
func UARTRead(handle uint8) (byte, code.Code) { return backend().UARTRead(handle) }

// Print writes s to the host diagnostic channel.
func Print(s string) { backend().Print(s) }

// Println writes s and a newline to the host diagnostic channel.
func Println(s string) { backend().Println(s) }

// DelayMs blocks for ms milliseconds.
func DelayMs(ms uint32) { backend().DelayMs(ms) }

// detached has no board behind it.
type detached struct{}

func (detached) GPIOInit(uint32, uint32, bool) code.Code { return code.Hardware }
func (detached) GPIODeinit(uint32, uint32) code.Code { return code.OK }
func (detached) GPIOWrite(uint32, uint32, uint32) code.Code { return code.Hardware }
func (detached) GPIORead(uint32, uint32) (uint8, code.Code) { return 0, code.Hardware }
func (detached) UARTInit(UARTConfig) (uint8, code.Code) { return 0, code.Hardware }
func (detached) UARTWrite(uint8, byte) code.Code { return code.Hardware }
func (detached) UARTRead(uint8) (byte, code.Code) { return 0, code.Hardware }
func (detached) Print(s string) { fmt.Fprint(os.Stdout, s) }
func (detached) Println(s string) { fmt.Fprintln(os.Stdout, s) }
func (detached) DelayMs(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }
