package hal

import (
	"sync/atomic"

	"github.com/wippyai/wasm-hal/guest/abi"
)

// Peripherals is the process-wide right to claim pins. There is one.
// Only the value returned by Take grants pins; a zero or nil Peripherals
// hands out pins that refuse to convert.
type Peripherals struct {
	live bool
}

var taken atomic.Bool

// Take returns the Peripherals the first time it is called and
// ErrPeripheralsTaken afterwards. The token is never given back.
func Take() (*Peripherals, error) {
	if !taken.CompareAndSwap(false, true) {
		return nil, ErrPeripheralsTaken
	}
	return &Peripherals{live: true}, nil
}

// Pin returns an unconfigured pin. Nothing is claimed until it is
// converted.
func (p *Peripherals) Pin(port, pin uint32) *Pin {
	return &Pin{ref: abi.PinRef{Port: port, Pin: pin}, granted: p != nil && p.live}
}

// Delay blocks for ms milliseconds.
func (p *Peripherals) Delay(ms uint32) { Delay(ms) }

// Delay blocks for ms milliseconds.
func Delay(ms uint32) { abi.DelayMs(ms) }

// Print writes s to the host diagnostic channel.
func Print(s string) { abi.Print(s) }

// Println writes s and a newline to the host diagnostic channel.
func Println(s string) { abi.Println(s) }
