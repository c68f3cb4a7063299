// Package hal is the guest-side hardware abstraction.
//
// Hardware state is carried in types. A *Pin has no direction and can only
// be converted; conversion claims the pin on the host and yields an
// *InputPin or an *OutputPin, and the original *Pin is spent:
//
//	p, err := hal.Take()
//	led, err := p.Pin(0, 8).IntoOutput()
//	button, err := p.Pin(0, 10).IntoInput()
//
//	led.SetHigh()
//	high, err := button.IsHigh()
//
// There is no way to read an output or drive an input, and no way back to
// an unconfigured pin short of releasing it and asking the Peripherals for
// a fresh one.
//
// A UART is built from typed pins and keeps only the handle the host
// returned:
//
//	u, err := hal.NewUART(hal.UARTPins{TX: tx, RX: rx})
//	fmt.Fprintf(u, "level=%v\n", high)
//
// Host failures surface as *RuntimeError carrying the operation name and
// the host code.
package hal
