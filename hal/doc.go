// Package hal is the host-side peripheral driver seam.
//
// The host runtime never talks to hardware directly. It resolves guest pin
// numbers through a PinMap into opaque Line descriptors and asks a Board for
// capability objects bound to those lines:
//
//	pins, _ := hal.NewPinMap(hal.ESP32C3.Pins...)
//	line, ok := pins.Lookup(8)
//	if !ok {
//	    // unsupported pin
//	}
//	_ = board.Reset(line)
//	out, err := board.Output(line)
//	_ = out.SetHigh()
//
// # Capabilities
//
// InputLine and OutputLine are the two capability variants stored in the
// host resource tables. Serial is the single UART connection opened through
// Board.OpenSerial.
//
// # Boards
//
// The sim subpackage provides an in-memory board with loopback wiring and
// fault injection. The serialport subpackage opens real serial devices and
// can be plugged into the simulated board as its UART.
package hal
