// Package code defines the integer result codes host functions return to
// the guest. Zero is success; every failure kind has its own stable value.
//
// The package has no dependencies so guest builds can import it.
package code

// Code is the signed 32-bit result of a fallible host call.
type Code int32

const (
	OK               Code = 0
	UnsupportedPort  Code = -1  // port other than 0
	UnsupportedPin   Code = -2  // pin number not on the board
	PinInUse         Code = -3  // identity already claimed (either direction)
	NotInput         Code = -4  // read on a pin not claimed as input
	NotOutput        Code = -5  // write on a pin not claimed as output
	Hardware         Code = -6  // driver reported a failure
	Memory           Code = -7  // guest pointer out of bounds
	AlreadyOpen      Code = -8  // a UART connection is already open
	UnknownHandle    Code = -9  // no open UART for the handle
	WouldBlock       Code = -10 // operation not ready; retry
	InvalidArgument  Code = -11 // malformed argument combination
	HandlesExhausted Code = -12 // no UART handles left
)

var names = map[Code]string{
	OK:               "ok",
	UnsupportedPort:  "unsupported_port",
	UnsupportedPin:   "unsupported_pin",
	PinInUse:         "pin_in_use",
	NotInput:         "not_input",
	NotOutput:        "not_output",
	Hardware:         "hardware",
	Memory:           "memory",
	AlreadyOpen:      "already_open",
	UnknownHandle:    "unknown_handle",
	WouldBlock:       "would_block",
	InvalidArgument:  "invalid_argument",
	HandlesExhausted: "handles_exhausted",
}

// String returns the stable snake_case name of c.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "code(" + itoa(int32(c)) + ")"
}

// OK reports whether c denotes success.
func (c Code) OK() bool { return c == OK }

// Known reports whether c is one of the defined codes.
func (c Code) Known() bool {
	_, ok := names[c]
	return ok
}

// All returns every defined code in ascending order of magnitude.
func All() []Code {
	return []Code{
		OK, UnsupportedPort, UnsupportedPin, PinInUse, NotInput, NotOutput,
		Hardware, Memory, AlreadyOpen, UnknownHandle, WouldBlock,
		InvalidArgument, HandlesExhausted,
	}
}

// itoa avoids strconv so the package stays small in guest builds.
func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	u := uint32(n)
	if neg {
		u = uint32(-int64(n))
	}
	var buf [11]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
