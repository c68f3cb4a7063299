package hal

import (
	"errors"

	"github.com/wippyai/wasm-hal/abi/code"
)

var (
	// ErrPeripheralsTaken is returned by every Take after the first.
	ErrPeripheralsTaken = errors.New("hal: peripherals already taken")

	// ErrNotTaken is returned when a pin did not come from the Peripherals
	// returned by Take.
	ErrNotTaken = errors.New("hal: pin not obtained from Take")

	// ErrPinConsumed is returned when a spent pin is converted again.
	ErrPinConsumed = errors.New("hal: pin already converted")

	// ErrMissingPin is returned by NewUART without TX or RX.
	ErrMissingPin = errors.New("hal: uart needs tx and rx pins")

	// ErrWouldBlock matches a RuntimeError whose code is code.WouldBlock.
	ErrWouldBlock = errors.New("hal: operation would block")
)

// RuntimeError is a non-zero code returned by a host call.
type RuntimeError struct {
	Op   string
	Code code.Code
}

func (e *RuntimeError) Error() string {
	return "hal: " + e.Op + ": " + e.Code.String()
}

// Is lets errors.Is(err, ErrWouldBlock) see through the code.
func (e *RuntimeError) Is(target error) bool {
	return target == ErrWouldBlock && e.Code == code.WouldBlock
}

func check(op string, c code.Code) error {
	if c == code.OK {
		return nil
	}
	return &RuntimeError{Op: op, Code: c}
}
