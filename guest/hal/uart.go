package hal

import (
	"tinygo.org/x/drivers"

	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/guest/abi"
)

// UARTPins are the typed pins of a UART. CTS and RTS may be nil.
type UARTPins struct {
	TX  *OutputPin
	RX  *InputPin
	CTS *InputPin
	RTS *OutputPin
}

// UART is an open serial connection.
type UART struct {
	handle uint8
}

var _ drivers.UART = (*UART)(nil)

// NewUART opens the board's UART on pins.
func NewUART(pins UARTPins) (*UART, error) {
	if pins.TX == nil || pins.RX == nil {
		return nil, ErrMissingPin
	}
	cfg := abi.UARTConfig{TX: pins.TX.ref, RX: pins.RX.ref}
	if pins.CTS != nil {
		ref := pins.CTS.ref
		cfg.CTS = &ref
	}
	if pins.RTS != nil {
		ref := pins.RTS.ref
		cfg.RTS = &ref
	}
	h, c := abi.UARTInit(cfg)
	if err := check("uart_init", c); err != nil {
		return nil, err
	}
	return &UART{handle: h}, nil
}

// Handle returns the host's handle for the connection.
func (u *UART) Handle() uint8 { return u.handle }

// TryWriteByte makes a single write attempt. The error matches
// ErrWouldBlock when the host cannot take the byte yet.
func (u *UART) TryWriteByte(b byte) error {
	return check("uart_write", abi.UARTWrite(u.handle, b))
}

// WriteByte writes b, retrying while the host reports WouldBlock.
func (u *UART) WriteByte(b byte) error {
	for {
		c := abi.UARTWrite(u.handle, b)
		if c != code.WouldBlock {
			return check("uart_write", c)
		}
	}
}

// Write writes p byte by byte in order.
func (u *UART) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := u.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteString writes s byte by byte in order.
func (u *UART) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if err := u.WriteByte(s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// ReadByte blocks until a byte arrives.
func (u *UART) ReadByte() (byte, error) {
	b, c := abi.UARTRead(u.handle)
	if err := check("uart_read", c); err != nil {
		return 0, err
	}
	return b, nil
}

// Read blocks for one byte and returns it. Host reads are blocking, so
// asking for more would stall on a quiet line.
func (u *UART) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := u.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

// Buffered always reports 0: received bytes stay on the host until read.
func (u *UART) Buffered() int { return 0 }
