// Package serialport drives the UART through a real serial device.
package serialport

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
)

// Config selects the device. Baud is taken from the guest request when zero.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// Port is a hal.Serial over a tarm/serial port.
type Port struct {
	rw  io.ReadWriteCloser
	buf [1]byte
}

// Open opens the device.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.InvalidInput(errors.PhaseHAL, "serial device not set")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Hardware(fmt.Sprintf("open serial port %s", cfg.Device), err)
	}
	return &Port{rw: p}, nil
}

// Opener adapts Open to the simulated board's serial hook, using the baud
// rate the host requests.
func Opener(cfg Config) func(hal.SerialConfig) (hal.Serial, error) {
	return func(sc hal.SerialConfig) (hal.Serial, error) {
		c := cfg
		if c.Baud == 0 {
			c.Baud = int(sc.Baud)
		}
		return Open(c)
	}
}

// ReadByte blocks until a byte arrives. With a read timeout configured,
// empty reads are retried.
func (p *Port) ReadByte() (byte, error) {
	for {
		n, err := p.rw.Read(p.buf[:])
		if n == 1 {
			return p.buf[0], nil
		}
		if err != nil && err != io.EOF {
			return 0, errors.Hardware("serial read", err)
		}
	}
}

// WriteByte transmits one byte.
func (p *Port) WriteByte(b byte) error {
	p.buf[0] = b
	if _, err := p.rw.Write(p.buf[:]); err != nil {
		return errors.Hardware("serial write", err)
	}
	return nil
}

// Close releases the device.
func (p *Port) Close() error {
	return p.rw.Close()
}
