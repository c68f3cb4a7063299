package sim

import (
	"io"
	"sync"

	"github.com/wippyai/wasm-hal/errors"
)

// UART is the simulated board UART: a receive queue and a transmit log.
type UART struct {
	tap      io.Writer
	cond     *sync.Cond
	rx       []byte
	tx       []byte
	mu       sync.Mutex
	baud     uint32
	opened   int
	loopback bool
	shutdown bool
}

func newUART() *UART {
	u := &UART{}
	u.cond = sync.NewCond(&u.mu)
	return u
}

func (u *UART) open(baud uint32) {
	u.mu.Lock()
	u.baud = baud
	u.opened++
	u.mu.Unlock()
}

// Feed queues bytes for the guest to read.
func (u *UART) Feed(p []byte) {
	u.mu.Lock()
	u.rx = append(u.rx, p...)
	u.mu.Unlock()
	u.cond.Broadcast()
}

// Transmitted returns every byte written so far.
func (u *UART) Transmitted() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.tx...)
}

// Pending returns the number of queued receive bytes.
func (u *UART) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rx)
}

// Baud returns the rate of the last open.
func (u *UART) Baud() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

// Opened returns how many times the UART was opened.
func (u *UART) Opened() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.opened
}

// Shutdown wakes blocked readers with io.EOF. Used when the host stops.
func (u *UART) Shutdown() {
	u.mu.Lock()
	u.shutdown = true
	u.mu.Unlock()
	u.cond.Broadcast()
}

func (u *UART) readByte() (byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for len(u.rx) == 0 {
		if u.shutdown {
			return 0, io.EOF
		}
		u.cond.Wait()
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b, nil
}

func (u *UART) writeByte(b byte) {
	u.mu.Lock()
	u.tx = append(u.tx, b)
	tap := u.tap
	if u.loopback {
		u.rx = append(u.rx, b)
	}
	u.mu.Unlock()
	if u.loopback {
		u.cond.Broadcast()
	}
	if tap != nil {
		_, _ = tap.Write([]byte{b})
	}
}

// port is one open connection to the simulated UART.
type port struct {
	board  *Board
	closed bool
}

func (p *port) ReadByte() (byte, error) {
	if p.closed {
		return 0, errors.New(errors.PhaseHAL, errors.KindClosed).Detail("serial port closed").Build()
	}
	if err := p.board.fault(OpSerialRead); err != nil {
		return 0, errors.Hardware("serial read", err)
	}
	b, err := p.board.uart.readByte()
	if err != nil {
		return 0, errors.Hardware("serial read", err)
	}
	p.board.emit(Event{Op: OpSerialRead, Value: uint32(b)})
	return b, nil
}

func (p *port) WriteByte(b byte) error {
	if p.closed {
		return errors.New(errors.PhaseHAL, errors.KindClosed).Detail("serial port closed").Build()
	}
	if err := p.board.fault(OpSerialWrite); err != nil {
		return errors.Hardware("serial write", err)
	}
	p.board.uart.writeByte(b)
	p.board.emit(Event{Op: OpSerialWrite, Value: uint32(b)})
	return nil
}

func (p *port) Close() error {
	p.closed = true
	return nil
}
