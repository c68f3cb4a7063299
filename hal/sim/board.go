package sim

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
)

// Op names a driver operation for fault injection and events.
type Op string

const (
	OpReset       Op = "reset"
	OpConfigure   Op = "configure"
	OpRead        Op = "read"
	OpWrite       Op = "write"
	OpSerialOpen  Op = "serial_open"
	OpSerialRead  Op = "serial_read"
	OpSerialWrite Op = "serial_write"
	OpDelay       Op = "delay"
)

// Event describes one driver operation performed on the board.
type Event struct {
	Op    Op
	Pin   uint32
	Level bool
	Value uint32
}

func (e Event) String() string {
	switch e.Op {
	case OpSerialRead, OpSerialWrite:
		return fmt.Sprintf("%s 0x%02x", e.Op, e.Value)
	case OpDelay:
		return fmt.Sprintf("%s %dms", e.Op, e.Value)
	case OpSerialOpen:
		return string(e.Op)
	default:
		return fmt.Sprintf("%s gpio%d level=%v", e.Op, e.Pin, e.Level)
	}
}

// SerialOpener replaces the simulated UART with another driver.
type SerialOpener func(hal.SerialConfig) (hal.Serial, error)

type line struct {
	dir   hal.Direction
	level bool
	wired []int
}

// Board is a simulated hal.Board. It is safe for concurrent use.
type Board struct {
	pins     *hal.PinMap
	lines    []line
	faults   map[Op]error
	uart     *UART
	opener   SerialOpener
	sleep    func(time.Duration)
	observer func(Event)
	mu       sync.Mutex
	resets   int
	delayed  time.Duration
}

// Option configures a Board.
type Option func(*Board)

// WithLoopback wires output pin out to input pin in.
// Unsupported pins are ignored.
func WithLoopback(out, in uint32) Option {
	return func(b *Board) {
		o, ok1 := b.pins.Lookup(out)
		i, ok2 := b.pins.Lookup(in)
		if !ok1 || !ok2 {
			return
		}
		b.lines[o.Index()].wired = append(b.lines[o.Index()].wired, i.Index())
	}
}

// WithUARTLoopback queues every transmitted byte for reception.
func WithUARTLoopback() Option {
	return func(b *Board) { b.uart.loopback = true }
}

// WithUARTTap copies transmitted bytes to w.
func WithUARTTap(w io.Writer) Option {
	return func(b *Board) { b.uart.tap = w }
}

// WithSerialOpener makes OpenSerial use fn instead of the simulated UART.
func WithSerialOpener(fn SerialOpener) Option {
	return func(b *Board) { b.opener = fn }
}

// WithSleep replaces the delay clock. Tests pass a no-op.
func WithSleep(fn func(time.Duration)) Option {
	return func(b *Board) { b.sleep = fn }
}

// WithObserver receives every driver event. It is called without the board
// lock held.
func WithObserver(fn func(Event)) Option {
	return func(b *Board) { b.observer = fn }
}

// New creates a simulated board exposing pins.
func New(pins *hal.PinMap, opts ...Option) *Board {
	b := &Board{
		pins:   pins,
		lines:  make([]line, pins.Len()),
		faults: make(map[Op]error),
		uart:   newUART(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ hal.Board = (*Board)(nil)

// PinMap returns the supported lines.
func (b *Board) PinMap() *hal.PinMap { return b.pins }

// Fail makes every subsequent op return err. A nil err clears the fault.
func (b *Board) Fail(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.faults, op)
		return
	}
	b.faults[op] = err
}

func (b *Board) fault(op Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.faults[op]
}

func (b *Board) emit(e Event) {
	if b.observer != nil {
		b.observer(e)
	}
}

func (b *Board) check(l hal.Line) error {
	if !l.Valid() || l.Index() >= len(b.lines) || b.pins.Line(l.Index()) != l {
		return errors.InvalidInput(errors.PhaseHAL, "line "+l.String()+" does not belong to this board")
	}
	return nil
}

// Reset clears the line configuration and drives it low.
func (b *Board) Reset(l hal.Line) error {
	if err := b.check(l); err != nil {
		return err
	}
	if err := b.fault(OpReset); err != nil {
		return errors.Hardware("reset "+l.String(), err)
	}
	b.mu.Lock()
	b.resets++
	ln := &b.lines[l.Index()]
	wasOutput := ln.dir == hal.DirectionOutput
	ln.dir = hal.DirectionNone
	if wasOutput {
		b.drive(l.Index(), false)
	}
	b.mu.Unlock()
	b.emit(Event{Op: OpReset, Pin: l.Pin()})
	return nil
}

func (b *Board) configure(l hal.Line, dir hal.Direction) error {
	if err := b.check(l); err != nil {
		return err
	}
	if err := b.fault(OpConfigure); err != nil {
		return errors.Hardware("configure "+l.String(), err)
	}
	b.mu.Lock()
	b.lines[l.Index()].dir = dir
	b.mu.Unlock()
	b.emit(Event{Op: OpConfigure, Pin: l.Pin(), Value: uint32(dir)})
	return nil
}

// Input configures l for reading.
func (b *Board) Input(l hal.Line) (hal.InputLine, error) {
	if err := b.configure(l, hal.DirectionInput); err != nil {
		return nil, err
	}
	return &inputLine{board: b, line: l}, nil
}

// Output configures l for driving.
func (b *Board) Output(l hal.Line) (hal.OutputLine, error) {
	if err := b.configure(l, hal.DirectionOutput); err != nil {
		return nil, err
	}
	return &outputLine{board: b, line: l}, nil
}

// drive sets a level and propagates it through loopback wires.
// Caller holds b.mu.
func (b *Board) drive(i int, level bool) {
	b.lines[i].level = level
	for _, j := range b.lines[i].wired {
		b.lines[j].level = level
	}
}

// SetLevel drives a pin from outside the board, as a button or sensor
// would. It fails for unsupported pins.
func (b *Board) SetLevel(pin uint32, level bool) error {
	l, ok := b.pins.Lookup(pin)
	if !ok {
		return errors.NotFound(errors.PhaseHAL, "pin", fmt.Sprint(pin))
	}
	b.mu.Lock()
	b.lines[l.Index()].level = level
	b.mu.Unlock()
	return nil
}

// Level returns the current level and direction of a pin.
func (b *Board) Level(pin uint32) (level bool, dir hal.Direction, ok bool) {
	l, ok := b.pins.Lookup(pin)
	if !ok {
		return false, hal.DirectionNone, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ln := b.lines[l.Index()]
	return ln.level, ln.dir, true
}

// Resets returns the number of successful line resets.
func (b *Board) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resets
}

// OpenSerial opens the simulated UART, or the driver installed with
// WithSerialOpener.
func (b *Board) OpenSerial(cfg hal.SerialConfig) (hal.Serial, error) {
	if err := b.fault(OpSerialOpen); err != nil {
		return nil, errors.Hardware("open serial", err)
	}
	if b.opener != nil {
		s, err := b.opener(cfg)
		if err != nil {
			return nil, errors.Hardware("open serial", err)
		}
		return s, nil
	}
	b.uart.open(cfg.Baud)
	b.emit(Event{Op: OpSerialOpen, Value: cfg.Baud})
	return &port{board: b}, nil
}

// UART returns the simulated UART.
func (b *Board) UART() *UART { return b.uart }

// Delay sleeps on the board clock.
func (b *Board) Delay(ms uint32) {
	d := time.Duration(ms) * time.Millisecond
	b.mu.Lock()
	b.delayed += d
	b.mu.Unlock()
	b.emit(Event{Op: OpDelay, Value: ms})
	b.sleep(d)
}

// Delayed returns the accumulated delay time.
func (b *Board) Delayed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delayed
}

type inputLine struct {
	board *Board
	line  hal.Line
}

func (i *inputLine) IsHigh() (bool, error) {
	if err := i.board.fault(OpRead); err != nil {
		return false, errors.Hardware("read "+i.line.String(), err)
	}
	i.board.mu.Lock()
	level := i.board.lines[i.line.Index()].level
	i.board.mu.Unlock()
	i.board.emit(Event{Op: OpRead, Pin: i.line.Pin(), Level: level})
	return level, nil
}

type outputLine struct {
	board *Board
	line  hal.Line
}

func (o *outputLine) set(level bool) error {
	if err := o.board.fault(OpWrite); err != nil {
		return errors.Hardware("write "+o.line.String(), err)
	}
	o.board.mu.Lock()
	o.board.drive(o.line.Index(), level)
	o.board.mu.Unlock()
	o.board.emit(Event{Op: OpWrite, Pin: o.line.Pin(), Level: level})
	return nil
}

func (o *outputLine) SetHigh() error { return o.set(true) }
func (o *outputLine) SetLow() error  { return o.set(false) }

// Drop returns the line to its unconfigured state when the host releases it.
func (o *outputLine) Drop() {
	o.board.mu.Lock()
	o.board.lines[o.line.Index()].dir = hal.DirectionNone
	o.board.mu.Unlock()
}

// Drop returns the line to its unconfigured state when the host releases it.
func (i *inputLine) Drop() {
	i.board.mu.Lock()
	i.board.lines[i.line.Index()].dir = hal.DirectionNone
	i.board.mu.Unlock()
}
