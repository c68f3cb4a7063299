package host

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	wasmhal "github.com/wippyai/wasm-hal"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/resource"
)

// DefaultBaudRate is the UART speed used unless WithBaudRate is given.
const DefaultBaudRate = 115200

// DeinitPolicy selects which table gpio_deinit releases from.
type DeinitPolicy uint8

const (
	// DeinitOutputOnly releases output claims only. Input claims persist
	// for the lifetime of the runtime.
	DeinitOutputOnly DeinitPolicy = iota
	// DeinitAny releases the identity from whichever table holds it.
	DeinitAny
)

func (p DeinitPolicy) String() string {
	if p == DeinitAny {
		return "any"
	}
	return "output"
}

// ParseDeinitPolicy accepts "output" and "any".
func ParseDeinitPolicy(s string) (DeinitPolicy, error) {
	switch s {
	case "", "output":
		return DeinitOutputOnly, nil
	case "any":
		return DeinitAny, nil
	}
	return 0, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Value(s).
		Detail("deinit policy %q (want output or any)", s).
		Build()
}

// Connection is the open UART. Dropping it closes the serial driver.
type Connection struct {
	Serial hal.Serial
	CTS    *hal.PinID
	RTS    *hal.PinID
	TX     hal.PinID
	RX     hal.PinID
	Baud   uint32
	Handle resource.Handle
}

// Drop closes the serial driver when the connection leaves the table.
func (c *Connection) Drop() {
	if c.Serial != nil {
		_ = c.Serial.Close()
	}
}

// Runtime owns the resource tables and executes host functions.
type Runtime struct {
	board     hal.Board
	pins      *hal.PinMap
	mem       wasmhal.Memory
	inputs    *resource.PinTable[hal.InputLine]
	outputs   *resource.PinTable[hal.OutputLine]
	uarts     *resource.HandleTable[*Connection]
	log       *zap.Logger
	diag      io.Writer
	observers []CallObserver
	mu        sync.Mutex
	memMu     sync.RWMutex
	baud      uint32
	deinit    DeinitPolicy
	calls     atomic.Uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// WithDiagnostics sets where print and println output goes.
func WithDiagnostics(w io.Writer) Option {
	return func(r *Runtime) { r.diag = w }
}

// WithDeinitPolicy sets the gpio_deinit behavior.
func WithDeinitPolicy(p DeinitPolicy) Option {
	return func(r *Runtime) { r.deinit = p }
}

// WithBaudRate sets the UART speed.
func WithBaudRate(baud uint32) Option {
	return func(r *Runtime) { r.baud = baud }
}

// WithCallObserver registers an observer for every dispatched call.
func WithCallObserver(o CallObserver) Option {
	return func(r *Runtime) { r.observers = append(r.observers, o) }
}

// New creates a runtime driving board.
func New(board hal.Board, opts ...Option) *Runtime {
	r := &Runtime{
		board:   board,
		pins:    board.PinMap(),
		inputs:  resource.NewPinTable[hal.InputLine]("gpio.input"),
		outputs: resource.NewPinTable[hal.OutputLine]("gpio.output"),
		uarts:   resource.NewHandleTable[*Connection]("uart"),
		diag:    os.Stdout,
		baud:    DefaultBaudRate,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = Logger()
	}
	return r
}

// Bind attaches guest linear memory. Calls that touch memory before Bind
// fail with code.Memory.
func (r *Runtime) Bind(mem wasmhal.Memory) {
	r.memMu.Lock()
	r.mem = mem
	r.memMu.Unlock()
}

func (r *Runtime) memory() wasmhal.Memory {
	r.memMu.RLock()
	defer r.memMu.RUnlock()
	return r.mem
}

// Board returns the driven board.
func (r *Runtime) Board() hal.Board { return r.board }

// Subscribe registers o for pin and UART lifecycle events.
func (r *Runtime) Subscribe(o resource.Observer) {
	r.inputs.Subscribe(o)
	r.outputs.Subscribe(o)
	r.uarts.Subscribe(o)
}

// Unsubscribe removes o from every table.
func (r *Runtime) Unsubscribe(o resource.Observer) {
	r.inputs.Unsubscribe(o)
	r.outputs.Unsubscribe(o)
	r.uarts.Unsubscribe(o)
}

// Close releases every claimed pin and the UART connection. Handle
// allocation is not reset.
func (r *Runtime) Close() error {
	r.uarts.Clear()
	r.outputs.Clear()
	r.inputs.Clear()
	r.Bind(nil)
	return nil
}
