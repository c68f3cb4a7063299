package runtime

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/config"
	"github.com/wippyai/wasm-hal/engine"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/serialport"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/trace"
)

// Runtime owns the board, the host dispatcher and the engine.
type Runtime struct {
	cfg    *config.Config
	engine *engine.WazeroEngine
	board  hal.Board
	sim    *sim.Board
	host   *host.Runtime
	trace  *trace.Recorder
	log    *zap.Logger
}

type options struct {
	board     hal.Board
	log       *zap.Logger
	diag      io.Writer
	observers []host.CallObserver
	simOpts   []sim.Option
}

// Option configures a Runtime.
type Option func(*options)

// WithBoard drives b instead of the simulated board.
func WithBoard(b hal.Board) Option {
	return func(o *options) { o.board = b }
}

// WithLogger sets the host logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDiagnostics sends guest print output to w.
func WithDiagnostics(w io.Writer) Option {
	return func(o *options) { o.diag = w }
}

// WithCallObserver adds an observer of every host call.
func WithCallObserver(obs host.CallObserver) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithSimOptions passes extra options to the simulated board.
func WithSimOptions(opts ...sim.Option) Option {
	return func(o *options) { o.simOpts = append(o.simOpts, opts...) }
}

// New builds a runtime from cfg. A nil cfg means config.Default().
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = host.Logger()
	}

	r := &Runtime{cfg: cfg, log: o.log, board: o.board}
	if r.board == nil {
		b, err := newSimBoard(cfg, o.simOpts)
		if err != nil {
			return nil, err
		}
		r.board, r.sim = b, b
	}

	deinit, err := cfg.DeinitPolicy()
	if err != nil {
		return nil, err
	}
	hostOpts := []host.Option{
		host.WithLogger(o.log),
		host.WithDeinitPolicy(deinit),
		host.WithBaudRate(cfg.UART.Baud),
	}
	if o.diag != nil {
		hostOpts = append(hostOpts, host.WithDiagnostics(o.diag))
	}
	if cfg.Trace.Path != "" {
		rec, err := trace.Create(cfg.Trace.Path)
		if err != nil {
			return nil, err
		}
		r.trace = rec
		hostOpts = append(hostOpts, host.WithCallObserver(rec))
	}
	for _, obs := range o.observers {
		hostOpts = append(hostOpts, host.WithCallObserver(obs))
	}
	r.host = host.New(r.board, hostOpts...)

	eng, err := engine.NewWazeroEngine(ctx, cfg.EngineConfig())
	if err != nil {
		r.closeTrace()
		return nil, errors.Load("create engine", err)
	}
	r.engine = eng

	r.log.Debug("runtime ready",
		zap.Int("pins", r.board.PinMap().Len()),
		zap.Uint32("baud", cfg.UART.Baud),
		zap.Stringer("deinit", deinit),
		zap.Bool("simulated", r.sim != nil))
	return r, nil
}

func newSimBoard(cfg *config.Config, extra []sim.Option) (*sim.Board, error) {
	pins, err := cfg.PinMap()
	if err != nil {
		return nil, err
	}
	var opts []sim.Option
	for _, w := range cfg.Board.Loopback {
		opts = append(opts, sim.WithLoopback(w[0], w[1]))
	}
	if cfg.UART.Device != "" {
		opts = append(opts, sim.WithSerialOpener(serialport.Opener(serialport.Config{
			Device: cfg.UART.Device,
			Baud:   int(cfg.UART.Baud),
		})))
	} else {
		opts = append(opts, sim.WithUARTLoopback())
	}
	return sim.New(pins, append(opts, extra...)...), nil
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() *config.Config { return r.cfg }

// Host returns the host dispatcher.
func (r *Runtime) Host() *host.Runtime { return r.host }

// Board returns the driven board.
func (r *Runtime) Board() hal.Board { return r.board }

// Sim returns the simulated board, nil when WithBoard was used.
func (r *Runtime) Sim() *sim.Board { return r.sim }

// LoadWASM compiles and links a guest module.
func (r *Runtime) LoadWASM(ctx context.Context, bin []byte) (*Module, error) {
	compiled, err := r.engine.Compile(ctx, bin)
	if err != nil {
		return nil, err
	}
	return &Module{runtime: r, compiled: compiled}, nil
}

// RunWASM loads, instantiates and runs bin to completion.
func (r *Runtime) RunWASM(ctx context.Context, bin []byte) error {
	mod, err := r.LoadWASM(ctx, bin)
	if err != nil {
		return err
	}
	defer mod.Close(ctx)

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)
	return inst.Run(ctx)
}

// Close releases the engine, every held peripheral and the trace file.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	err := r.host.Close()
	if cerr := r.engine.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := r.closeTrace(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (r *Runtime) closeTrace() error {
	if r.trace == nil {
		return nil
	}
	err := r.trace.Close()
	r.trace = nil
	return err
}
