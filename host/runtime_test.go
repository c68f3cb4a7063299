package host

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
	herrors "github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/memory"
	"github.com/wippyai/wasm-hal/resource"
)

type fixture struct {
	rt    *Runtime
	board *sim.Board
	mem   *memory.Buffer
	diag  *bytes.Buffer
}

func newFixture(t *testing.T, boardOpts []sim.Option, opts ...Option) *fixture {
	t.Helper()
	pins, err := hal.ESP32C3.PinMap()
	if err != nil {
		t.Fatal(err)
	}
	boardOpts = append([]sim.Option{sim.WithSleep(func(time.Duration) {})}, boardOpts...)
	f := &fixture{
		board: sim.New(pins, boardOpts...),
		mem:   memory.NewBuffer(1024),
		diag:  &bytes.Buffer{},
	}
	opts = append([]Option{WithDiagnostics(f.diag)}, opts...)
	f.rt = New(f.board, opts...)
	f.rt.Bind(f.mem)
	return f
}

func expect(t *testing.T, what string, got, want code.Code) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}

func TestGPIOInit_RejectsUnsupported(t *testing.T) {
	f := newFixture(t, nil)
	tests := []struct {
		port, pin uint32
		want      code.Code
	}{
		{1, 8, code.UnsupportedPort},
		{0xFFFFFFFF, 8, code.UnsupportedPort},
		{0, 0, code.UnsupportedPin},
		{0, 12, code.UnsupportedPin},
		{0, 255, code.UnsupportedPin},
		{0, 256 + 8, code.UnsupportedPin},
	}
	for _, tt := range tests {
		for _, input := range []bool{true, false} {
			got := f.rt.GPIOInit(tt.port, tt.pin, input)
			if got != tt.want {
				t.Errorf("GPIOInit(%d, %d, %v) = %v, want %v", tt.port, tt.pin, input, got, tt.want)
			}
		}
	}
	s := f.rt.Snapshot()
	if len(s.Inputs) != 0 || len(s.Outputs) != 0 {
		t.Errorf("tables mutated: %+v", s)
	}
	if f.board.Resets() != 0 {
		t.Errorf("hardware touched %d times", f.board.Resets())
	}
}

func TestGPIOInit_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	expect(t, "init output", f.rt.GPIOInit(0, 8, false), code.OK)
	expect(t, "init output again", f.rt.GPIOInit(0, 8, false), code.PinInUse)
	expect(t, "init as input", f.rt.GPIOInit(0, 8, true), code.PinInUse)

	expect(t, "init input", f.rt.GPIOInit(0, 10, true), code.OK)
	expect(t, "init input again", f.rt.GPIOInit(0, 10, true), code.PinInUse)
	expect(t, "init as output", f.rt.GPIOInit(0, 10, false), code.PinInUse)

	if f.board.Resets() != 2 {
		t.Errorf("Resets() = %d, duplicate init touched hardware", f.board.Resets())
	}
	s := f.rt.Snapshot()
	if len(s.Inputs) != 1 || len(s.Outputs) != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestGPIO_LoopbackRoundTrip(t *testing.T) {
	f := newFixture(t, []sim.Option{sim.WithLoopback(8, 10)})
	expect(t, "init out", f.rt.GPIOInit(0, 8, false), code.OK)
	expect(t, "init in", f.rt.GPIOInit(0, 10, true), code.OK)

	for _, v := range []uint32{1, 0, 7, 0} {
		expect(t, "write", f.rt.GPIOWrite(0, 8, v), code.OK)
		expect(t, "read", f.rt.GPIORead(0, 10, 100), code.OK)
		got, _ := f.mem.ReadU8(100)
		want := uint8(0)
		if v != 0 {
			want = 1
		}
		if got != want {
			t.Errorf("wrote %d, read %d", v, got)
		}
	}
}

func TestGPIO_WrongDirection(t *testing.T) {
	f := newFixture(t, nil)
	expect(t, "init", f.rt.GPIOInit(0, 8, false), code.OK)
	expect(t, "set high", f.rt.GPIOWrite(0, 8, 1), code.OK)

	if d := f.rt.Claimed(hal.PinID{Pin: 8}); d != hal.DirectionOutput {
		t.Errorf("Claimed = %v", d)
	}
	_ = f.mem.WriteU8(50, 0xAA)
	expect(t, "read output pin", f.rt.GPIORead(0, 8, 50), code.NotInput)
	if v, _ := f.mem.ReadU8(50); v != 0xAA {
		t.Error("failed read wrote memory")
	}

	expect(t, "init input", f.rt.GPIOInit(0, 9, true), code.OK)
	expect(t, "write input pin", f.rt.GPIOWrite(0, 9, 1), code.NotOutput)
	expect(t, "write unclaimed", f.rt.GPIOWrite(0, 4, 1), code.NotOutput)
	expect(t, "write bad port", f.rt.GPIOWrite(2, 4, 1), code.UnsupportedPort)
	expect(t, "read bad pin", f.rt.GPIORead(0, 99, 0), code.UnsupportedPin)

	level, _, _ := f.board.Level(8)
	if !level {
		t.Error("pin 8 not driven high")
	}
}

func TestGPIORead_OutOfBounds(t *testing.T) {
	f := newFixture(t, nil)
	expect(t, "init", f.rt.GPIOInit(0, 10, true), code.OK)
	expect(t, "read", f.rt.GPIORead(0, 10, f.mem.Size()), code.Memory)
	expect(t, "read far", f.rt.GPIORead(0, 10, 0xFFFFFFFF), code.Memory)
}

func TestGPIODeinit_Policies(t *testing.T) {
	t.Run("output only", func(t *testing.T) {
		f := newFixture(t, nil)
		expect(t, "init out", f.rt.GPIOInit(0, 8, false), code.OK)
		expect(t, "init in", f.rt.GPIOInit(0, 10, true), code.OK)

		expect(t, "deinit out", f.rt.GPIODeinit(0, 8), code.OK)
		expect(t, "deinit in", f.rt.GPIODeinit(0, 10), code.OK)
		expect(t, "deinit unclaimed", f.rt.GPIODeinit(0, 3), code.OK)
		expect(t, "deinit bad port", f.rt.GPIODeinit(5, 3), code.OK)

		s := f.rt.Snapshot()
		if len(s.Outputs) != 0 {
			t.Errorf("outputs = %v", s.Outputs)
		}
		if len(s.Inputs) != 1 || s.Inputs[0].Pin != 10 {
			t.Errorf("inputs = %v, input claim should persist", s.Inputs)
		}
		expect(t, "reclaim output", f.rt.GPIOInit(0, 8, true), code.OK)
		expect(t, "reclaim input", f.rt.GPIOInit(0, 10, true), code.PinInUse)
	})

	t.Run("any", func(t *testing.T) {
		f := newFixture(t, nil, WithDeinitPolicy(DeinitAny))
		expect(t, "init in", f.rt.GPIOInit(0, 10, true), code.OK)
		expect(t, "deinit in", f.rt.GPIODeinit(0, 10), code.OK)
		if n := len(f.rt.Snapshot().Inputs); n != 0 {
			t.Errorf("inputs = %d", n)
		}
		expect(t, "reclaim", f.rt.GPIOInit(0, 10, false), code.OK)
	})
}

func TestGPIODeinit_ReleasesLine(t *testing.T) {
	f := newFixture(t, nil)
	expect(t, "init", f.rt.GPIOInit(0, 8, false), code.OK)
	if _, dir, _ := f.board.Level(8); dir != hal.DirectionOutput {
		t.Fatalf("dir = %v", dir)
	}
	f.rt.GPIODeinit(0, 8)
	if _, dir, _ := f.board.Level(8); dir != hal.DirectionNone {
		t.Errorf("dir after deinit = %v", dir)
	}
}

func TestParseDeinitPolicy(t *testing.T) {
	for in, want := range map[string]DeinitPolicy{"": DeinitOutputOnly, "output": DeinitOutputOnly, "any": DeinitAny} {
		got, err := ParseDeinitPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseDeinitPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDeinitPolicy("input"); err == nil {
		t.Error("expected error")
	}
	if DeinitAny.String() != "any" || DeinitOutputOnly.String() != "output" {
		t.Error("String()")
	}
}

func TestGPIO_HardwareFailures(t *testing.T) {
	f := newFixture(t, nil)
	boom := errors.New("boom")

	f.board.Fail(sim.OpReset, boom)
	expect(t, "init with reset fault", f.rt.GPIOInit(0, 8, false), code.Hardware)
	f.board.Fail(sim.OpReset, nil)

	f.board.Fail(sim.OpConfigure, boom)
	expect(t, "init with configure fault", f.rt.GPIOInit(0, 8, false), code.Hardware)
	f.board.Fail(sim.OpConfigure, nil)

	if s := f.rt.Snapshot(); len(s.Outputs) != 0 || len(s.Inputs) != 0 {
		t.Fatalf("failed init recorded: %+v", s)
	}

	expect(t, "init out", f.rt.GPIOInit(0, 8, false), code.OK)
	expect(t, "init in", f.rt.GPIOInit(0, 9, true), code.OK)
	f.board.Fail(sim.OpWrite, boom)
	expect(t, "write", f.rt.GPIOWrite(0, 8, 1), code.Hardware)
	f.board.Fail(sim.OpRead, boom)
	_ = f.mem.WriteU8(0, 0x55)
	expect(t, "read", f.rt.GPIORead(0, 9, 0), code.Hardware)
	if v, _ := f.mem.ReadU8(0); v != 0x55 {
		t.Error("failed read wrote memory")
	}
}

func TestNoMemoryBound(t *testing.T) {
	f := newFixture(t, nil)
	f.rt.Bind(nil)
	expect(t, "init", f.rt.GPIOInit(0, 10, true), code.OK)
	expect(t, "read", f.rt.GPIORead(0, 10, 0), code.Memory)
	expect(t, "uart init", f.rt.UARTInit(0, UARTPins{TXPin: 3, RXPin: 2}), code.Memory)
	f.rt.Print(0, 4) // must not panic
}

func TestClose_ReleasesEverything(t *testing.T) {
	f := newFixture(t, nil)
	f.rt.GPIOInit(0, 8, false)
	f.rt.GPIOInit(0, 10, true)
	f.rt.UARTInit(0, UARTPins{TXPin: 3, RXPin: 2})
	if err := f.rt.Close(); err != nil {
		t.Fatal(err)
	}
	s := f.rt.Snapshot()
	if len(s.Inputs)+len(s.Outputs)+len(s.UART) != 0 {
		t.Errorf("snapshot after close = %+v", s)
	}
	if s.LastHandle != 1 {
		t.Errorf("LastHandle = %d", s.LastHandle)
	}
}

type eventLog struct {
	events []resource.Event
}

func (l *eventLog) OnResourceEvent(e resource.Event) { l.events = append(l.events, e) }

func TestSubscribe(t *testing.T) {
	f := newFixture(t, nil)
	log := &eventLog{}
	f.rt.Subscribe(log)

	f.rt.GPIOInit(0, 8, false)
	f.rt.GPIODeinit(0, 8)
	f.rt.UARTInit(0, UARTPins{TXPin: 3, RXPin: 2})

	if len(log.events) != 3 {
		t.Fatalf("events = %v", log.events)
	}
	if log.events[0].Table != "gpio.output" || log.events[1].Type != resource.EventDropped {
		t.Errorf("events = %v", log.events)
	}
	if log.events[2].Table != "uart" || log.events[2].Handle != 1 {
		t.Errorf("uart event = %v", log.events[2])
	}

	f.rt.Unsubscribe(log)
	f.rt.GPIOInit(0, 9, false)
	if len(log.events) != 3 {
		t.Error("unsubscribed observer notified")
	}
}

// callRecorder collects dispatched calls.
type callRecorder struct {
	calls []Call
}

func (c *callRecorder) OnCall(call Call) { c.calls = append(c.calls, call) }

func dispatch(t *testing.T, rt *Runtime, idx abi.Index, args ...uint32) int32 {
	t.Helper()
	stack := make([]uint64, len(args)+1)
	for i, a := range args {
		stack[i] = api.EncodeU32(a)
	}
	if err := rt.Dispatch(idx, stack); err != nil {
		t.Fatalf("Dispatch(%s): %v", abi.Name(idx), err)
	}
	return api.DecodeI32(stack[0])
}

func TestDispatch_RoutesByIndex(t *testing.T) {
	rec := &callRecorder{}
	f := newFixture(t, []sim.Option{sim.WithLoopback(8, 10)}, WithCallObserver(rec))

	if got := dispatch(t, f.rt, abi.GPIOInit, 0, 8, 0); got != 0 {
		t.Fatalf("gpio_init out = %d", got)
	}
	// any non-zero is_input means input
	if got := dispatch(t, f.rt, abi.GPIOInit, 0, 10, 42); got != 0 {
		t.Fatalf("gpio_init in = %d", got)
	}
	if d := f.rt.Claimed(hal.PinID{Pin: 10}); d != hal.DirectionInput {
		t.Fatalf("pin 10 claimed as %v", d)
	}
	dispatch(t, f.rt, abi.GPIOWrite, 0, 8, 1)
	if got := dispatch(t, f.rt, abi.GPIORead, 0, 10, 64); got != 0 {
		t.Fatalf("gpio_read = %d", got)
	}
	if v, _ := f.mem.ReadU8(64); v != 1 {
		t.Errorf("level = %d", v)
	}
	if got := dispatch(t, f.rt, abi.GPIOInit, 0, 255, 1); got != int32(code.UnsupportedPin) {
		t.Errorf("gpio_init(255) = %d", got)
	}
	dispatch(t, f.rt, abi.DelayMs, 500)
	if f.board.Delayed() != 500*time.Millisecond {
		t.Errorf("Delayed() = %v", f.board.Delayed())
	}

	if len(rec.calls) != 6 {
		t.Fatalf("observed %d calls", len(rec.calls))
	}
	bad := rec.calls[4]
	if bad.Name != "gpio_init" || bad.Result != code.UnsupportedPin || !bad.HasResult {
		t.Errorf("call = %+v", bad)
	}
	if rec.calls[5].HasResult || rec.calls[5].Args[0] != 500 {
		t.Errorf("delay call = %+v", rec.calls[5])
	}
	if f.rt.Snapshot().Calls != 6 {
		t.Errorf("Calls = %d", f.rt.Snapshot().Calls)
	}
}

func TestDispatch_UnknownIndexTraps(t *testing.T) {
	f := newFixture(t, nil)
	stack := make([]uint64, 4)
	err := f.rt.Dispatch(abi.Index(abi.Len()), stack)
	if !errors.Is(err, &herrors.Error{Phase: herrors.PhaseCall, Kind: herrors.KindTrap}) {
		t.Fatalf("err = %v", err)
	}
	if f.rt.Snapshot().Calls != 0 {
		t.Error("trap counted as call")
	}

	err = f.rt.Dispatch(abi.GPIOInit, make([]uint64, 2))
	if !errors.Is(err, &herrors.Error{Phase: herrors.PhaseCall, Kind: herrors.KindTrap}) {
		t.Fatalf("short stack err = %v", err)
	}
}

func TestDispatch_HandleNotTruncated(t *testing.T) {
	f := newFixture(t, []sim.Option{sim.WithUARTLoopback()})
	if got := dispatch(t, f.rt, abi.UARTInit, 0, 0, 3, 0, 2, 0, 0, 0, 0); got != 0 {
		t.Fatalf("uart_init = %d", got)
	}
	h, _ := f.mem.ReadU8(0)
	if h != 1 {
		t.Fatalf("handle = %d", h)
	}
	// 257 would alias handle 1 if truncated to u8
	if got := dispatch(t, f.rt, abi.UARTWrite, 257, 'A'); got != int32(code.UnknownHandle) {
		t.Errorf("uart_write(257) = %d", got)
	}
	// word keeps its low byte
	if got := dispatch(t, f.rt, abi.UARTWrite, 1, 0x141); got != 0 {
		t.Errorf("uart_write = %d", got)
	}
	if got := f.board.UART().Transmitted(); !bytes.Equal(got, []byte{0x41}) {
		t.Errorf("transmitted = %x", got)
	}
	if got := dispatch(t, f.rt, abi.UARTRead, 1, 8); got != 0 {
		t.Errorf("uart_read = %d", got)
	}
	if v, _ := f.mem.ReadU8(8); v != 0x41 {
		t.Errorf("read byte = %x", v)
	}
}

func TestHandlersCoverTable(t *testing.T) {
	if len(handlers) != abi.Len() {
		t.Fatalf("%d handlers for %d functions", len(handlers), abi.Len())
	}
	for i, h := range handlers {
		if h == nil {
			t.Errorf("no handler for %s", abi.Name(abi.Index(i)))
		}
	}
}

func TestSnapshot_DuringBlockedRead(t *testing.T) {
	f := newFixture(t, nil)
	expect(t, "uart init", f.rt.UARTInit(0, UARTPins{TXPin: 3, RXPin: 2}), code.OK)

	done := make(chan code.Code, 1)
	go func() { done <- f.rt.UARTRead(1, 16) }()

	time.Sleep(20 * time.Millisecond)
	snap := make(chan Snapshot, 1)
	go func() { snap <- f.rt.Snapshot() }()

	deadline := time.After(2 * time.Second)
	select {
	case s := <-snap:
		if len(s.UART) != 1 || s.UART[0].Handle != 1 {
			t.Errorf("snapshot UART = %+v", s.UART)
		}
	case <-deadline:
		t.Fatal("snapshot blocked behind a UART read")
	}

	f.board.UART().Feed([]byte{'z'})
	select {
	case c := <-done:
		expect(t, "uart read", c, code.OK)
	case <-deadline:
		t.Fatal("read did not complete")
	}
	if v, _ := f.mem.ReadU8(16); v != 'z' {
		t.Errorf("byte = %q", v)
	}
}
