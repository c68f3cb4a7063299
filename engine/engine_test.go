package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/demo"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/wasm"
)

func newEngine(t *testing.T) *WazeroEngine {
	t.Helper()
	ctx := context.Background()
	eng, err := NewWazeroEngine(ctx, &Config{MemoryLimitPages: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Close(ctx) })
	return eng
}

func newHost(t *testing.T, opts ...sim.Option) (*host.Runtime, *sim.Board, *bytes.Buffer) {
	t.Helper()
	pins, err := hal.ESP32C3.PinMap()
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]sim.Option{sim.WithSleep(func(time.Duration) {})}, opts...)
	board := sim.New(pins, opts...)
	var diag bytes.Buffer
	return host.New(board, host.WithDiagnostics(&diag)), board, &diag
}

// guest builds a module exporting memory and a start function with body.
func guest(body func(m *wasm.Module, c *wasm.Code)) []byte {
	m := &wasm.Module{}
	var c wasm.Code
	body(m, &c)
	c.End()
	m.AddMemory(1, nil)
	m.ExportMemory(MemoryExport, 0)
	start := m.AddFunc(m.AddType(wasm.FuncType{}), nil, c.Bytes())
	m.ExportFunc(DefaultEntry, start)
	return m.Encode()
}

func importHost(m *wasm.Module, idx abi.Index) uint32 {
	fn, _ := abi.Lookup(idx)
	var ft wasm.FuncType
	for _, vt := range fn.CoreParams() {
		ft.Params = append(ft.Params, wasm.ValType(vt))
	}
	for _, vt := range fn.CoreResults() {
		ft.Results = append(ft.Results, wasm.ValType(vt))
	}
	return m.ImportFunc(abi.ModuleName, fn.Name, ft)
}

func TestRun_Demo(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	rt, board, diag := newHost(t)
	_ = board.SetLevel(10, true)

	mod, err := eng.Compile(ctx, demo.Blink(demo.DefaultOptions()))
	if err != nil {
		t.Fatal(err)
	}
	if len(mod.ImportNames()) != 7 {
		t.Errorf("ImportNames() = %v", mod.ImportNames())
	}
	inst, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close(ctx)

	if err := inst.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := string(board.UART().Transmitted()); got != "111" {
		t.Errorf("uart = %q, want 111", got)
	}
	if board.Delayed() != 3*time.Second {
		t.Errorf("delayed %v", board.Delayed())
	}
	if !strings.Contains(diag.String(), "wasm-hal demo: start\n") || !strings.HasSuffix(diag.String(), "wasm-hal demo: done\n") {
		t.Errorf("diagnostics = %q", diag.String())
	}
	s := rt.Snapshot()
	if len(s.Outputs) != 1 || len(s.Inputs) != 1 || len(s.UART) != 1 || s.UART[0].Handle != 1 {
		t.Errorf("snapshot = %+v", s)
	}

	if err := inst.Run(ctx); err == nil {
		t.Error("entry ran twice")
	}
}

func TestRun_DemoReportsInitFailure(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	rt, board, diag := newHost(t)

	opts := demo.DefaultOptions()
	opts.LED = 255
	mod, err := eng.Compile(ctx, demo.Blink(opts))
	if err != nil {
		t.Fatal(err)
	}
	inst, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close(ctx)
	if err := inst.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diag.String(), "gpio_init failed") {
		t.Errorf("diagnostics = %q", diag.String())
	}
	if board.UART().Opened() != 0 {
		t.Error("uart opened after failed init")
	}
}

func TestInstantiate_SingleInstance(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	rt, _, _ := newHost(t)
	bin := guest(func(*wasm.Module, *wasm.Code) {})

	mod, err := eng.Compile(ctx, bin)
	if err != nil {
		t.Fatal(err)
	}
	first, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	_, err = mod.Instantiate(ctx, rt)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindAlreadyLoaded}) {
		t.Fatalf("second Instantiate err = %v", err)
	}

	if err := first.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := first.Run(ctx); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindClosed}) {
		t.Errorf("Run after Close err = %v", err)
	}
	second, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatalf("Instantiate after Close: %v", err)
	}
	defer second.Close(ctx)
	if second.Memory() == nil || second.Memory().Size() != 65536 {
		t.Error("guest memory not exposed")
	}
}

func TestRun_GuestTrap(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	rt, _, _ := newHost(t)

	bin := guest(func(m *wasm.Module, c *wasm.Code) {
		init := importHost(m, abi.GPIOInit)
		c.I32Const(0).I32Const(8).I32Const(0).Call(init).Drop().
			Unreachable()
	})
	mod, err := eng.Compile(ctx, bin)
	if err != nil {
		t.Fatal(err)
	}
	inst, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	err = inst.Run(ctx)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTrap}) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("err = %v", err)
	}

	// the host survives: state from before the trap is intact
	if len(rt.Snapshot().Outputs) != 1 {
		t.Error("host state lost after trap")
	}
	// the trapped instance released its slot
	again, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatalf("Instantiate after trap: %v", err)
	}
	again.Close(ctx)
}

func TestHostFunc_TrapsOnDispatchError(t *testing.T) {
	rt, _, _ := newHost(t)
	inst := &WazeroInstance{engine: newEngine(t), host: rt}
	inst.bindOnce.Do(func() {})
	fn := inst.hostFunc(abi.Index(abi.Len() + 3))

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn(context.Background(), nil, make([]uint64, 4))
	}()
	err, ok := recovered.(error)
	if !ok {
		t.Fatalf("recovered %v", recovered)
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindTrap}) {
		t.Errorf("panic value = %v", err)
	}
	if trap := inst.takeTrap(); trap == nil || trap.Kind != errors.KindTrap {
		t.Errorf("recorded trap = %v", trap)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	eng := newEngine(t)
	rt, _, _ := newHost(t)

	bin := guest(func(_ *wasm.Module, c *wasm.Code) {
		c.Loop().Br(0).End()
	})
	mod, err := eng.Compile(context.Background(), bin)
	if err != nil {
		t.Fatal(err)
	}
	inst, err := mod.Instantiate(context.Background(), rt)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = inst.Run(ctx)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindClosed}) {
		t.Fatalf("err = %v", err)
	}
}

func TestRun_MemoryBoundForHostCalls(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	rt, _, diag := newHost(t)

	bin := guest(func(m *wasm.Module, c *wasm.Code) {
		say := importHost(m, abi.Println)
		m.AddData(100, []byte("hello from guest"))
		c.I32Const(100).I32Const(16).Call(say).
			I32Const(65530).I32Const(100).Call(say) // out of bounds, skipped
	})
	mod, err := eng.Compile(ctx, bin)
	if err != nil {
		t.Fatal(err)
	}
	inst, err := mod.Instantiate(ctx, rt)
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Close(ctx)
	if err := inst.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if diag.String() != "hello from guest\n" {
		t.Errorf("diagnostics = %q", diag.String())
	}
}

func TestCompile_InvalidBinary(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Compile(context.Background(), []byte("not wasm"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Errorf("err = %v", err)
	}
}

func TestEntryConfig(t *testing.T) {
	ctx := context.Background()
	eng, _ := NewWazeroEngine(ctx, &Config{Entry: "main"})
	defer eng.Close(ctx)
	if eng.Entry() != "main" {
		t.Fatalf("Entry() = %q", eng.Entry())
	}
	// guest exports "start", not "main"
	_, err := eng.Compile(ctx, guest(func(*wasm.Module, *wasm.Code) {}))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLink, Kind: errors.KindMissingExport}) {
		t.Errorf("err = %v", err)
	}
}
