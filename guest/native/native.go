//go:build !wasm

// Package native runs guest code in the host process.
//
// A Backend stands in for the wasm import boundary: every guest ABI call is
// marshalled into a scratch linear memory and dispatched to a host.Runtime
// exactly as the engine would dispatch it, so guest libraries and programs
// can be exercised natively against a simulated or real board.
//
//	rt := host.New(sim.New(pins))
//	b := native.Attach(rt)
//	defer b.Detach()
//	blink.Run(3)
package native

import (
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
	guestabi "github.com/wippyai/wasm-hal/guest/abi"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/memory"
)

// Scratch memory layout. Offset 0 stays unused so no out-pointer is null.
const (
	outAddr     = 16
	ctsPortAddr = 20
	ctsPinAddr  = 24
	rtsPortAddr = 28
	rtsPinAddr  = 32
	textAddr    = 64

	scratchSize = 4096
)

// Backend implements guest/abi.Backend over a host.Runtime.
type Backend struct {
	rt   *host.Runtime
	mem  *memory.Buffer
	prev guestabi.Backend
	mu   sync.Mutex
}

// New binds a fresh scratch memory to rt and returns a backend using it.
func New(rt *host.Runtime) *Backend {
	b := &Backend{rt: rt, mem: memory.NewBuffer(scratchSize)}
	rt.Bind(b.mem)
	return b
}

// Attach is New followed by installing the backend for guest/abi.
func Attach(rt *host.Runtime) *Backend {
	b := New(rt)
	b.prev = guestabi.SetBackend(b)
	return b
}

// Detach restores the backend that was active before Attach and unbinds
// the scratch memory.
func (b *Backend) Detach() {
	guestabi.SetBackend(b.prev)
	b.rt.Bind(nil)
}

// Memory returns the scratch memory.
func (b *Backend) Memory() *memory.Buffer { return b.mem }

// call dispatches idx. A trap here means the table and this backend
// disagree, which is a programming error.
func (b *Backend) call(idx abi.Index, args ...uint32) code.Code {
	stack := make([]uint64, max(len(args), 1))
	for i, a := range args {
		stack[i] = api.EncodeU32(a)
	}
	if err := b.rt.Dispatch(idx, stack); err != nil {
		panic(err)
	}
	return code.Code(api.DecodeI32(stack[0]))
}

func flag(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func (b *Backend) GPIOInit(port, pin uint32, input bool) code.Code {
	return b.call(abi.GPIOInit, port, pin, flag(input))
}

func (b *Backend) GPIODeinit(port, pin uint32) code.Code {
	return b.call(abi.GPIODeinit, port, pin)
}

func (b *Backend) GPIOWrite(port, pin, value uint32) code.Code {
	return b.call(abi.GPIOWrite, port, pin, value)
}

func (b *Backend) GPIORead(port, pin uint32) (uint8, code.Code) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.mem.WriteU8(outAddr, 0)
	c := b.call(abi.GPIORead, port, pin, outAddr)
	level, _ := b.mem.ReadU8(outAddr)
	return level, c
}

func (b *Backend) UARTInit(cfg guestabi.UARTConfig) (uint8, code.Code) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ctsPort, ctsPin := b.stage(cfg.CTS, ctsPortAddr, ctsPinAddr)
	rtsPort, rtsPin := b.stage(cfg.RTS, rtsPortAddr, rtsPinAddr)
	_ = b.mem.WriteU8(outAddr, 0)
	c := b.call(abi.UARTInit, outAddr,
		cfg.TX.Port, cfg.TX.Pin, cfg.RX.Port, cfg.RX.Pin,
		ctsPort, ctsPin, rtsPort, rtsPin)
	handle, _ := b.mem.ReadU8(outAddr)
	return handle, c
}

// stage writes an optional pin into scratch memory and returns its
// pointers, or two nulls.
func (b *Backend) stage(p *guestabi.PinRef, portAddr, pinAddr uint32) (uint32, uint32) {
	if p == nil {
		return 0, 0
	}
	_ = b.mem.WriteU32(portAddr, p.Port)
	_ = b.mem.WriteU32(pinAddr, p.Pin)
	return portAddr, pinAddr
}

func (b *Backend) UARTWrite(handle uint8, v byte) code.Code {
	return b.call(abi.UARTWrite, uint32(handle), uint32(v))
}

func (b *Backend) UARTRead(handle uint8) (byte, code.Code) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.call(abi.UARTRead, uint32(handle), outAddr)
	v, _ := b.mem.ReadU8(outAddr)
	return v, c
}

func (b *Backend) Print(s string) { b.text(abi.Print, s) }

func (b *Backend) Println(s string) { b.text(abi.Println, s) }

func (b *Backend) text(idx abi.Index, s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if need := textAddr + uint32(len(s)); need > b.mem.Size() {
		b.mem.Grow(need - b.mem.Size())
	}
	_ = b.mem.Write(textAddr, []byte(s))
	b.call(idx, textAddr, uint32(len(s)))
}

func (b *Backend) DelayMs(ms uint32) {
	b.call(abi.DelayMs, ms)
}

var _ guestabi.Backend = (*Backend)(nil)
