package host

import (
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/resource"
)

// Call describes one dispatched host call.
type Call struct {
	Start     time.Time
	Name      string
	Args      []uint32
	Duration  time.Duration
	Index     abi.Index
	Result    code.Code
	HasResult bool
}

// CallObserver receives every dispatched call after it completes.
type CallObserver interface {
	OnCall(Call)
}

type handler func(r *Runtime, args []uint32) code.Code

// handlers is indexed by abi.Index and decodes arguments in table order.
var handlers = [...]handler{
	abi.UARTWrite: func(r *Runtime, a []uint32) code.Code {
		h, ok := decodeHandle(a[0])
		if !ok {
			return code.UnknownHandle
		}
		return r.uartWrite(h, byte(a[1]))
	},
	abi.UARTRead: func(r *Runtime, a []uint32) code.Code {
		h, ok := decodeHandle(a[0])
		if !ok {
			return code.UnknownHandle
		}
		return r.uartRead(h, a[1])
	},
	abi.UARTInit: func(r *Runtime, a []uint32) code.Code {
		return r.uartInit(a[0], UARTPins{
			TXPort: a[1], TXPin: a[2],
			RXPort: a[3], RXPin: a[4],
			CTSPortPtr: a[5], CTSPinPtr: a[6],
			RTSPortPtr: a[7], RTSPinPtr: a[8],
		})
	},
	abi.Print: func(r *Runtime, a []uint32) code.Code {
		r.print(a[0], a[1], false)
		return code.OK
	},
	abi.GPIOWrite: func(r *Runtime, a []uint32) code.Code {
		return r.gpioWrite(a[0], a[1], a[2])
	},
	abi.GPIORead: func(r *Runtime, a []uint32) code.Code {
		return r.gpioRead(a[0], a[1], a[2])
	},
	abi.GPIOInit: func(r *Runtime, a []uint32) code.Code {
		return r.gpioInit(a[0], a[1], a[2] != 0)
	},
	abi.GPIODeinit: func(r *Runtime, a []uint32) code.Code {
		return r.gpioDeinit(a[0], a[1])
	},
	abi.DelayMs: func(r *Runtime, a []uint32) code.Code {
		r.board.Delay(a[0])
		return code.OK
	},
	abi.Println: func(r *Runtime, a []uint32) code.Code {
		r.print(a[0], a[1], true)
		return code.OK
	},
}

// decodeHandle rejects values that do not fit a handle instead of
// truncating them onto a valid one.
func decodeHandle(v uint32) (resource.Handle, bool) {
	if v == 0 || v > uint32(resource.MaxHandle) {
		return 0, false
	}
	return resource.Handle(v), true
}

// Dispatch executes host function idx with arguments taken from stack and
// stores the result code in stack[0] when the function has one. An unknown
// index or a short stack is returned as a trap error; no handler runs.
func (r *Runtime) Dispatch(idx abi.Index, stack []uint64) error {
	fn, ok := abi.Lookup(idx)
	if !ok || int(idx) >= len(handlers) || handlers[idx] == nil {
		r.log.Error("unknown host function index", zap.Uint32("index", uint32(idx)))
		return errors.Trap(uint32(idx), "no host function with this index")
	}
	need := len(fn.Params)
	if fn.HasResult() && need == 0 {
		need = 1
	}
	if len(stack) < need {
		return errors.Trap(uint32(idx), fmt.Sprintf("%s: call frame has %d values, want %d", fn.Name, len(stack), need))
	}

	args := make([]uint32, len(fn.Params))
	for i := range args {
		args[i] = api.DecodeU32(stack[i])
	}

	start := time.Now()
	r.mu.Lock()
	result := handlers[idx](r, args)
	r.mu.Unlock()
	elapsed := time.Since(start)
	r.calls.Add(1)

	if fn.HasResult() {
		stack[0] = api.EncodeI32(int32(result))
	}

	if ce := r.log.Check(zap.DebugLevel, "host call"); ce != nil {
		ce.Write(
			zap.String("fn", fn.Name),
			zap.Uint32s("args", args),
			zap.Stringer("result", result),
			zap.Duration("elapsed", elapsed))
	}

	if len(r.observers) > 0 {
		call := Call{
			Index:     idx,
			Name:      fn.Name,
			Args:      args,
			Result:    result,
			HasResult: fn.HasResult(),
			Start:     start,
			Duration:  elapsed,
		}
		for _, o := range r.observers {
			o.OnCall(call)
		}
	}
	return nil
}

func (r *Runtime) callCount() uint64 {
	return r.calls.Load()
}
