package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/hal"
)

// resolve validates a pin identity against the board. Only port 0 exists.
func (r *Runtime) resolve(port, pin uint32) (hal.Line, code.Code) {
	if port != 0 {
		return hal.Line{}, code.UnsupportedPort
	}
	line, ok := r.pins.Lookup(pin)
	if !ok {
		return hal.Line{}, code.UnsupportedPin
	}
	return line, code.OK
}

// GPIOInit claims (port, pin) as an input or output. The line is reset and
// configured before it enters a table; any failure leaves both tables
// unchanged.
func (r *Runtime) GPIOInit(port, pin uint32, isInput bool) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gpioInit(port, pin, isInput)
}

func (r *Runtime) gpioInit(port, pin uint32, isInput bool) code.Code {
	line, c := r.resolve(port, pin)
	if c != code.OK {
		return c
	}
	id := hal.PinID{Port: port, Pin: pin}
	if r.inputs.Has(id) || r.outputs.Has(id) {
		return code.PinInUse
	}

	if err := r.board.Reset(line); err != nil {
		r.log.Warn("gpio reset failed", zap.Stringer("pin", id), zap.Error(err))
		return code.Hardware
	}

	if isInput {
		in, err := r.board.Input(line)
		if err != nil {
			r.log.Warn("gpio configure failed", zap.Stringer("pin", id), zap.Error(err))
			return code.Hardware
		}
		if err := r.inputs.Insert(id, in); err != nil {
			return code.PinInUse
		}
	} else {
		out, err := r.board.Output(line)
		if err != nil {
			r.log.Warn("gpio configure failed", zap.Stringer("pin", id), zap.Error(err))
			return code.Hardware
		}
		if err := r.outputs.Insert(id, out); err != nil {
			return code.PinInUse
		}
	}

	r.log.Debug("gpio claimed", zap.Stringer("pin", id), zap.Bool("input", isInput))
	return code.OK
}

// GPIODeinit releases (port, pin) according to the deinit policy. It always
// succeeds, including for identities that were never claimed.
func (r *Runtime) GPIODeinit(port, pin uint32) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gpioDeinit(port, pin)
}

func (r *Runtime) gpioDeinit(port, pin uint32) code.Code {
	id := hal.PinID{Port: port, Pin: pin}
	if _, ok := r.outputs.Remove(id); ok {
		r.log.Debug("gpio released", zap.Stringer("pin", id), zap.String("table", "output"))
		return code.OK
	}
	if r.deinit == DeinitAny {
		if _, ok := r.inputs.Remove(id); ok {
			r.log.Debug("gpio released", zap.Stringer("pin", id), zap.String("table", "input"))
		}
	}
	return code.OK
}

// GPIORead stores the level of an input pin as a single byte (0 or 1) at
// outPtr.
func (r *Runtime) GPIORead(port, pin, outPtr uint32) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gpioRead(port, pin, outPtr)
}

func (r *Runtime) gpioRead(port, pin, outPtr uint32) code.Code {
	if _, c := r.resolve(port, pin); c != code.OK {
		return c
	}
	id := hal.PinID{Port: port, Pin: pin}
	in, ok := r.inputs.Get(id)
	if !ok {
		return code.NotInput
	}
	mem := r.memory()
	if mem == nil {
		return code.Memory
	}

	high, err := in.IsHigh()
	if err != nil {
		r.log.Warn("gpio read failed", zap.Stringer("pin", id), zap.Error(err))
		return code.Hardware
	}
	var level uint8
	if high {
		level = 1
	}
	if err := mem.WriteU8(outPtr, level); err != nil {
		r.log.Debug("gpio read out of bounds", zap.Uint32("ptr", outPtr), zap.Error(err))
		return code.Memory
	}
	return code.OK
}

// GPIOWrite drives an output pin low for value 0 and high otherwise.
func (r *Runtime) GPIOWrite(port, pin, value uint32) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gpioWrite(port, pin, value)
}

func (r *Runtime) gpioWrite(port, pin, value uint32) code.Code {
	if _, c := r.resolve(port, pin); c != code.OK {
		return c
	}
	id := hal.PinID{Port: port, Pin: pin}
	out, ok := r.outputs.Get(id)
	if !ok {
		return code.NotOutput
	}

	var err error
	if value == 0 {
		err = out.SetLow()
	} else {
		err = out.SetHigh()
	}
	if err != nil {
		r.log.Warn("gpio write failed", zap.Stringer("pin", id), zap.Error(err))
		return code.Hardware
	}
	return code.OK
}
