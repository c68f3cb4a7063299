package host

import (
	"go.uber.org/zap"

	wasmhal "github.com/wippyai/wasm-hal"
	"github.com/wippyai/wasm-hal/abi/code"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/resource"
)

// UARTPins are the raw uart_init pin arguments. The flow-control fields are
// guest pointers to u32 values; 0 means the line is not used.
type UARTPins struct {
	TXPort, TXPin         uint32
	RXPort, RXPin         uint32
	CTSPortPtr, CTSPinPtr uint32
	RTSPortPtr, RTSPinPtr uint32
}

// UARTInit opens the UART and stores its handle as a byte at handleOut.
// Nothing is recorded unless every step succeeds. A handle allocated before
// a later failure stays consumed.
func (r *Runtime) UARTInit(handleOut uint32, pins UARTPins) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uartInit(handleOut, pins)
}

func (r *Runtime) uartInit(handleOut uint32, p UARTPins) code.Code {
	if r.uarts.Len() > 0 {
		return code.AlreadyOpen
	}
	mem := r.memory()
	if mem == nil {
		return code.Memory
	}

	tx, c := r.resolve(p.TXPort, p.TXPin)
	if c != code.OK {
		return c
	}
	rx, c := r.resolve(p.RXPort, p.RXPin)
	if c != code.OK {
		return c
	}
	cts, ctsID, c := r.optionalLine(mem, p.CTSPortPtr, p.CTSPinPtr)
	if c != code.OK {
		return c
	}
	rts, rtsID, c := r.optionalLine(mem, p.RTSPortPtr, p.RTSPinPtr)
	if c != code.OK {
		return c
	}

	serial, err := r.board.OpenSerial(hal.SerialConfig{
		TX:   tx,
		RX:   rx,
		CTS:  cts,
		RTS:  rts,
		Baud: r.baud,
	})
	if err != nil {
		r.log.Warn("uart open failed", zap.Error(err))
		return code.Hardware
	}

	h, err := r.uarts.Allocate()
	if err != nil {
		_ = serial.Close()
		r.log.Warn("uart handles exhausted", zap.Error(err))
		return code.HandlesExhausted
	}

	if err := mem.WriteU8(handleOut, uint8(h)); err != nil {
		_ = serial.Close()
		r.log.Debug("uart handle out of bounds", zap.Uint8("handle", uint8(h)), zap.Error(err))
		return code.Memory
	}

	conn := &Connection{
		Serial: serial,
		Handle: h,
		TX:     hal.PinID{Port: p.TXPort, Pin: p.TXPin},
		RX:     hal.PinID{Port: p.RXPort, Pin: p.RXPin},
		CTS:    ctsID,
		RTS:    rtsID,
		Baud:   r.baud,
	}
	if err := r.uarts.Insert(h, conn); err != nil {
		_ = serial.Close()
		return code.AlreadyOpen
	}

	r.log.Debug("uart opened",
		zap.Uint8("handle", uint8(h)),
		zap.Stringer("tx", conn.TX),
		zap.Stringer("rx", conn.RX),
		zap.Uint32("baud", r.baud))
	return code.OK
}

// optionalLine reads a flow-control pin through guest pointers.
func (r *Runtime) optionalLine(mem wasmhal.Memory, portPtr, pinPtr uint32) (*hal.Line, *hal.PinID, code.Code) {
	if portPtr == 0 && pinPtr == 0 {
		return nil, nil, code.OK
	}
	if portPtr == 0 || pinPtr == 0 {
		return nil, nil, code.InvalidArgument
	}
	port, err := mem.ReadU32(portPtr)
	if err != nil {
		return nil, nil, code.Memory
	}
	pin, err := mem.ReadU32(pinPtr)
	if err != nil {
		return nil, nil, code.Memory
	}
	line, c := r.resolve(port, pin)
	if c != code.OK {
		return nil, nil, c
	}
	return &line, &hal.PinID{Port: port, Pin: pin}, code.OK
}

// UARTWrite transmits one byte, blocking until the driver accepts it.
func (r *Runtime) UARTWrite(h resource.Handle, b byte) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uartWrite(h, b)
}

func (r *Runtime) uartWrite(h resource.Handle, b byte) code.Code {
	conn, ok := r.uarts.Get(h)
	if !ok {
		return code.UnknownHandle
	}
	if err := conn.Serial.WriteByte(b); err != nil {
		r.log.Warn("uart write failed", zap.Uint8("handle", uint8(h)), zap.Error(err))
		return code.Hardware
	}
	return code.OK
}

// UARTRead receives one byte into outPtr, blocking until it arrives. The
// pointer is checked first so no received byte is lost to a bad pointer.
func (r *Runtime) UARTRead(h resource.Handle, outPtr uint32) code.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uartRead(h, outPtr)
}

func (r *Runtime) uartRead(h resource.Handle, outPtr uint32) code.Code {
	conn, ok := r.uarts.Get(h)
	if !ok {
		return code.UnknownHandle
	}
	mem := r.memory()
	if mem == nil {
		return code.Memory
	}
	if _, err := mem.ReadU8(outPtr); err != nil {
		return code.Memory
	}

	b, err := conn.Serial.ReadByte()
	if err != nil {
		r.log.Warn("uart read failed", zap.Uint8("handle", uint8(h)), zap.Error(err))
		return code.Hardware
	}
	if err := mem.WriteU8(outPtr, b); err != nil {
		return code.Memory
	}
	return code.OK
}
