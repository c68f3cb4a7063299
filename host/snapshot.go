package host

import (
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/resource"
)

// UARTInfo describes the open connection in a Snapshot.
type UARTInfo struct {
	CTS    *hal.PinID
	RTS    *hal.PinID
	TX     hal.PinID
	RX     hal.PinID
	Baud   uint32
	Handle resource.Handle
}

// Snapshot is a point-in-time view of the resource tables.
type Snapshot struct {
	Inputs     []hal.PinID
	Outputs    []hal.PinID
	UART       []UARTInfo
	Calls      uint64
	LastHandle resource.Handle
}

// Snapshot returns the current table contents. It does not wait for a
// running host call.
func (r *Runtime) Snapshot() Snapshot {
	s := Snapshot{
		Inputs:     r.inputs.IDs(),
		Outputs:    r.outputs.IDs(),
		LastHandle: r.uarts.Last(),
		Calls:      r.callCount(),
	}
	for _, h := range r.uarts.Handles() {
		c, ok := r.uarts.Get(h)
		if !ok {
			continue
		}
		s.UART = append(s.UART, UARTInfo{
			Handle: c.Handle,
			TX:     c.TX,
			RX:     c.RX,
			CTS:    c.CTS,
			RTS:    c.RTS,
			Baud:   c.Baud,
		})
	}
	return s
}

// Claimed reports the direction id is claimed for, if any.
func (r *Runtime) Claimed(id hal.PinID) hal.Direction {
	switch {
	case r.inputs.Has(id):
		return hal.DirectionInput
	case r.outputs.Has(id):
		return hal.DirectionOutput
	}
	return hal.DirectionNone
}
