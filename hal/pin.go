package hal

import (
	"fmt"
	"sort"

	"github.com/wippyai/wasm-hal/errors"
)

// MaxPins bounds the pin numbers a PinMap can hold.
const MaxPins = 256

// PinID is the physical identity of a controllable line.
type PinID struct {
	Port uint32
	Pin  uint32
}

func (p PinID) String() string {
	return fmt.Sprintf("%d:%d", p.Port, p.Pin)
}

// Direction selects which capability a line is configured for.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionInput
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "none"
	}
}

// Line is an opaque hardware line descriptor produced by a PinMap.
// The zero Line is invalid.
type Line struct {
	pin   uint32
	index uint16
}

// Pin returns the board pin number of the line.
func (l Line) Pin() uint32 { return l.pin }

// Index returns the dense, zero-based position of the line in its PinMap.
// Boards use it to address per-line state.
func (l Line) Index() int { return int(l.index) - 1 }

// Valid reports whether l came from a successful lookup.
func (l Line) Valid() bool { return l.index != 0 }

func (l Line) String() string {
	if !l.Valid() {
		return "line(invalid)"
	}
	return fmt.Sprintf("gpio%d", l.pin)
}

// PinMap maps pin numbers to line descriptors through a table indexed by
// pin number. It is immutable after construction.
type PinMap struct {
	lines [MaxPins]Line
	pins  []uint32
}

// NewPinMap validates pins once and builds the lookup table.
func NewPinMap(pins ...uint32) (*PinMap, error) {
	if len(pins) == 0 {
		return nil, errors.InvalidInput(errors.PhaseHAL, "pin map is empty")
	}
	sorted := append([]uint32(nil), pins...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	m := &PinMap{pins: sorted}
	for i, p := range sorted {
		if p >= MaxPins {
			return nil, errors.New(errors.PhaseHAL, errors.KindInvalidInput).
				Value(p).
				Detail("pin %d exceeds %d", p, MaxPins-1).
				Build()
		}
		if m.lines[p].Valid() {
			return nil, errors.New(errors.PhaseHAL, errors.KindInvalidInput).
				Value(p).
				Detail("pin %d listed twice", p).
				Build()
		}
		m.lines[p] = Line{pin: p, index: uint16(i + 1)}
	}
	return m, nil
}

// MustPinMap is NewPinMap for static pin sets.
func MustPinMap(pins ...uint32) *PinMap {
	m, err := NewPinMap(pins...)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup resolves a pin number. Unsupported numbers never wrap or alias.
func (m *PinMap) Lookup(pin uint32) (Line, bool) {
	if pin >= MaxPins {
		return Line{}, false
	}
	l := m.lines[pin]
	return l, l.Valid()
}

// Pins returns the supported pin numbers in ascending order.
func (m *PinMap) Pins() []uint32 {
	return append([]uint32(nil), m.pins...)
}

// Len returns the number of supported lines.
func (m *PinMap) Len() int { return len(m.pins) }

// Line returns the descriptor at dense index i.
func (m *PinMap) Line(i int) Line {
	return m.lines[m.pins[i]]
}
