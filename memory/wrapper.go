package memory

import (
	"github.com/tetratelabs/wazero/api"

	wasmhal "github.com/wippyai/wasm-hal"
	"github.com/wippyai/wasm-hal/errors"
)

// Memory is the full marshaler surface: accessors plus the current size.
type Memory interface {
	wasmhal.Memory
	wasmhal.MemorySizer
}

// Wrap wraps a wazero api.Memory.
func Wrap(mem api.Memory) Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the Memory interface.
type Wrapper struct {
	Mem api.Memory
}

// Size returns the current memory size in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}

// Read returns a copy of length bytes at offset.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	if err := check(m.Mem.Size(), offset, length); err != nil {
		return nil, err
	}
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, offset, length, m.Mem.Size())
	}
	// api.Memory.Read returns a view; copy so callers never alias guest memory
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes data at offset.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if err := check(m.Mem.Size(), offset, uint32(len(data))); err != nil {
		return err
	}
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, uint32(len(data)), m.Mem.Size())
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 1, m.Mem.Size())
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, offset, 4, m.Mem.Size())
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 1, m.Mem.Size())
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, 4, m.Mem.Size())
	}
	return nil
}

// check validates [offset, offset+length) against size without overflowing.
func check(size, offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(size) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, length, size)
	}
	return nil
}
