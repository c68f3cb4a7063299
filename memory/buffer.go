package memory

import (
	"encoding/binary"
	"sync"

	"github.com/wippyai/wasm-hal/errors"
)

// Buffer is an in-process linear memory backed by a byte slice.
type Buffer struct {
	data []byte
	mu   sync.Mutex
}

// NewBuffer creates a zeroed memory of size bytes.
func NewBuffer(size uint32) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (b *Buffer) Size() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint32(len(b.data))
}

// Grow extends the memory by n bytes, like memory.grow.
func (b *Buffer) Grow(n uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, make([]byte, n)...)
}

// Bytes returns the backing slice. Test helper; not safe for concurrent use.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Read(offset uint32, length uint32) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := check(uint32(len(b.data)), offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

func (b *Buffer) Write(offset uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if uint64(len(data)) > uint64(^uint32(0)) {
		return errors.OutOfBounds(errors.PhaseMemory, offset, ^uint32(0), uint32(len(b.data)))
	}
	if err := check(uint32(len(b.data)), offset, uint32(len(data))); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	return nil
}

func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := check(uint32(len(b.data)), offset, 1); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

func (b *Buffer) ReadU32(offset uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := check(uint32(len(b.data)), offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data[offset:]), nil
}

func (b *Buffer) WriteU8(offset uint32, value uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := check(uint32(len(b.data)), offset, 1); err != nil {
		return err
	}
	b.data[offset] = value
	return nil
}

func (b *Buffer) WriteU32(offset uint32, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := check(uint32(len(b.data)), offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[offset:], value)
	return nil
}
