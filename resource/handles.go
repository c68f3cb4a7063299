package resource

import (
	"sort"
	"sync"

	"github.com/wippyai/wasm-hal/errors"
)

// MaxHandle is the largest handle a HandleTable hands out.
const MaxHandle = Handle(255)

// HandleTable maps monotonically allocated handles to values.
type HandleTable[T any] struct {
	entries map[Handle]T
	name    string
	observers
	next uint16
	mu   sync.RWMutex
}

// NewHandleTable creates an empty table whose first handle is 1.
func NewHandleTable[T any](name string) *HandleTable[T] {
	return &HandleTable[T]{
		name:    name,
		entries: make(map[Handle]T),
		next:    1,
	}
}

// Name returns the table label.
func (t *HandleTable[T]) Name() string { return t.name }

// Allocate consumes the next handle. The handle is not recorded until
// Insert; an abandoned handle is never handed out again.
func (t *HandleTable[T]) Allocate() (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next > uint16(MaxHandle) {
		return 0, errors.New(errors.PhaseCall, errors.KindUnsupported).
			Path(t.name).
			Detail("handle space exhausted").
			Build()
	}
	h := Handle(t.next)
	t.next++
	return h, nil
}

// Last returns the most recently allocated handle, or 0.
func (t *HandleTable[T]) Last() Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Handle(t.next - 1)
}

// Insert records v under an allocated handle.
func (t *HandleTable[T]) Insert(h Handle, v T) error {
	t.mu.Lock()
	if h == 0 || uint16(h) >= t.next {
		t.mu.Unlock()
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Path(t.name).
			Value(h).
			Detail("handle %d was not allocated", h).
			Build()
	}
	if _, ok := t.entries[h]; ok {
		t.mu.Unlock()
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Path(t.name).
			Value(h).
			Detail("handle %d already recorded", h).
			Build()
	}
	t.entries[h] = v
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Table: t.name, Handle: h, Value: v})
	return nil
}

// Get retrieves the value for h.
func (t *HandleTable[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[h]
	return v, ok
}

// Remove drops the value for h and returns it.
func (t *HandleTable[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	v, ok := t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	t.mu.Unlock()
	if !ok {
		return v, false
	}

	drop(v)
	t.notify(Event{Type: EventDropped, Table: t.name, Handle: h, Value: v})
	return v, true
}

// Len returns the number of recorded handles.
func (t *HandleTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Handles returns the recorded handles in ascending order.
func (t *HandleTable[T]) Handles() []Handle {
	t.mu.RLock()
	hs := make([]Handle, 0, len(t.entries))
	for h := range t.entries {
		hs = append(hs, h)
	}
	t.mu.RUnlock()
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// Clear drops every recorded handle. Allocation continues where it left off.
func (t *HandleTable[T]) Clear() {
	for _, h := range t.Handles() {
		t.Remove(h)
	}
}
