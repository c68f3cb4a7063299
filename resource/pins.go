package resource

import (
	"sort"
	"sync"

	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
)

// PinTable maps pin identities to capability objects. At most one value
// exists per identity.
type PinTable[T any] struct {
	entries map[hal.PinID]T
	name    string
	observers
	mu sync.RWMutex
}

// NewPinTable creates an empty table. name labels its events.
func NewPinTable[T any](name string) *PinTable[T] {
	return &PinTable[T]{
		name:    name,
		entries: make(map[hal.PinID]T),
	}
}

// Name returns the table label.
func (t *PinTable[T]) Name() string { return t.name }

// Insert stores v under id. It fails if id is already present.
func (t *PinTable[T]) Insert(id hal.PinID, v T) error {
	t.mu.Lock()
	if _, ok := t.entries[id]; ok {
		t.mu.Unlock()
		return errors.New(errors.PhaseCall, errors.KindInvalidInput).
			Path(t.name).
			Value(id).
			Detail("pin %s already present", id).
			Build()
	}
	t.entries[id] = v
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Table: t.name, Pin: id, Value: v})
	return nil
}

// Get retrieves the value for id.
func (t *PinTable[T]) Get(id hal.PinID) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[id]
	return v, ok
}

// Has reports whether id is present.
func (t *PinTable[T]) Has(id hal.PinID) bool {
	_, ok := t.Get(id)
	return ok
}

// Remove drops the value for id and returns it.
func (t *PinTable[T]) Remove(id hal.PinID) (T, bool) {
	t.mu.Lock()
	v, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if !ok {
		return v, false
	}

	drop(v)
	t.notify(Event{Type: EventDropped, Table: t.name, Pin: id, Value: v})
	return v, true
}

// Len returns the number of entries.
func (t *PinTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// IDs returns the present identities ordered by port, then pin.
func (t *PinTable[T]) IDs() []hal.PinID {
	t.mu.RLock()
	ids := make([]hal.PinID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Port != ids[j].Port {
			return ids[i].Port < ids[j].Port
		}
		return ids[i].Pin < ids[j].Pin
	})
	return ids
}

// Each iterates over entries in identity order until fn returns false.
func (t *PinTable[T]) Each(fn func(hal.PinID, T) bool) {
	for _, id := range t.IDs() {
		v, ok := t.Get(id)
		if !ok {
			continue
		}
		if !fn(id, v) {
			return
		}
	}
}

// Clear drops every entry.
func (t *PinTable[T]) Clear() {
	for _, id := range t.IDs() {
		t.Remove(id)
	}
}
