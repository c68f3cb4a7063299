package resource

import (
	"fmt"

	"github.com/wippyai/wasm-hal/hal"
)

// Handle is an opaque reference to an open connection.
// Handle 0 is reserved and always invalid.
type Handle uint8

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	if t == EventCreated {
		return "created"
	}
	return "dropped"
}

// Event represents a resource lifecycle event.
// Pin is set for pin tables, Handle for handle tables.
type Event struct {
	Value  any
	Table  string
	Pin    hal.PinID
	Handle Handle
	Type   EventType
}

func (e Event) String() string {
	if e.Handle != 0 {
		return fmt.Sprintf("%s %s handle=%d", e.Table, e.Type, e.Handle)
	}
	return fmt.Sprintf("%s %s pin=%s", e.Table, e.Type, e.Pin)
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}

func drop(v any) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}
