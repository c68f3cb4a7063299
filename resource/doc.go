// Package resource holds the host resource tables.
//
// Two kinds of table exist:
//
//	PinTable[T]    - capabilities keyed by physical pin identity
//	HandleTable[T] - open connections keyed by small opaque handles
//
// The host keeps one PinTable for input capabilities, one for output
// capabilities and one HandleTable for the UART connection.
//
// # Ownership
//
// A table owns its values outright. Removing an entry drops the value: if it
// implements Dropper its Drop method is called before observers are
// notified.
//
// # Handles
//
// Handles are allocated monotonically starting at 1 and never reused for the
// lifetime of a table, even when the allocation is abandoned:
//
//	h, err := table.Allocate()   // 1
//	// ... setup fails, nothing inserted
//	h, err = table.Allocate()    // 2
//	_ = table.Insert(h, conn)
//
// Handle 0 is reserved and always invalid. Once 255 has been handed out the
// table reports exhaustion instead of wrapping.
//
// # Observers
//
// Observers receive EventCreated and EventDropped notifications after the
// table lock is released, so they may read the table.
//
// # Thread Safety
//
// All tables are safe for concurrent use.
package resource
