// Package host implements the host side of the peripheral ABI.
//
// A Runtime owns the resource tables and is their only mutator. Every host
// function the guest may import has a Go method on Runtime; Dispatch decodes
// raw call-frame values by function index and routes them to those methods.
//
//	rt := host.New(board,
//	    host.WithLogger(log),
//	    host.WithDiagnostics(os.Stdout),
//	)
//	rt.Bind(guestMemory)
//	c := rt.GPIOInit(0, 8, false) // code.OK
//
// # Result Codes
//
// Fallible operations return a code.Code. Call-time failures never become Go
// errors or faults: an unsupported pin, a duplicate init, an unknown UART
// handle or an out-of-bounds guest pointer all produce a code. Dispatch only
// returns an error for an index outside the function table or a malformed
// call frame; the engine turns that into a trap of the current guest call.
//
// # GPIO
//
// Pins are claimed into an input or an output table keyed by (port, pin).
// An identity lives in at most one table. Claiming resets the line before
// configuring it. Deinit follows the configured DeinitPolicy and always
// succeeds.
//
// # UART
//
// One connection may be open at a time. Handles start at 1, grow
// monotonically and are never reused, even when an init fails after its
// handle was allocated.
//
// # Diagnostics
//
// print and println copy guest bytes to the diagnostics writer as UTF-8.
// They never fail the guest; bad ranges are logged and skipped.
//
// # Thread Safety
//
// Dispatch and the operation methods are serialized by one mutex, so calls
// never overlap. Snapshot reads the tables without that mutex and is safe to
// call while a guest is blocked in a UART read or delay.
package host
