// Package errors provides structured error types for the wasm-hal host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Call-time failures inside host functions are not Go errors at
// all; they travel back to the guest as integer codes. The types here cover
// loading, linking, configuration, traps and the public Go API.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindSignatureMismatch).
//		Path("env", "gpio_init").
//		Detail("want %s, got %s", want, got).
//		Build()
//
// Or use convenience constructors:
//
//	err := errors.OutOfBounds(errors.PhaseMemory, 65530, 8, 65536)
//	err := errors.Trap(idx, "no host function")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
