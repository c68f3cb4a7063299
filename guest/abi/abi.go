// Package abi declares the host functions a guest imports from the "env"
// module.
//
// Under GOARCH=wasm every function is a direct //go:wasmimport binding;
// pointers are passed as linear memory offsets and out-parameters are read
// back after the call. On other targets the same functions forward to a
// Backend installed with SetBackend, which lets guest code run and be tested
// as an ordinary Go program.
//
// The functions here do no validation of their own. Every result is the
// host's code.Code; interpreting it is left to package guest/hal.
package abi

// PinRef names a pin by port and number.
type PinRef struct {
	Port uint32
	Pin  uint32
}

// UARTConfig is the argument set of uart_init. CTS and RTS are optional.
type UARTConfig struct {
	CTS *PinRef
	RTS *PinRef
	TX  PinRef
	RX  PinRef
}
