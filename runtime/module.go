package runtime

import (
	"context"

	"github.com/wippyai/wasm-hal/engine"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/memory"
)

// Module is a compiled and linked guest.
type Module struct {
	runtime  *Runtime
	compiled *engine.WazeroModule
}

// Imports lists the host functions the module imports.
func (m *Module) Imports() []string {
	return m.compiled.ImportNames()
}

// Instantiate binds the guest to the runtime's host. It fails with
// errors.KindAlreadyLoaded while another instance is live.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	inst, err := m.compiled.Instantiate(ctx, m.runtime.host)
	if err != nil {
		return nil, err
	}
	return &Instance{module: m, inner: inst}, nil
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instance is a live guest.
type Instance struct {
	module *Module
	inner  *engine.WazeroInstance
}

// Run invokes the guest entry point once.
func (i *Instance) Run(ctx context.Context) error {
	if i.inner == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	return i.inner.Run(ctx)
}

// Memory returns the guest's linear memory.
func (i *Instance) Memory() memory.Memory {
	return i.inner.Memory()
}

// Close tears down the guest and releases every pin and the UART it held.
func (i *Instance) Close(ctx context.Context) error {
	err := i.inner.Close(ctx)
	if herr := i.module.runtime.host.Close(); herr != nil && err == nil {
		err = herr
	}
	return err
}
