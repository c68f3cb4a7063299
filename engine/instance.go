package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/host"
	"github.com/wippyai/wasm-hal/memory"
)

// WazeroInstance is a live guest bound to a host runtime.
type WazeroInstance struct {
	engine   *WazeroEngine
	host     *host.Runtime
	env      api.Module
	guest    api.Module
	trap     *errors.Error
	bindOnce sync.Once
	trapMu   sync.Mutex
	ran      atomic.Bool
	closed   atomic.Bool
}

// Instantiate wires the module's imports to rt and instantiates it.
func (m *WazeroModule) Instantiate(ctx context.Context, rt *host.Runtime) (*WazeroInstance, error) {
	inst := &WazeroInstance{engine: m.engine, host: rt}
	if err := m.engine.claim(inst); err != nil {
		return nil, err
	}

	env, err := inst.buildHostModule(ctx)
	if err != nil {
		m.engine.release(inst)
		return nil, errors.Instantiation(err)
	}
	inst.env = env

	cfg := wazero.NewModuleConfig().
		WithName("guest").
		WithStartFunctions()
	guest, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		_ = env.Close(ctx)
		m.engine.release(inst)
		if trap := inst.takeTrap(); trap != nil {
			return nil, trap
		}
		return nil, errors.Instantiation(err)
	}
	inst.guest = guest
	inst.bind(guest)

	Logger().Debug("guest instantiated")
	return inst, nil
}

func (i *WazeroInstance) buildHostModule(ctx context.Context) (api.Module, error) {
	b := i.engine.runtime.NewHostModuleBuilder(abi.ModuleName)
	for _, fn := range abi.Funcs() {
		names := make([]string, len(fn.Params))
		for j, p := range fn.Params {
			names[j] = p.Name
		}
		b.NewFunctionBuilder().
			WithGoModuleFunction(i.hostFunc(fn.Index), fn.CoreParams(), fn.CoreResults()).
			WithName(fn.Name).
			WithParameterNames(names...).
			Export(fn.Name)
	}
	return b.Instantiate(ctx)
}

func (i *WazeroInstance) hostFunc(idx abi.Index) api.GoModuleFunc {
	return func(_ context.Context, caller api.Module, stack []uint64) {
		i.bind(caller)
		if err := i.host.Dispatch(idx, stack); err != nil {
			var he *errors.Error
			if !stderrors.As(err, &he) {
				he = errors.Wrap(errors.PhaseCall, errors.KindTrap, err, abi.Name(idx))
			}
			i.setTrap(he)
			panic(he)
		}
	}
}

// bind attaches guest memory to the host runtime once.
func (i *WazeroInstance) bind(mod api.Module) {
	i.bindOnce.Do(func() {
		if mem := mod.ExportedMemory(MemoryExport); mem != nil {
			i.host.Bind(memory.Wrap(mem))
		}
	})
}

func (i *WazeroInstance) setTrap(err *errors.Error) {
	i.trapMu.Lock()
	defer i.trapMu.Unlock()
	if i.trap == nil {
		i.trap = err
	}
}

func (i *WazeroInstance) takeTrap() *errors.Error {
	i.trapMu.Lock()
	defer i.trapMu.Unlock()
	t := i.trap
	i.trap = nil
	return t
}

// Memory returns the guest's linear memory.
func (i *WazeroInstance) Memory() memory.Memory {
	if i.guest == nil {
		return nil
	}
	return memory.Wrap(i.guest.ExportedMemory(MemoryExport))
}

// Run invokes the entry point once and waits for it to return. A trap or a
// cancelled context closes the instance.
func (i *WazeroInstance) Run(ctx context.Context) error {
	if i.closed.Load() {
		return errors.New(errors.PhaseRuntime, errors.KindClosed).Detail("instance closed").Build()
	}
	if !i.ran.CompareAndSwap(false, true) {
		return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Detail("entry %q already invoked", i.engine.entry).
			Build()
	}

	entry := i.guest.ExportedFunction(i.engine.entry)
	if entry == nil {
		return errors.NotFound(errors.PhaseRuntime, "entry", i.engine.entry)
	}

	log := Logger().With(zap.String("entry", i.engine.entry))
	log.Debug("guest started")

	_, err := entry.Call(ctx)
	if err == nil {
		log.Debug("guest returned")
		return nil
	}

	defer i.Close(context.WithoutCancel(ctx))

	if trap := i.takeTrap(); trap != nil {
		log.Error("guest trapped in host call", zap.Error(trap))
		return &errors.Error{
			Phase:  trap.Phase,
			Kind:   errors.KindTrap,
			Detail: trap.Detail,
			Value:  trap.Value,
			Cause:  err,
		}
	}
	if ctx.Err() != nil {
		log.Info("guest interrupted", zap.Error(ctx.Err()))
		return errors.Wrap(errors.PhaseRuntime, errors.KindClosed, err, "guest interrupted")
	}
	log.Error("guest trapped", zap.Error(err))
	return errors.Wrap(errors.PhaseRuntime, errors.KindTrap, err, "entry "+i.engine.entry)
}

// Close releases the guest and its host module. It is idempotent.
func (i *WazeroInstance) Close(ctx context.Context) error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer i.engine.release(i)

	i.host.Bind(nil)
	var firstErr error
	if i.guest != nil {
		if err := i.guest.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if i.env != nil {
		if err := i.env.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
