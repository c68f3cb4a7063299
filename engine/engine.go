package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/wasm"
)

// Config holds configuration for engine creation.
type Config struct {
	// Entry is the exported function Run invokes. Empty means "start".
	Entry string

	// MemoryLimitPages caps guest memory in 64KiB pages. 0 means the
	// wazero default.
	MemoryLimitPages uint32
}

// WazeroEngine compiles and instantiates guest modules.
type WazeroEngine struct {
	runtime wazero.Runtime
	active  *WazeroInstance
	entry   string
	mu      sync.Mutex
}

// NewWazeroEngine creates an engine. cfg may be nil.
func NewWazeroEngine(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	entry := DefaultEntry
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Entry != "" {
			entry = cfg.Entry
		}
	}
	return &WazeroEngine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		entry:   entry,
	}, nil
}

// Entry returns the name of the entry export.
func (e *WazeroEngine) Entry() string { return e.entry }

// Compile compiles a guest binary and links it against the host table.
// Nothing is instantiated and no host state changes when it fails.
func (e *WazeroEngine) Compile(ctx context.Context, bin []byte) (*WazeroModule, error) {
	imports, err := wasm.ParseImports(bin)
	if err != nil {
		return nil, errors.Load("parse imports", err)
	}
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	if err := Link(compiled, imports, e.entry); err != nil {
		_ = compiled.Close(ctx)
		Logger().Warn("guest rejected at link time", zap.Error(err))
		return nil, err
	}

	Logger().Debug("guest compiled",
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.String("entry", e.entry))

	return &WazeroModule{engine: e, compiled: compiled}, nil
}

// Close releases every module and instance.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *WazeroEngine) claim(inst *WazeroInstance) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return errors.New(errors.PhaseRuntime, errors.KindAlreadyLoaded).
			Detail("a guest instance is already live").
			Build()
	}
	e.active = inst
	return nil
}

func (e *WazeroEngine) release(inst *WazeroInstance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == inst {
		e.active = nil
	}
}

// WazeroModule is a compiled and linked guest module.
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
}

// ImportNames lists the host functions the module imports.
func (m *WazeroModule) ImportNames() []string {
	defs := m.compiled.ImportedFunctions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		_, name, _ := def.Import()
		names = append(names, name)
	}
	return names
}

// Close releases the compiled module.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
