package engine

import (
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/wasm"
)

// MemoryExport is the name guests must export their linear memory under.
const MemoryExport = "memory"

// DefaultEntry is the entry point invoked by Run.
const DefaultEntry = "start"

// Link checks a compiled module against the host function table. imports
// is the module's raw import section, used for kinds wazero does not
// report. It returns nil or an *errors.LinkError.
func Link(compiled wazero.CompiledModule, imports []wasm.Import, entry string) error {
	var le errors.LinkError

	for _, imp := range imports {
		switch imp.Kind {
		case wasm.KindFunc, wasm.KindMemory:
			// reported below from the compiled module
		default:
			le.Add(errors.KindUnresolvedImport, imp.Module, imp.Name,
				"%s imports are not provided", wasm.KindName(imp.Kind))
		}
	}

	for _, def := range compiled.ImportedMemories() {
		mod, name, _ := def.Import()
		le.Add(errors.KindUnresolvedImport, mod, name, "memory imports are not provided; export %q instead", MemoryExport)
	}

	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		fn, ok := abi.Resolve(mod, name)
		if !ok {
			le.Add(errors.KindUnresolvedImport, mod, name, "no such host function")
			continue
		}
		if !fn.Matches(def.ParamTypes(), def.ResultTypes()) {
			le.Add(errors.KindSignatureMismatch, mod, name, "declared %s, host provides %s",
				abi.FormatSignature(def.ParamTypes(), def.ResultTypes()), fn.Signature())
		}
	}

	if _, ok := compiled.ExportedMemories()[MemoryExport]; !ok {
		le.Add(errors.KindMissingExport, "", MemoryExport, "linear memory export required")
	}

	if def, ok := compiled.ExportedFunctions()[entry]; !ok {
		le.Add(errors.KindMissingExport, "", entry, "entry function required")
	} else if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) != 0 {
		le.Add(errors.KindSignatureMismatch, "", entry, "entry declared %s, want () -> ()",
			abi.FormatSignature(def.ParamTypes(), def.ResultTypes()))
	}

	return le.Err()
}
