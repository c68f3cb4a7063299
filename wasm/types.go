package wasm

import "fmt"

// ValType is a value type encoding.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	}
	return fmt.Sprintf("valtype(0x%02x)", byte(v))
}

// Module is an encodable core module.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index per defined function
	Memories []Limits
	Exports  []Export
	Code     []FuncBody
	Data     []DataSegment
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) String() string {
	return fmt.Sprintf("%v -> %v", ft.Params, ft.Results)
}

func (ft FuncType) equal(o FuncType) bool {
	if len(ft.Params) != len(o.Params) || len(ft.Results) != len(o.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// Import is an imported item. Only function and memory imports can be
// encoded; ParseImports reports every kind.
type Import struct {
	Memory  *Limits
	Module  string
	Name    string
	TypeIdx uint32
	Kind    byte
}

// KindName names an import or export kind.
func KindName(kind byte) string {
	switch kind {
	case KindFunc:
		return "func"
	case KindTable:
		return "table"
	case KindMemory:
		return "memory"
	case KindGlobal:
		return "global"
	case KindTag:
		return "tag"
	}
	return fmt.Sprintf("kind(%d)", kind)
}

// Limits bounds a memory in 64KiB pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// Export describes an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody is a function's locals and code, including the final end.
type FuncBody struct {
	Locals []ValType
	Code   []byte
}

// DataSegment is an active segment in memory 0.
type DataSegment struct {
	Init   []byte
	Offset uint32
}

// AddType returns the index of ft, adding it if not present.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// NumImportedFuncs returns the number of imported functions.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == KindFunc {
			n++
		}
	}
	return n
}

// ImportFunc adds a function import and returns its function index.
// Imports must be added before defined functions.
func (m *Module) ImportFunc(module, name string, ft FuncType) uint32 {
	if len(m.Funcs) > 0 {
		panic("wasm: function import after defined function")
	}
	idx := uint32(m.NumImportedFuncs())
	m.Imports = append(m.Imports, Import{
		Module:  module,
		Name:    name,
		Kind:    KindFunc,
		TypeIdx: m.AddType(ft),
	})
	return idx
}

// ImportMemory adds a memory import.
func (m *Module) ImportMemory(module, name string, min uint32) {
	m.Imports = append(m.Imports, Import{
		Module: module,
		Name:   name,
		Kind:   KindMemory,
		Memory: &Limits{Min: min},
	})
}

// AddFunc defines a function and returns its function index.
func (m *Module) AddFunc(typeIdx uint32, locals []ValType, code []byte) uint32 {
	m.Funcs = append(m.Funcs, typeIdx)
	m.Code = append(m.Code, FuncBody{Locals: locals, Code: code})
	return uint32(m.NumImportedFuncs() + len(m.Funcs) - 1)
}

// AddMemory defines a memory of min pages and optional max.
func (m *Module) AddMemory(min uint32, max *uint32) uint32 {
	m.Memories = append(m.Memories, Limits{Min: min, Max: max})
	return uint32(len(m.Memories) - 1)
}

// AddData places init at offset in memory 0.
func (m *Module) AddData(offset uint32, init []byte) {
	m.Data = append(m.Data, DataSegment{Offset: offset, Init: init})
}

// ExportFunc exports function idx as name.
func (m *Module) ExportFunc(name string, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindFunc, Idx: idx})
}

// ExportMemory exports memory idx as name.
func (m *Module) ExportMemory(name string, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindMemory, Idx: idx})
}
