package abi

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// CoreType flattens a primitive WIT type to its core WebAssembly value type.
func CoreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return api.ValueTypeI32, true
	case wit.U64, wit.S64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	default:
		return 0, false
	}
}

// CoreParams returns the flattened core parameter types of f.
func (f *Func) CoreParams() []api.ValueType {
	out := make([]api.ValueType, len(f.Params))
	for i, p := range f.Params {
		out[i], _ = CoreType(p.Type)
	}
	return out
}

// CoreResults returns the flattened core result types of f.
func (f *Func) CoreResults() []api.ValueType {
	if f.Result == nil {
		return nil
	}
	vt, _ := CoreType(f.Result)
	return []api.ValueType{vt}
}

// Matches reports whether a core signature equals the flattened table entry.
func (f *Func) Matches(params, results []api.ValueType) bool {
	return equalTypes(params, f.CoreParams()) && equalTypes(results, f.CoreResults())
}

// Signature renders f's core signature in text format, e.g. "(i32, i32) -> i32".
func (f *Func) Signature() string {
	return FormatSignature(f.CoreParams(), f.CoreResults())
}

// FormatSignature renders a core signature in text format.
func FormatSignature(params, results []api.ValueType) string {
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ")"
	if len(results) > 0 {
		s += " -> "
		for i, r := range results {
			if i > 0 {
				s += ", "
			}
			s += api.ValueTypeName(r)
		}
	}
	return s
}

// TypeName returns the WIT name of a primitive type.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case nil:
		return ""
	default:
		return "?"
	}
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
