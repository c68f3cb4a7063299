package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-hal/abi"
	"github.com/wippyai/wasm-hal/demo"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/wasm"
)

func compileErr(t *testing.T, bin []byte) *errors.LinkError {
	t.Helper()
	_, err := newEngine(t).Compile(context.Background(), bin)
	if err == nil {
		t.Fatal("expected link error")
	}
	var le *errors.LinkError
	if !stderrors.As(err, &le) {
		t.Fatalf("err = %T %v, want *errors.LinkError", err, err)
	}
	return le
}

func TestLink_AcceptsDemo(t *testing.T) {
	if _, err := newEngine(t).Compile(context.Background(), demo.Blink(demo.DefaultOptions())); err != nil {
		t.Fatal(err)
	}
}

func TestLink_UnresolvedImports(t *testing.T) {
	bin := guest(func(m *wasm.Module, c *wasm.Code) {
		m.ImportFunc("env", "gpio_toggle", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
		m.ImportFunc("wasi_snapshot_preview1", "fd_write", wasm.FuncType{})
	})
	le := compileErr(t, bin)
	if len(le.Problems) != 2 || !le.Has(errors.KindUnresolvedImport) {
		t.Fatalf("problems = %v", le.Problems)
	}
	if !stderrors.Is(le, &errors.Error{Phase: errors.PhaseLink, Kind: errors.KindUnresolvedImport}) {
		t.Error("errors.Is by kind")
	}
	msg := le.Error()
	if !strings.Contains(msg, "gpio_toggle") || !strings.Contains(msg, "wasi_snapshot_preview1") {
		t.Errorf("message = %s", msg)
	}
}

func TestLink_SignatureMismatch(t *testing.T) {
	i32 := wasm.ValI32
	tests := []struct {
		name string
		ft   wasm.FuncType
	}{
		{"gpio_init", wasm.FuncType{Params: []wasm.ValType{i32, i32}, Results: []wasm.ValType{i32}}},
		{"gpio_write", wasm.FuncType{Params: []wasm.ValType{i32, i32, wasm.ValI64}, Results: []wasm.ValType{i32}}},
		{"gpio_read", wasm.FuncType{Params: []wasm.ValType{i32, i32, i32}}},
		{"delay_ms", wasm.FuncType{Params: []wasm.ValType{i32}, Results: []wasm.ValType{i32}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := guest(func(m *wasm.Module, c *wasm.Code) {
				m.ImportFunc(abi.ModuleName, tt.name, tt.ft)
			})
			le := compileErr(t, bin)
			if len(le.Problems) != 1 || le.Problems[0].Kind != errors.KindSignatureMismatch {
				t.Fatalf("problems = %v", le.Problems)
			}
			fn, _ := abi.Resolve(abi.ModuleName, tt.name)
			if !strings.Contains(le.Problems[0].Detail, fn.Signature()) {
				t.Errorf("detail = %q", le.Problems[0].Detail)
			}
		})
	}
}

func TestLink_Exports(t *testing.T) {
	t.Run("no memory", func(t *testing.T) {
		m := &wasm.Module{}
		var c wasm.Code
		c.End()
		m.ExportFunc(DefaultEntry, m.AddFunc(m.AddType(wasm.FuncType{}), nil, c.Bytes()))
		le := compileErr(t, m.Encode())
		if !le.Has(errors.KindMissingExport) || le.Problems[0].Name != MemoryExport {
			t.Errorf("problems = %v", le.Problems)
		}
	})

	t.Run("imported memory", func(t *testing.T) {
		m := &wasm.Module{}
		m.ImportMemory("env", "memory", 1)
		var c wasm.Code
		c.End()
		m.ExportFunc(DefaultEntry, m.AddFunc(m.AddType(wasm.FuncType{}), nil, c.Bytes()))
		le := compileErr(t, m.Encode())
		if !le.Has(errors.KindUnresolvedImport) || !le.Has(errors.KindMissingExport) {
			t.Errorf("problems = %v", le.Problems)
		}
	})

	t.Run("no entry", func(t *testing.T) {
		m := &wasm.Module{}
		m.AddMemory(1, nil)
		m.ExportMemory(MemoryExport, 0)
		le := compileErr(t, m.Encode())
		if len(le.Problems) != 1 || le.Problems[0].Name != DefaultEntry {
			t.Errorf("problems = %v", le.Problems)
		}
	})

	t.Run("entry with params", func(t *testing.T) {
		m := &wasm.Module{}
		m.AddMemory(1, nil)
		m.ExportMemory(MemoryExport, 0)
		var c wasm.Code
		c.End()
		fn := m.AddFunc(m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}), nil, c.Bytes())
		m.ExportFunc(DefaultEntry, fn)
		le := compileErr(t, m.Encode())
		if len(le.Problems) != 1 || le.Problems[0].Kind != errors.KindSignatureMismatch {
			t.Errorf("problems = %v", le.Problems)
		}
	})
}

func TestLink_GlobalImport(t *testing.T) {
	// (import "env" "g" (global i32)) with memory and start exports
	bin := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
		0x02, 0x0a, 0x01, 0x03, 'e', 'n', 'v', 0x01, 'g', 0x03, 0x7f, 0x00,
		0x03, 0x02, 0x01, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x12, 0x02,
		0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
		0x05, 's', 't', 'a', 'r', 't', 0x00, 0x00,
		0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b,
	}
	le := compileErr(t, bin)
	if len(le.Problems) != 1 || le.Problems[0].Name != "g" {
		t.Fatalf("problems = %v", le.Problems)
	}
	if !strings.Contains(le.Problems[0].Detail, "global imports") {
		t.Errorf("detail = %q", le.Problems[0].Detail)
	}
}

func TestLink_CollectsEverything(t *testing.T) {
	m := &wasm.Module{}
	m.ImportFunc("env", "nope", wasm.FuncType{})
	m.ImportFunc("env", "print", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
	le := compileErr(t, m.Encode())
	// unresolved, mismatch, no memory, no entry
	if len(le.Problems) != 4 {
		t.Fatalf("problems = %v", le.Problems)
	}
}
