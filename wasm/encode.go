package wasm

import (
	"bytes"
	"encoding/binary"
)

// Encode returns the binary form of m.
func (m *Module) Encode() []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, Magic)
	_ = binary.Write(&out, binary.LittleEndian, Version)

	if len(m.Types) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Types)))
		for _, ft := range m.Types {
			s.WriteByte(0x60)
			writeValTypes(&s, ft.Params)
			writeValTypes(&s, ft.Results)
		}
		writeSection(&out, SectionType, s.Bytes())
	}

	if len(m.Imports) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			writeName(&s, imp.Module)
			writeName(&s, imp.Name)
			s.WriteByte(imp.Kind)
			switch imp.Kind {
			case KindFunc:
				WriteLEB128u(&s, imp.TypeIdx)
			case KindMemory:
				writeLimits(&s, *imp.Memory)
			default:
				panic("wasm: cannot encode " + KindName(imp.Kind) + " import")
			}
		}
		writeSection(&out, SectionImport, s.Bytes())
	}

	if len(m.Funcs) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Funcs)))
		for _, idx := range m.Funcs {
			WriteLEB128u(&s, idx)
		}
		writeSection(&out, SectionFunction, s.Bytes())
	}

	if len(m.Memories) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Memories)))
		for _, l := range m.Memories {
			writeLimits(&s, l)
		}
		writeSection(&out, SectionMemory, s.Bytes())
	}

	if len(m.Exports) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Exports)))
		for _, e := range m.Exports {
			writeName(&s, e.Name)
			s.WriteByte(e.Kind)
			WriteLEB128u(&s, e.Idx)
		}
		writeSection(&out, SectionExport, s.Bytes())
	}

	if len(m.Code) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Code)))
		for _, body := range m.Code {
			var fb bytes.Buffer
			writeLocals(&fb, body.Locals)
			fb.Write(body.Code)
			WriteLEB128u(&s, uint32(fb.Len()))
			s.Write(fb.Bytes())
		}
		writeSection(&out, SectionCode, s.Bytes())
	}

	if len(m.Data) > 0 {
		var s bytes.Buffer
		WriteLEB128u(&s, uint32(len(m.Data)))
		for _, d := range m.Data {
			s.WriteByte(0) // active, memory 0
			s.WriteByte(OpI32Const)
			WriteLEB128s(&s, int32(d.Offset))
			s.WriteByte(OpEnd)
			WriteLEB128u(&s, uint32(len(d.Init)))
			s.Write(d.Init)
		}
		writeSection(&out, SectionData, s.Bytes())
	}

	return out.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, data []byte) {
	w.WriteByte(id)
	WriteLEB128u(w, uint32(len(data)))
	w.Write(data)
}

func writeName(w *bytes.Buffer, name string) {
	WriteLEB128u(w, uint32(len(name)))
	w.WriteString(name)
}

func writeValTypes(w *bytes.Buffer, types []ValType) {
	WriteLEB128u(w, uint32(len(types)))
	for _, t := range types {
		w.WriteByte(byte(t))
	}
}

func writeLimits(w *bytes.Buffer, l Limits) {
	if l.Max != nil {
		w.WriteByte(0x01)
		WriteLEB128u(w, l.Min)
		WriteLEB128u(w, *l.Max)
		return
	}
	w.WriteByte(0x00)
	WriteLEB128u(w, l.Min)
}

// writeLocals groups consecutive locals of the same type.
func writeLocals(w *bytes.Buffer, locals []ValType) {
	var groups [][2]uint32
	for _, t := range locals {
		if n := len(groups); n > 0 && groups[n-1][1] == uint32(t) {
			groups[n-1][0]++
			continue
		}
		groups = append(groups, [2]uint32{1, uint32(t)})
	}
	WriteLEB128u(w, uint32(len(groups)))
	for _, g := range groups {
		WriteLEB128u(w, g[0])
		w.WriteByte(byte(g[1]))
	}
}
