package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ParseImports reads the import section of a binary module. Other sections
// are skipped without validation.
func ParseImports(data []byte) ([]Import, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("module too short: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, fmt.Errorf("invalid magic number")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != Version {
		return nil, fmt.Errorf("unsupported version: %d", v)
	}

	r := bytes.NewReader(data[8:])
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := ReadLEB128u(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		if int64(size) > int64(r.Len()) {
			return nil, fmt.Errorf("section %d: size %d exceeds remaining %d bytes", id, size, r.Len())
		}
		if id != SectionImport {
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		imports, err := parseImportSection(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("import section: %w", err)
		}
		return imports, nil
	}
	return nil, nil
}

func parseImportSection(r *bytes.Reader) ([]Import, error) {
	count, err := ReadLEB128u(r)
	if err != nil {
		return nil, err
	}
	if int64(count) > int64(r.Len()) {
		return nil, fmt.Errorf("import count %d exceeds section size", count)
	}
	imports := make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		module, err := readName(r)
		if err != nil {
			return nil, err
		}
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		imp := Import{Module: module, Name: name, Kind: kind}

		switch kind {
		case KindFunc:
			if imp.TypeIdx, err = ReadLEB128u(r); err != nil {
				return nil, err
			}
		case KindTable:
			if _, err := r.ReadByte(); err != nil { // element type
				return nil, err
			}
			if _, err := readLimits(r); err != nil {
				return nil, err
			}
		case KindMemory:
			l, err := readLimits(r)
			if err != nil {
				return nil, err
			}
			imp.Memory = &l
		case KindGlobal:
			if _, err := r.ReadByte(); err != nil { // value type
				return nil, err
			}
			if _, err := r.ReadByte(); err != nil { // mutability
				return nil, err
			}
		case KindTag:
			if _, err := r.ReadByte(); err != nil { // attribute
				return nil, err
			}
			if _, err := ReadLEB128u(r); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown import kind: %d", kind)
		}
		imports = append(imports, imp)
	}
	return imports, nil
}

func readName(r *bytes.Reader) (string, error) {
	n, err := ReadLEB128u(r)
	if err != nil {
		return "", err
	}
	if int64(n) > int64(r.Len()) {
		return "", fmt.Errorf("name length %d exceeds remaining %d bytes", n, r.Len())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readLimits(r *bytes.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	var l Limits
	if l.Min, err = ReadLEB128u(r); err != nil {
		return Limits{}, err
	}
	if flags&0x01 != 0 {
		max, err := ReadLEB128u(r)
		if err != nil {
			return Limits{}, err
		}
		l.Max = &max
	}
	return l, nil
}
