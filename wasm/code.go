package wasm

import "bytes"

// Code assembles a function body. Methods return the receiver so
// instructions can be chained.
type Code struct {
	buf bytes.Buffer
}

// Bytes returns the assembled instructions.
func (c *Code) Bytes() []byte { return c.buf.Bytes() }

func (c *Code) op(b byte) *Code {
	c.buf.WriteByte(b)
	return c
}

func (c *Code) opU32(b byte, v uint32) *Code {
	c.buf.WriteByte(b)
	WriteLEB128u(&c.buf, v)
	return c
}

// memarg writes alignment (log2) and offset.
func (c *Code) memarg(b byte, align, offset uint32) *Code {
	c.buf.WriteByte(b)
	WriteLEB128u(&c.buf, align)
	WriteLEB128u(&c.buf, offset)
	return c
}

func (c *Code) Unreachable() *Code { return c.op(OpUnreachable) }
func (c *Code) Nop() *Code         { return c.op(OpNop) }
func (c *Code) Block() *Code       { return c.op(OpBlock).op(BlockVoid) }
func (c *Code) Loop() *Code        { return c.op(OpLoop).op(BlockVoid) }
func (c *Code) If() *Code          { return c.op(OpIf).op(BlockVoid) }
func (c *Code) Else() *Code        { return c.op(OpElse) }
func (c *Code) End() *Code         { return c.op(OpEnd) }
func (c *Code) Return() *Code      { return c.op(OpReturn) }
func (c *Code) Drop() *Code        { return c.op(OpDrop) }

func (c *Code) Br(depth uint32) *Code   { return c.opU32(OpBr, depth) }
func (c *Code) BrIf(depth uint32) *Code { return c.opU32(OpBrIf, depth) }
func (c *Code) Call(fn uint32) *Code    { return c.opU32(OpCall, fn) }

func (c *Code) LocalGet(i uint32) *Code { return c.opU32(OpLocalGet, i) }
func (c *Code) LocalSet(i uint32) *Code { return c.opU32(OpLocalSet, i) }
func (c *Code) LocalTee(i uint32) *Code { return c.opU32(OpLocalTee, i) }

// I32Const pushes v.
func (c *Code) I32Const(v int32) *Code {
	c.buf.WriteByte(OpI32Const)
	WriteLEB128s(&c.buf, v)
	return c
}

func (c *Code) I32Load(offset uint32) *Code   { return c.memarg(OpI32Load, 2, offset) }
func (c *Code) I32Load8U(offset uint32) *Code { return c.memarg(OpI32Load8U, 0, offset) }
func (c *Code) I32Store(offset uint32) *Code  { return c.memarg(OpI32Store, 2, offset) }
func (c *Code) I32Store8(offset uint32) *Code { return c.memarg(OpI32Store8, 0, offset) }

func (c *Code) I32Eqz() *Code { return c.op(OpI32Eqz) }
func (c *Code) I32Eq() *Code  { return c.op(OpI32Eq) }
func (c *Code) I32Ne() *Code  { return c.op(OpI32Ne) }
func (c *Code) I32LtS() *Code { return c.op(OpI32LtS) }
func (c *Code) I32LtU() *Code { return c.op(OpI32LtU) }
func (c *Code) I32Add() *Code { return c.op(OpI32Add) }
func (c *Code) I32Sub() *Code { return c.op(OpI32Sub) }
func (c *Code) I32And() *Code { return c.op(OpI32And) }
func (c *Code) I32Xor() *Code { return c.op(OpI32Xor) }
