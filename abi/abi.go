package abi

import (
	"fmt"

	"go.bytecodealliance.org/wit"
)

// ModuleName is the import module every host function lives in.
const ModuleName = "env"

// Index identifies a host function at call time.
type Index uint32

const (
	UARTWrite  Index = 0
	UARTRead   Index = 1
	UARTInit   Index = 2
	Print      Index = 3
	GPIOWrite  Index = 4
	GPIORead   Index = 5
	GPIOInit   Index = 6
	GPIODeinit Index = 7
	DelayMs    Index = 8
	Println    Index = 9
)

// Param describes one argument of a host function.
type Param struct {
	Type    wit.Type
	Name    string
	Pointer bool // offset into guest linear memory
}

// Func is one entry of the host function table.
type Func struct {
	Result wit.Type // nil when the function returns nothing
	Name   string
	Params []Param
	Index  Index
}

// HasResult reports whether the function returns an error code.
func (f *Func) HasResult() bool { return f.Result != nil }

// Param returns the i-th parameter descriptor.
func (f *Func) Param(i int) Param { return f.Params[i] }

func (f *Func) String() string {
	return fmt.Sprintf("%s#%d", f.Name, f.Index)
}

func u32(name string) Param { return Param{Name: name, Type: wit.U32{}} }
func ptr(name string) Param { return Param{Name: name, Type: wit.U32{}, Pointer: true} }

var table = []Func{
	{Index: UARTWrite, Name: "uart_write", Result: wit.S32{}, Params: []Param{
		{Name: "handle", Type: wit.U8{}},
		{Name: "word", Type: wit.U8{}},
	}},
	{Index: UARTRead, Name: "uart_read", Result: wit.S32{}, Params: []Param{
		{Name: "handle", Type: wit.U8{}},
		ptr("out_ptr"),
	}},
	{Index: UARTInit, Name: "uart_init", Result: wit.S32{}, Params: []Param{
		ptr("handle_out_ptr"),
		u32("tx_port"), u32("tx_pin"),
		u32("rx_port"), u32("rx_pin"),
		ptr("cts_port_ptr"), ptr("cts_pin_ptr"),
		ptr("rts_port_ptr"), ptr("rts_pin_ptr"),
	}},
	{Index: Print, Name: "print", Params: []Param{ptr("offset"), u32("length")}},
	{Index: GPIOWrite, Name: "gpio_write", Result: wit.S32{}, Params: []Param{
		u32("port"), u32("pin"), u32("value"),
	}},
	{Index: GPIORead, Name: "gpio_read", Result: wit.S32{}, Params: []Param{
		u32("port"), u32("pin"), ptr("out_ptr"),
	}},
	{Index: GPIOInit, Name: "gpio_init", Result: wit.S32{}, Params: []Param{
		u32("port"), u32("pin"),
		{Name: "is_input", Type: wit.Bool{}},
	}},
	{Index: GPIODeinit, Name: "gpio_deinit", Result: wit.S32{}, Params: []Param{
		u32("port"), u32("pin"),
	}},
	{Index: DelayMs, Name: "delay_ms", Params: []Param{u32("ms")}},
	{Index: Println, Name: "println", Params: []Param{ptr("offset"), u32("length")}},
}

var byName = func() map[string]*Func {
	m := make(map[string]*Func, len(table))
	for i := range table {
		m[table[i].Name] = &table[i]
	}
	return m
}()

// Funcs returns the table ordered by index. Callers must not modify it.
func Funcs() []Func { return table }

// Len is the number of host functions.
func Len() int { return len(table) }

// Lookup returns the function with the given index.
func Lookup(idx Index) (*Func, bool) {
	if int(idx) >= len(table) {
		return nil, false
	}
	return &table[idx], true
}

// Resolve returns the function imported as module.name.
func Resolve(module, name string) (*Func, bool) {
	if module != ModuleName {
		return nil, false
	}
	f, ok := byName[name]
	return f, ok
}

// Name returns the import name for idx, or a placeholder for unknown indices.
func Name(idx Index) string {
	if f, ok := Lookup(idx); ok {
		return f.Name
	}
	return fmt.Sprintf("unknown#%d", idx)
}
