// Package wasm encodes small WebAssembly binary modules and scans the
// import section of existing ones.
//
// # Building
//
// Module holds the sections needed for core modules that import host
// functions, own a linear memory and export an entry point:
//
//	m := &wasm.Module{}
//	void := m.AddType(wasm.FuncType{})
//	delay := m.ImportFunc("env", "delay_ms", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
//	m.AddMemory(1, nil)
//	m.ExportMemory("memory", 0)
//
//	var body wasm.Code
//	body.I32Const(500).Call(delay).End()
//	start := m.AddFunc(void, nil, body.Bytes())
//	m.ExportFunc("start", start)
//
//	bin := m.Encode()
//
// Code is a tiny instruction assembler covering the integer, control, call
// and memory instructions these modules need.
//
// # Scanning
//
// ParseImports reads only the import section of a binary. Runtimes do not
// expose table and global imports, so link checks use it to reject them
// before instantiation.
package wasm
