// Package memory provides bounds-checked access to guest linear memory.
//
// Host functions receive guest pointers as untrusted integers. Every
// accessor here validates offset and length against the current memory
// size before touching a byte, so a bad pointer turns into an error the
// host can map to a call-time failure code.
//
// Wrap adapts a wazero api.Memory; Buffer is a plain byte slice with the
// same semantics, used when guest code runs in-process.
package memory
