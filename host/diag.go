package host

import (
	"strings"

	"go.uber.org/zap"
)

// Print writes length bytes at offset to the diagnostics writer.
func (r *Runtime) Print(offset, length uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print(offset, length, false)
}

// Println is Print followed by a newline.
func (r *Runtime) Println(offset, length uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.print(offset, length, true)
}

func (r *Runtime) print(offset, length uint32, newline bool) {
	mem := r.memory()
	if mem == nil {
		r.log.Warn("print before memory bound", zap.Uint32("offset", offset), zap.Uint32("length", length))
		return
	}
	data, err := mem.Read(offset, length)
	if err != nil {
		r.log.Warn("print out of bounds",
			zap.Uint32("offset", offset),
			zap.Uint32("length", length),
			zap.Error(err))
		return
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	if newline {
		text += "\n"
	}
	if text == "" {
		return
	}
	if _, err := r.diag.Write([]byte(text)); err != nil {
		r.log.Warn("diagnostics write failed", zap.Error(err))
	}
}

// DelayMs blocks for ms milliseconds on the board clock.
func (r *Runtime) DelayMs(ms uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.board.Delay(ms)
}
