//go:build !wasm

package native

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/wasm-hal/abi/code"
	guestabi "github.com/wippyai/wasm-hal/guest/abi"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/hal/sim"
	"github.com/wippyai/wasm-hal/host"
)

func setup(t *testing.T) (*Backend, *sim.Board, *bytes.Buffer) {
	t.Helper()
	pins, err := hal.ESP32C3.PinMap()
	if err != nil {
		t.Fatal(err)
	}
	board := sim.New(pins, sim.WithSleep(func(time.Duration) {}), sim.WithUARTLoopback())
	var diag bytes.Buffer
	b := Attach(host.New(board, host.WithDiagnostics(&diag)))
	t.Cleanup(b.Detach)
	return b, board, &diag
}

func TestBackend_GPIO(t *testing.T) {
	_, board, _ := setup(t)

	if c := guestabi.GPIOInit(0, 10, true); c != code.OK {
		t.Fatalf("GPIOInit = %s", c)
	}
	_ = board.SetLevel(10, true)
	level, c := guestabi.GPIORead(0, 10)
	if c != code.OK || level != 1 {
		t.Errorf("GPIORead = %d %s", level, c)
	}
	if c := guestabi.GPIOWrite(0, 10, 1); c != code.NotOutput {
		t.Errorf("GPIOWrite on input = %s", c)
	}
	if _, c := guestabi.GPIORead(0, 99); c != code.UnsupportedPin {
		t.Errorf("GPIORead unsupported = %s", c)
	}
}

func TestBackend_UART(t *testing.T) {
	_, board, _ := setup(t)

	cts := guestabi.PinRef{Port: 0, Pin: 4}
	h, c := guestabi.UARTInit(guestabi.UARTConfig{
		TX:  guestabi.PinRef{Pin: 3},
		RX:  guestabi.PinRef{Pin: 2},
		CTS: &cts,
		RTS: &guestabi.PinRef{Pin: 5},
	})
	if c != code.OK || h != 1 {
		t.Fatalf("UARTInit = %d %s", h, c)
	}
	if c := guestabi.UARTWrite(h, 'A'); c != code.OK {
		t.Fatalf("UARTWrite = %s", c)
	}
	v, c := guestabi.UARTRead(h)
	if c != code.OK || v != 'A' {
		t.Errorf("UARTRead = %q %s", v, c)
	}
	if string(board.UART().Transmitted()) != "A" {
		t.Errorf("transmitted %q", board.UART().Transmitted())
	}
	if _, c := guestabi.UARTInit(guestabi.UARTConfig{TX: guestabi.PinRef{Pin: 3}, RX: guestabi.PinRef{Pin: 2}}); c != code.AlreadyOpen {
		t.Errorf("second UARTInit = %s", c)
	}
}

func TestBackend_Print(t *testing.T) {
	b, board, diag := setup(t)

	guestabi.Print("héllo ")
	long := strings.Repeat("x", scratchSize)
	guestabi.Println(long)
	if diag.String() != "héllo "+long+"\n" {
		t.Errorf("diagnostics length %d", diag.Len())
	}
	if b.Memory().Size() < textAddr+scratchSize {
		t.Error("scratch memory did not grow")
	}

	guestabi.DelayMs(20)
	if board.Delayed() != 20*time.Millisecond {
		t.Errorf("delayed %v", board.Delayed())
	}
}

func TestDetach(t *testing.T) {
	b, _, _ := setup(t)
	b.Detach()
	if c := guestabi.GPIOInit(0, 8, false); c != code.Hardware {
		t.Errorf("after Detach GPIOInit = %s", c)
	}
	// cleanup detaches again; restoring the detached default twice is harmless
}
