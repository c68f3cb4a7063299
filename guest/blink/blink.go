// Package blink is the example guest program: it blinks an LED and
// reports the level of an input pin over the UART and the diagnostic
// channel.
package blink

import (
	"tinygo.org/x/drivers"

	"github.com/wippyai/wasm-hal/guest/hal"
)

// Config selects pins and timing. Ports are always 0.
type Config struct {
	LED    uint32
	Input  uint32
	TX     uint32
	RX     uint32
	Period uint32 // ms per half cycle
	Cycles int    // 0 runs forever
}

// DefaultConfig matches the reference board wiring.
func DefaultConfig() Config {
	return Config{LED: 8, Input: 10, TX: 3, RX: 2, Period: 1000}
}

// Run takes the peripherals and blinks.
func Run(cfg Config) error {
	p, err := hal.Take()
	if err != nil {
		return err
	}
	return Blink(p, cfg)
}

// Blink claims the pins and blinks until Cycles is reached or a host call
// fails.
func Blink(p *hal.Peripherals, cfg Config) error {
	led, err := p.Pin(0, cfg.LED).IntoOutput()
	if err != nil {
		return err
	}
	in, err := p.Pin(0, cfg.Input).IntoInput()
	if err != nil {
		return err
	}
	tx, err := p.Pin(0, cfg.TX).IntoOutput()
	if err != nil {
		return err
	}
	rx, err := p.Pin(0, cfg.RX).IntoInput()
	if err != nil {
		return err
	}
	uart, err := hal.NewUART(hal.UARTPins{TX: tx, RX: rx})
	if err != nil {
		return err
	}
	return Loop(led, in, uart, cfg)
}

// Loop blinks led and reports the level of in on port until Cycles is
// reached or a call fails. port may be the host UART from hal.NewUART or
// any other drivers.UART, such as a TinyGo machine.UART.
func Loop(led *hal.OutputPin, in *hal.InputPin, port drivers.UART, cfg Config) error {
	for i := 0; cfg.Cycles == 0 || i < cfg.Cycles; i++ {
		if err := led.SetHigh(); err != nil {
			return err
		}
		high, err := in.IsHigh()
		if err != nil {
			return err
		}
		msg := "val " + itoa(in.Number()) + " lo"
		if high {
			msg = "val " + itoa(in.Number()) + " hi"
		}
		if _, err := port.Write([]byte(msg + "\n")); err != nil {
			return err
		}
		hal.Println(msg)
		hal.Delay(cfg.Period)

		if err := led.SetLow(); err != nil {
			return err
		}
		hal.Delay(cfg.Period)
	}
	return nil
}

// itoa keeps fmt out of the guest binary.
func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
