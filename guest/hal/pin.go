package hal

import "github.com/wippyai/wasm-hal/guest/abi"

// Pin is a pin with no direction yet.
type Pin struct {
	ref     abi.PinRef
	granted bool
	used    bool
}

// Port returns the pin's port.
func (p *Pin) Port() uint32 { return p.ref.Port }

// Number returns the pin number within its port.
func (p *Pin) Number() uint32 { return p.ref.Pin }

// spend marks p converted, or reports why it cannot be.
func (p *Pin) spend() error {
	if !p.granted {
		return ErrNotTaken
	}
	if p.used {
		return ErrPinConsumed
	}
	p.used = true
	return nil
}

// IntoInput claims the pin as an input. p is spent whether or not the
// host accepts the claim.
func (p *Pin) IntoInput() (*InputPin, error) {
	if err := p.spend(); err != nil {
		return nil, err
	}
	if err := check("gpio_init", abi.GPIOInit(p.ref.Port, p.ref.Pin, true)); err != nil {
		return nil, err
	}
	return &InputPin{ref: p.ref}, nil
}

// IntoOutput claims the pin as an output. p is spent whether or not the
// host accepts the claim.
func (p *Pin) IntoOutput() (*OutputPin, error) {
	if err := p.spend(); err != nil {
		return nil, err
	}
	if err := check("gpio_init", abi.GPIOInit(p.ref.Port, p.ref.Pin, false)); err != nil {
		return nil, err
	}
	return &OutputPin{ref: p.ref}, nil
}

// InputPin is a pin claimed for reading.
type InputPin struct {
	ref abi.PinRef
}

func (p *InputPin) Port() uint32   { return p.ref.Port }
func (p *InputPin) Number() uint32 { return p.ref.Pin }

// IsHigh samples the pin.
func (p *InputPin) IsHigh() (bool, error) {
	level, c := abi.GPIORead(p.ref.Port, p.ref.Pin)
	if err := check("gpio_read", c); err != nil {
		return false, err
	}
	return level != 0, nil
}

// IsLow samples the pin.
func (p *InputPin) IsLow() (bool, error) {
	high, err := p.IsHigh()
	return !high, err
}

// Release asks the host to deinitialize the pin. Whether an input is
// actually freed depends on the host's deinit policy.
func (p *InputPin) Release() error {
	return check("gpio_deinit", abi.GPIODeinit(p.ref.Port, p.ref.Pin))
}

// OutputPin is a pin claimed for driving.
type OutputPin struct {
	ref abi.PinRef
}

func (p *OutputPin) Port() uint32   { return p.ref.Port }
func (p *OutputPin) Number() uint32 { return p.ref.Pin }

// Set drives the pin high when high is true, low otherwise.
func (p *OutputPin) Set(high bool) error {
	var v uint32
	if high {
		v = 1
	}
	return check("gpio_write", abi.GPIOWrite(p.ref.Port, p.ref.Pin, v))
}

func (p *OutputPin) SetHigh() error { return p.Set(true) }
func (p *OutputPin) SetLow() error  { return p.Set(false) }

// Release frees the pin on the host. Later writes fail with
// code.NotOutput.
func (p *OutputPin) Release() error {
	return check("gpio_deinit", abi.GPIODeinit(p.ref.Port, p.ref.Pin))
}
