package hal

import (
	"sort"

	"github.com/wippyai/wasm-hal/errors"
)

// Profile is a named board pin set.
type Profile struct {
	Name string
	Pins []uint32
}

// PinMap builds the lookup table for the profile.
func (p Profile) PinMap() (*PinMap, error) {
	return NewPinMap(p.Pins...)
}

// ESP32C3 exposes GPIO 1-11 and 18-21.
var ESP32C3 = Profile{
	Name: "esp32c3",
	Pins: []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 18, 19, 20, 21},
}

var profiles = map[string]Profile{
	ESP32C3.Name: ESP32C3,
}

// LookupProfile returns the profile registered under name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, errors.NotFound(errors.PhaseHAL, "board profile", name)
	}
	return p, nil
}

// ProfileNames lists registered profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
