// Package config loads host configuration from TOML.
//
// A missing key keeps its default, so an empty file yields Default():
//
//	[board]
//	profile = "esp32c3"
//	loopback = [[8, 10]]
//
//	[uart]
//	baud = 115200
//	device = "/dev/ttyUSB0"
//
//	[gpio]
//	deinit = "any"
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-hal/engine"
	"github.com/wippyai/wasm-hal/errors"
	"github.com/wippyai/wasm-hal/hal"
	"github.com/wippyai/wasm-hal/host"
)

// Config is the full host configuration.
type Config struct {
	Board   Board   `toml:"board"`
	UART    UART    `toml:"uart"`
	GPIO    GPIO    `toml:"gpio"`
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`
	Trace   Trace   `toml:"trace"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Board selects the pin set and simulator wiring.
type Board struct {
	Profile  string      `toml:"profile"`
	Pins     []uint32    `toml:"pins"`
	Loopback [][2]uint32 `toml:"loopback"`
}

// UART configures the serial connection opened by uart_init.
type UART struct {
	Device string `toml:"device"`
	Baud   uint32 `toml:"baud"`
}

// GPIO configures pin lifecycle policy.
type GPIO struct {
	Deinit string `toml:"deinit"`
}

// Runtime configures the guest engine.
type Runtime struct {
	Entry            string `toml:"entry"`
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
}

// Log configures the host logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Trace configures the call trace file.
type Trace struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Board: Board{
			Profile:  hal.ESP32C3.Name,
			Loopback: [][2]uint32{{8, 10}},
		},
		UART:    UART{Baud: host.DefaultBaudRate},
		GPIO:    GPIO{Deinit: host.DeinitOutputOnly.String()},
		Runtime: Runtime{Entry: engine.DefaultEntry, MemoryLimitPages: 16},
		Log:     Log{Level: "info", Development: true},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("read "+path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Config("parse", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown keys: %s", strings.Join(keys, ", ")).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	pins, err := c.PinMap()
	if err != nil {
		return err
	}
	for _, w := range c.Board.Loopback {
		for _, p := range w {
			if _, ok := pins.Lookup(p); !ok {
				return invalid("board.loopback: pin %d is not on the board", p)
			}
		}
	}
	if c.UART.Baud == 0 {
		return invalid("uart.baud must be positive")
	}
	if _, err := c.DeinitPolicy(); err != nil {
		return err
	}
	if c.Runtime.Entry == "" {
		return invalid("runtime.entry must not be empty")
	}
	if c.Runtime.MemoryLimitPages > 65536 {
		return invalid("runtime.memory_limit_pages %d exceeds 65536", c.Runtime.MemoryLimitPages)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Config("log.level", err)
	}
	return nil
}

// PinMap builds the board pin map: explicit pins win over the profile.
func (c *Config) PinMap() (*hal.PinMap, error) {
	if len(c.Board.Pins) > 0 {
		return hal.NewPinMap(c.Board.Pins...)
	}
	p, err := hal.LookupProfile(c.Board.Profile)
	if err != nil {
		return nil, err
	}
	return p.PinMap()
}

// DeinitPolicy parses gpio.deinit.
func (c *Config) DeinitPolicy() (host.DeinitPolicy, error) {
	return host.ParseDeinitPolicy(c.GPIO.Deinit)
}

// EngineConfig returns the engine settings.
func (c *Config) EngineConfig() *engine.Config {
	return &engine.Config{
		Entry:            c.Runtime.Entry,
		MemoryLimitPages: c.Runtime.MemoryLimitPages,
	}
}

// NewLogger builds a zap logger from the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Config("log.level", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func invalid(format string, args ...any) error {
	return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf(format, args...))
}
