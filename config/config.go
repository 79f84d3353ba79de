// Package config loads the YAML configuration of the at24ctl tool and turns
// it into driver options and device attachments.
//
// A configuration file looks like:
//
//	max_devices: 32
//	write_delay: 8ms
//	log:
//	  level: info
//	  format: text
//	trace: /tmp/eeprom.trace
//	bus:
//	  kind: linux
//	  device: /dev/i2c-1
//	devices:
//	  - address: 0x50
//	    size: 256
//	  - address: 0x57
//	    size: 32768
//
// Fields left out keep the values of [Default].
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/eeprom"
	"github.com/ardnew/softeeprom/pkg"
)

// Bus kinds.
const (
	BusSim   = "sim"
	BusLinux = "linux"
)

// DefaultBusDevice is the adapter node used when bus.device is empty.
const DefaultBusDevice = "/dev/i2c-1"

// Config is the top level configuration.
type Config struct {
	MaxDevices int           `yaml:"max_devices"`
	WriteDelay time.Duration `yaml:"write_delay"`
	Log        LogConfig     `yaml:"log"`
	Trace      string        `yaml:"trace"`
	Bus        BusConfig     `yaml:"bus"`
	Devices    []Device      `yaml:"devices"`
}

// LogConfig selects the level and format of diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BusConfig selects the transport.
type BusConfig struct {
	Kind   string `yaml:"kind"`
	Device string `yaml:"device"`
}

// Device is one EEPROM to attach at startup.
type Device struct {
	Address uint16 `yaml:"address"`
	Size    uint32 `yaml:"size"`
}

// AttachConfig converts the entry for eeprom.Driver.Attach.
func (d Device) AttachConfig() eeprom.AttachConfig {
	return eeprom.AttachConfig{Address: bus.Addr(d.Address), Capacity: d.Size}
}

// Default returns the built-in configuration: a simulated bus with no
// devices, 32 device slots and an 8ms write delay.
func Default() *Config {
	return &Config{
		MaxDevices: eeprom.DefaultMaxDevices,
		WriteDelay: eeprom.DefaultWriteDelay,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Bus: BusConfig{
			Kind:   BusSim,
			Device: DefaultBusDevice,
		},
	}
}

// LoadError describes a configuration file that could not be used.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   errors.Join(pkg.ErrInvalidConfiguration, err),
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{
			Message: "invalid configuration",
			Cause:   err,
		}
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return nil, err
	}

	pkg.LogDebug(pkg.ComponentConfig, "configuration loaded",
		"path", path,
		"bus", cfg.Bus.Kind,
		"devices", len(cfg.Devices))
	return cfg, nil
}

// Validate checks every field. Errors match pkg.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format,
			append([]any{pkg.ErrInvalidConfiguration}, args...)...))
	}

	if c.MaxDevices <= 0 {
		invalid("max_devices must be positive, got %d", c.MaxDevices)
	}
	if c.WriteDelay < 0 {
		invalid("write_delay must not be negative, got %s", c.WriteDelay)
	}
	if _, ok := pkg.ParseLogLevel(c.Log.Level); !ok {
		invalid("unknown log level %q", c.Log.Level)
	}
	if _, ok := pkg.ParseLogFormat(c.Log.Format); !ok {
		invalid("unknown log format %q", c.Log.Format)
	}

	switch strings.ToLower(c.Bus.Kind) {
	case BusSim:
	case BusLinux:
		if c.Bus.Device == "" {
			invalid("bus.device is required for the linux bus")
		}
	default:
		invalid("unknown bus kind %q", c.Bus.Kind)
	}

	if len(c.Devices) > c.MaxDevices && c.MaxDevices > 0 {
		invalid("%d devices exceed max_devices %d", len(c.Devices), c.MaxDevices)
	}
	seen := make(map[uint16]bool, len(c.Devices))
	for i, d := range c.Devices {
		switch {
		case !bus.Addr(d.Address).Valid():
			invalid("devices[%d]: address 0x%x is not a 7-bit address", i, d.Address)
		case d.Size == 0:
			errs = append(errs, fmt.Errorf("devices[%d]: %w", i, pkg.ErrMissingConfiguration))
		case d.Size > eeprom.MaxCapacity:
			invalid("devices[%d]: size %d exceeds %d", i, d.Size, eeprom.MaxCapacity)
		case seen[d.Address]:
			invalid("devices[%d]: duplicate address 0x%02x", i, d.Address)
		}
		seen[d.Address] = true
	}

	return errors.Join(errs...)
}

// BusKind returns the normalized bus kind.
func (c *Config) BusKind() string {
	return strings.ToLower(c.Bus.Kind)
}

// DriverOptions returns the eeprom.Driver options described by c.
func (c *Config) DriverOptions() []eeprom.Option {
	return []eeprom.Option{
		eeprom.WithMaxDevices(c.MaxDevices),
		eeprom.WithWriteDelay(c.WriteDelay),
	}
}

// ApplyLogging configures the package logger to write to w at the
// configured level and format.
func (c *Config) ApplyLogging(w io.Writer) error {
	level, ok := pkg.ParseLogLevel(c.Log.Level)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", pkg.ErrInvalidConfiguration, c.Log.Level)
	}
	format, ok := pkg.ParseLogFormat(c.Log.Format)
	if !ok {
		return fmt.Errorf("%w: unknown log format %q", pkg.ErrInvalidConfiguration, c.Log.Format)
	}
	pkg.SetLogLevel(level)
	pkg.SetLogOutput(w, format)
	return nil
}
