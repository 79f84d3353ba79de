package eeprom

import "time"

// Driver defaults.
const (
	// DefaultMaxDevices is the number of minors reserved for EEPROM nodes.
	DefaultMaxDevices = 32

	// DefaultWriteDelay is the settling time after every written byte. It
	// covers the AT24 internal write cycle (tWR, 5ms max on most parts).
	DefaultWriteDelay = 8 * time.Millisecond

	// MaxCapacity is the largest device addressable with a two-byte word
	// address.
	MaxCapacity = 1 << 16
)

// Config holds the driver configuration.
type Config struct {
	// MaxDevices is the maximum number of simultaneously attached instances.
	MaxDevices int

	// WriteDelay is the pause after each byte write. It is part of the
	// device protocol, not a tuning knob: too short a delay makes the next
	// transaction hit a chip that is still programming.
	WriteDelay time.Duration

	// Nodes publishes device nodes. Defaults to a NodeTable.
	Nodes NodePublisher
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		MaxDevices: DefaultMaxDevices,
		WriteDelay: DefaultWriteDelay,
	}
}

// Option is a functional option for configuring the Driver.
type Option func(*Config)

// WithMaxDevices sets the maximum number of attached instances.
// Non-positive values are ignored.
//
// Example:
//
//	drv := eeprom.NewDriver(eeprom.WithMaxDevices(4))
func WithMaxDevices(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxDevices = n
		}
	}
}

// WithWriteDelay sets the settling delay applied after each byte write.
// Negative values are ignored.
//
// Example:
//
//	drv := eeprom.NewDriver(eeprom.WithWriteDelay(10 * time.Millisecond))
func WithWriteDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.WriteDelay = d
		}
	}
}

// WithNodePublisher sets the publisher used for device nodes.
func WithNodePublisher(p NodePublisher) Option {
	return func(c *Config) {
		if p != nil {
			c.Nodes = p
		}
	}
}
