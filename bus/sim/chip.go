package sim

import (
	"sync"
	"time"

	"github.com/ardnew/softeeprom/bus"
)

// Chip is a simulated AT24 EEPROM.
type Chip struct {
	data       []byte
	writeCycle time.Duration
	busyUntil  time.Time
	now        func() time.Time
	mutex      sync.Mutex
}

// NewChip creates a chip of the given size in bytes, erased to 0xFF.
func NewChip(size int) *Chip {
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Chip{
		data: data,
		now:  time.Now,
	}
}

// Size returns the chip size in bytes.
func (c *Chip) Size() int {
	return len(c.data)
}

// SetWriteCycle sets the internal write-cycle time. While a write cycle is
// in progress the chip NAKs every transaction. Zero disables the model.
func (c *Chip) SetWriteCycle(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.writeCycle = d
}

// Bytes returns a copy of the chip contents.
func (c *Chip) Bytes() []byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// Load copies p into the chip starting at off, bypassing the bus.
// Bytes past the end of the chip are dropped.
func (c *Chip) Load(off int, p []byte) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if off < 0 || off >= len(c.data) {
		return 0
	}
	return copy(c.data[off:], p)
}

// read returns the byte at the rolled-over word address.
func (c *Chip) read(off uint16) (byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.busy() {
		return 0, bus.ErrNAK
	}
	if len(c.data) == 0 {
		return 0, bus.ErrOffsetRange
	}
	return c.data[int(off)%len(c.data)], nil
}

// write stores value at the rolled-over word address and starts a write cycle.
func (c *Chip) write(off uint16, value byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.busy() {
		return bus.ErrNAK
	}
	if len(c.data) == 0 {
		return bus.ErrOffsetRange
	}
	c.data[int(off)%len(c.data)] = value
	if c.writeCycle > 0 {
		c.busyUntil = c.now().Add(c.writeCycle)
	}
	return nil
}

// busy reports whether a write cycle is still running. Caller holds mutex.
func (c *Chip) busy() bool {
	return c.writeCycle > 0 && c.now().Before(c.busyUntil)
}
