package eeprom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/softeeprom/bus"
)

// Minor identifies one attached instance. Minor ids are handed out in
// increasing order and never reused within a Driver.
type Minor uint32

// NodePrefix is the device node name prefix.
const NodePrefix = "eeprom"

// NodeName returns the device node name for minor, e.g. "eeprom0".
func NodeName(minor Minor) string {
	return NodePrefix + strconv.FormatUint(uint64(minor), 10)
}

// ParseNodeName extracts the minor id from a node name produced by NodeName.
func ParseNodeName(name string) (Minor, error) {
	digits, ok := strings.CutPrefix(name, NodePrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("invalid node name %q", name)
	}
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid node name %q: %w", name, err)
	}
	return Minor(v), nil
}

// Instance represents one attached EEPROM. All fields are fixed at attach.
type Instance struct {
	transport bus.Transport
	addr      bus.Addr
	capacity  uint32
	minor     Minor
}

// Address returns the bus address of the device.
func (i *Instance) Address() bus.Addr {
	return i.addr
}

// Capacity returns the declared size in bytes.
func (i *Instance) Capacity() uint32 {
	return i.capacity
}

// Minor returns the minor id assigned at attach.
func (i *Instance) Minor() Minor {
	return i.minor
}

// Node returns the device node name.
func (i *Instance) Node() string {
	return NodeName(i.minor)
}

// String returns a short description for logs.
func (i *Instance) String() string {
	return fmt.Sprintf("%s@%s(%dB)", i.Node(), i.addr, i.capacity)
}
