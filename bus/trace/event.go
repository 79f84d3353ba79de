package trace

import (
	"fmt"
	"time"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// Event is a single byte transaction observed on the bus.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the transaction started (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Session is the id of the session that issued the transaction, if any.
	Session string `cbor:"2,keyasint,omitempty"`

	// Direction of the transfer.
	Direction pkg.Direction `cbor:"3,keyasint"`

	// Addr is the 7-bit device address.
	Addr bus.Addr `cbor:"4,keyasint"`

	// Offset is the word address inside the device.
	Offset uint16 `cbor:"5,keyasint"`

	// Value read or written. Zero when the transfer failed.
	Value byte `cbor:"6,keyasint"`

	// Duration of the transaction.
	Duration time.Duration `cbor:"7,keyasint,omitempty"`

	// Error text when the transfer failed.
	Error string `cbor:"8,keyasint,omitempty"`
}

// Failed reports whether the transaction returned an error.
func (e Event) Failed() bool {
	return e.Error != ""
}

// String formats the event as a single trace line.
func (e Event) String() string {
	s := fmt.Sprintf("%s %-5s %s[0x%04x]", e.Timestamp.Format(time.RFC3339Nano),
		e.Direction, e.Addr, e.Offset)
	if e.Failed() {
		s += " error: " + e.Error
	} else {
		s += fmt.Sprintf(" = 0x%02x", e.Value)
	}
	if e.Session != "" {
		s += " session=" + e.Session
	}
	return s
}
