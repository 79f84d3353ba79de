package pkg

import (
	"errors"
	"fmt"
)

// Driver errors.
var (
	// ErrInvalidConfiguration indicates a missing or invalid instance parameter.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingConfiguration indicates the required capacity was not declared.
	ErrMissingConfiguration = fmt.Errorf("%w: 'size' property must be specified", ErrInvalidConfiguration)

	// ErrUnsupportedBus indicates the transport lacks plain I2C transfers.
	ErrUnsupportedBus = errors.New("controller does not support I2C")

	// ErrCapacityExceeded indicates the maximum number of instances is attached.
	ErrCapacityExceeded = errors.New("maximum device count reached")

	// ErrNotFound indicates an unknown or already detached minor id.
	ErrNotFound = errors.New("instance not found")

	// ErrNoSuchInstance indicates an open against a detached instance.
	ErrNoSuchInstance = fmt.Errorf("%w: no such instance", ErrNotFound)

	// ErrInvalidSeek indicates a seek result outside [0, capacity].
	ErrInvalidSeek = errors.New("invalid seek")

	// ErrTransport matches every *TransportError via errors.Is.
	ErrTransport = errors.New("transport error")

	// ErrClosed indicates use of a closed session or driver.
	ErrClosed = errors.New("closed")
)

// Direction is the direction of a single-byte bus transaction.
type Direction uint8

// Transaction directions.
const (
	DirectionRead  Direction = iota // Byte read from the device
	DirectionWrite                  // Byte written to the device
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "read"
	case DirectionWrite:
		return "write"
	default:
		return "unknown"
	}
}

// TransportError reports a failed single-byte transaction. Offset is the
// absolute byte offset within the EEPROM at which the transaction failed.
type TransportError struct {
	Direction Direction
	Address   uint16
	Offset    int64
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failure at 0x%02x offset 0x%x: %v",
		e.Direction, e.Address, e.Offset, e.Err)
}

// Unwrap returns the underlying bus error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
