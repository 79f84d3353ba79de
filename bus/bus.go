package bus

import (
	"context"
	"errors"
	"fmt"
)

// Addr is a 7-bit I2C device address.
type Addr uint16

// MaxAddr is the highest valid 7-bit address.
const MaxAddr Addr = 0x7F

// Valid reports whether a fits in 7 bits.
func (a Addr) Valid() bool {
	return a <= MaxAddr
}

// String returns the address in the 0x%02x form used by i2cdetect.
func (a Addr) String() string {
	return fmt.Sprintf("0x%02x", uint16(a))
}

// Functionality is a bitmask of adapter capabilities. Bit values mirror the
// Linux I2C_FUNC_* constants so that adapters can report them verbatim.
type Functionality uint32

// Functionality bits.
const (
	FuncI2C                Functionality = 0x00000001 // Plain I2C messages
	FuncTenBitAddr         Functionality = 0x00000002 // 10-bit addressing
	FuncSMBusReadByteData  Functionality = 0x00080000 // SMBus read byte data
	FuncSMBusWriteByteData Functionality = 0x00100000 // SMBus write byte data
)

// Common capability sets.
const (
	FuncSMBusByteData = FuncSMBusReadByteData | FuncSMBusWriteByteData
	FuncEEPROM        = FuncI2C | FuncSMBusByteData
)

// Has reports whether every bit of want is present in f.
func (f Functionality) Has(want Functionality) bool {
	return f&want == want
}

// Transport errors.
var (
	// ErrNAK indicates the addressed device did not acknowledge.
	ErrNAK = errors.New("no acknowledge")

	// ErrNoDevice indicates no device responds at the address.
	ErrNoDevice = errors.New("no device at address")

	// ErrTimeout indicates the transaction did not complete in time.
	ErrTimeout = errors.New("bus timeout")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")

	// ErrOffsetRange indicates a word address the device cannot hold.
	ErrOffsetRange = errors.New("word address out of range")
)

// Transport performs single-byte transactions against EEPROM devices on one
// I2C bus. Each call is one complete bus transaction and is assumed atomic.
//
// The offset is the EEPROM word address. Implementations decide how it is
// encoded on the wire (one byte for devices up to 256 bytes, two bytes
// otherwise).
//
// All methods must be safe for concurrent use.
type Transport interface {
	// ReadByteData reads the byte stored at offset of the device at addr.
	ReadByteData(ctx context.Context, addr Addr, offset uint16) (byte, error)

	// WriteByteData stores value at offset of the device at addr. The call
	// returns once the bus transaction completes; the device may still be
	// busy with its internal write cycle.
	WriteByteData(ctx context.Context, addr Addr, offset uint16, value byte) error

	// Functionality returns the capabilities of the underlying adapter.
	Functionality() Functionality
}

// WideAddresser is implemented by transports that must be told which
// devices use two-byte word addresses. eeprom.Driver.Attach configures it
// for every device it attaches.
type WideAddresser interface {
	SetWideAddressing(addr Addr, wide bool)
}

// WideAddressing reports whether a device of the given capacity needs a
// two-byte word address.
func WideAddressing(capacity uint32) bool {
	return capacity > 256
}
