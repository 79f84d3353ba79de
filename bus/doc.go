// Package bus defines the byte transport used by the EEPROM driver.
//
// The transport is the only place where the driver touches hardware. It
// performs exactly one single-byte read or write per call against a device
// address and word offset, and reports the adapter's capabilities so the
// driver can refuse controllers that cannot speak I2C.
//
// # Design Principles
//
// The transport is designed to be:
//   - Minimal: one byte per transaction, no burst or page writes
//   - Generic: no knowledge of sessions, capacities or settling delays
//   - Owner of timeouts: the driver imposes none of its own
//
// # Implementations
//
//   - [github.com/ardnew/softeeprom/bus/sim]: in-memory AT24 chips for tests
//     and simulation
//   - [github.com/ardnew/softeeprom/bus/linux]: Linux i2c-dev adapters
//   - [github.com/ardnew/softeeprom/bus/trace]: a decorator that records every
//     transaction to a CBOR trace file
//
// # Example
//
//	type myTransport struct{ /* adapter state */ }
//
//	func (t *myTransport) ReadByteData(ctx context.Context, addr bus.Addr, off uint16) (byte, error) {
//	    // One complete read transaction
//	}
//
//	func (t *myTransport) Functionality() bus.Functionality {
//	    return bus.FuncEEPROM
//	}
package bus
