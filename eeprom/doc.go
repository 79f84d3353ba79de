// Package eeprom implements a driver for AT24-family I2C EEPROMs.
//
// The driver turns a bus that can only move one byte per transaction into
// file-like sessions with an offset, short reads and short writes.
//
// # Lifecycle
//
// A [Driver] attaches instances as devices are discovered. Each attach
// validates the declared size and the adapter capabilities, assigns a minor
// id from the [Registry] and publishes a device node named eeprom<minor>:
//
//	drv := eeprom.NewDriver()
//	minor, err := drv.Attach(transport, eeprom.AttachConfig{
//	    Address:  0x50,
//	    Capacity: 256,
//	})
//
// Detach unpublishes the node and releases the registry entry. Sessions that
// are still open are not revoked; their next read or write fails with
// [pkg.ErrNotFound].
//
// # Sessions
//
//	s, err := drv.Open(minor)
//	defer s.Close()
//	n, err := s.Write(ctx, []byte("data"))
//	s.Seek(0, io.SeekStart)
//	data, err := s.Read(ctx, 5)
//
// The last byte of every device is an EOF guard: reads and writes never
// reach it, and a transfer starting there returns zero bytes without error.
// See [Span].
//
// After every written byte the session sleeps for the configured write
// delay (8ms by default) so the chip can finish its internal write cycle
// before the next transaction.
//
// # Concurrency
//
// The registry is safe for concurrent use; attach and detach are mutually
// exclusive. Sessions on the same instance are not coordinated and
// concurrent writers may interleave bytes.
package eeprom
