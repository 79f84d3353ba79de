// Package linux provides a bus.Transport for Linux i2c-dev adapters.
//
// The transport talks to /dev/i2c-N character devices through ioctl. It is
// pure Go with no cgo dependencies.
//
// # Requirements
//
// The i2c-dev kernel module must be loaded and the user must have
// read/write access to the adapter node. This typically requires either:
//   - Running as root
//   - Membership of the group owning /dev/i2c-* (often "i2c")
//
// # Transactions
//
// Devices up to 256 bytes take a one-byte word address and are accessed
// with SMBus byte-data transfers (I2C_SMBUS). Larger devices take a two-byte
// word address and are accessed with combined I2C messages (I2C_RDWR); see
// [Adapter.SetWideAddressing].
//
// Adapter capabilities are queried once with I2C_FUNCS when the adapter is
// opened and reported verbatim by Functionality.
package linux
