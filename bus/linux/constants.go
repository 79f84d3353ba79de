package linux

import "fmt"

// =============================================================================
// System Paths
// =============================================================================

// DevfsPrefix is the prefix of i2c-dev adapter nodes.
const DevfsPrefix = "/dev/i2c-"

// SysfsI2CDevPath is the sysfs class directory listing i2c-dev adapters.
const SysfsI2CDevPath = "/sys/class/i2c-dev"

// DevicePath returns the adapter node for the numbered bus, e.g. /dev/i2c-1.
func DevicePath(bus int) string {
	return fmt.Sprintf("%s%d", DevfsPrefix, bus)
}

// =============================================================================
// i2c-dev ioctl Requests (linux/i2c-dev.h)
// =============================================================================

// These requests are plain numbers, not _IOC encoded, so they are the same
// on every architecture.
const (
	ioctlI2CSlave = 0x0703 // Select the target address for plain transfers
	ioctlI2CFuncs = 0x0705 // Query adapter functionality
	ioctlI2CRdwr  = 0x0707 // Combined read/write transfer
	ioctlI2CSmbus = 0x0720 // SMBus transfer
)

// =============================================================================
// SMBus and Message Constants (linux/i2c.h)
// =============================================================================

// SMBus transfer directions.
const (
	smbusWrite = 0
	smbusRead  = 1
)

// SMBus transaction size for byte data.
const smbusByteData = 2

// smbusBlockMax is the largest SMBus block payload.
const smbusBlockMax = 32

// i2cMsgRead marks an i2c_msg as a read.
const i2cMsgRead = 0x0001

// maxNarrowOffset is the largest offset expressible with a one-byte word
// address.
const maxNarrowOffset = 0xFF
