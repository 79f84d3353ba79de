//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// =============================================================================
// Kernel Structures
// =============================================================================

// smbusIoctlData must match the kernel's struct i2c_smbus_ioctl_data.
type smbusIoctlData struct {
	readWrite uint8
	command   uint8
	size      uint32
	data      uintptr
}

// smbusData must match the kernel's union i2c_smbus_data.
type smbusData [smbusBlockMax + 2]byte

// i2cMsg must match the kernel's struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// rdwrIoctlData must match the kernel's struct i2c_rdwr_ioctl_data.
type rdwrIoctlData struct {
	msgs  uintptr
	nmsgs uint32
}

// =============================================================================
// Adapter
// =============================================================================

// Adapter is an open i2c-dev adapter. It implements bus.Transport.
type Adapter struct {
	path  string
	fd    int
	funcs bus.Functionality

	// Target address currently selected with I2C_SLAVE; -1 when none.
	selected int
	wide     map[bus.Addr]bool

	// Transfer buffers live in the adapter so that the addresses handed to
	// the kernel point at heap memory. Guarded by mutex.
	frame     [3]byte
	value     [1]byte
	data      smbusData
	msgs      [2]i2cMsg
	smbusArgs smbusIoctlData
	rdwrArgs  rdwrIoctlData

	// The selected target is per-descriptor state, so selection and the
	// transfer that follows must not interleave with another transaction.
	mutex  sync.Mutex
	closed bool
}

// Open opens the adapter node at path (e.g. /dev/i2c-1) and queries its
// functionality.
func Open(path string) (*Adapter, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	funcs := new(uint64)
	if err := ioctl(fd, ioctlI2CFuncs, unsafe.Pointer(funcs)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("query functionality of %s: %w", path, err)
	}

	a := &Adapter{
		path:     path,
		fd:       fd,
		funcs:    bus.Functionality(*funcs),
		selected: -1,
		wide:     make(map[bus.Addr]bool),
	}
	pkg.LogInfo(pkg.ComponentBus, "i2c adapter opened",
		"path", path,
		"funcs", fmt.Sprintf("0x%08x", *funcs))
	return a, nil
}

// Path returns the adapter node path.
func (a *Adapter) Path() string {
	return a.path
}

// Close closes the adapter node.
func (a *Adapter) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return unix.Close(a.fd)
}

// SetWideAddressing selects two-byte word addresses for the device at addr.
// Devices larger than 256 bytes need it; see bus.WideAddressing.
// eeprom.Driver.Attach calls it, so direct calls are only needed when the
// adapter is used without the driver.
func (a *Adapter) SetWideAddressing(addr bus.Addr, wide bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.wide[addr] = wide
}

// Functionality implements bus.Transport.
func (a *Adapter) Functionality() bus.Functionality {
	return a.funcs
}

// ReadByteData implements bus.Transport.
func (a *Adapter) ReadByteData(ctx context.Context, addr bus.Addr, offset uint16) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.closed {
		return 0, bus.ErrClosed
	}

	if a.wide[addr] {
		a.frame[0], a.frame[1] = byte(offset>>8), byte(offset)
		a.msgs[0] = i2cMsg{addr: uint16(addr), len: 2, buf: uintptr(unsafe.Pointer(&a.frame[0]))}
		a.msgs[1] = i2cMsg{addr: uint16(addr), flags: i2cMsgRead, len: 1, buf: uintptr(unsafe.Pointer(&a.value[0]))}
		if err := a.rdwr(2); err != nil {
			return 0, err
		}
		return a.value[0], nil
	}

	if offset > maxNarrowOffset {
		return 0, bus.ErrOffsetRange
	}
	if err := a.selectTarget(addr); err != nil {
		return 0, err
	}
	if err := a.smbus(smbusRead, byte(offset)); err != nil {
		return 0, err
	}
	return a.data[0], nil
}

// WriteByteData implements bus.Transport.
func (a *Adapter) WriteByteData(ctx context.Context, addr bus.Addr, offset uint16, value byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.closed {
		return bus.ErrClosed
	}

	if a.wide[addr] {
		a.frame = [3]byte{byte(offset >> 8), byte(offset), value}
		a.msgs[0] = i2cMsg{addr: uint16(addr), len: 3, buf: uintptr(unsafe.Pointer(&a.frame[0]))}
		return a.rdwr(1)
	}

	if offset > maxNarrowOffset {
		return bus.ErrOffsetRange
	}
	if err := a.selectTarget(addr); err != nil {
		return err
	}
	a.data[0] = value
	return a.smbus(smbusWrite, byte(offset))
}

// =============================================================================
// Raw Transfers
// =============================================================================

// selectTarget points plain transfers at addr. Caller holds mutex.
func (a *Adapter) selectTarget(addr bus.Addr) error {
	if a.selected == int(addr) {
		return nil
	}
	if err := ioctlValue(a.fd, ioctlI2CSlave, uintptr(addr)); err != nil {
		return mapErrno(err)
	}
	a.selected = int(addr)
	return nil
}

// smbus performs one SMBus byte-data transfer on a.data. Caller holds mutex.
func (a *Adapter) smbus(readWrite uint8, command byte) error {
	a.smbusArgs = smbusIoctlData{
		readWrite: readWrite,
		command:   command,
		size:      smbusByteData,
		data:      uintptr(unsafe.Pointer(&a.data)),
	}
	return mapErrno(ioctl(a.fd, ioctlI2CSmbus, unsafe.Pointer(&a.smbusArgs)))
}

// rdwr performs one combined transfer of the first n messages in a.msgs.
// Caller holds mutex.
func (a *Adapter) rdwr(n int) error {
	a.rdwrArgs = rdwrIoctlData{
		msgs:  uintptr(unsafe.Pointer(&a.msgs[0])),
		nmsgs: uint32(n),
	}
	return mapErrno(ioctl(a.fd, ioctlI2CRdwr, unsafe.Pointer(&a.rdwrArgs)))
}

// ioctl performs a raw ioctl syscall with a pointer argument.
func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// ioctlValue performs a raw ioctl syscall with an integer argument.
func ioctlValue(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// mapErrno translates adapter errno values into bus errors, keeping the
// errno in the chain.
func mapErrno(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.ENXIO, unix.EREMOTEIO:
		return fmt.Errorf("%w: %w", bus.ErrNAK, errno)
	case unix.ETIMEDOUT:
		return fmt.Errorf("%w: %w", bus.ErrTimeout, errno)
	case unix.ENODEV:
		return fmt.Errorf("%w: %w", bus.ErrNoDevice, errno)
	default:
		return errno
	}
}

var (
	_ bus.Transport     = (*Adapter)(nil)
	_ bus.WideAddresser = (*Adapter)(nil)
)
