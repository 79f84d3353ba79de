//go:build linux

package linux

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softeeprom/bus"
)

// =============================================================================
// Kernel Structure Layout Tests
// =============================================================================

func TestSmbusIoctlDataLayout(t *testing.T) {
	var d smbusIoctlData
	if off := unsafe.Offsetof(d.size); off != 4 {
		t.Errorf("offsetof(size) = %d, want 4", off)
	}
	if off := unsafe.Offsetof(d.data); off != 8 {
		t.Errorf("offsetof(data) = %d, want 8", off)
	}
	if size := unsafe.Sizeof(smbusData{}); size != 34 {
		t.Errorf("sizeof(i2c_smbus_data) = %d, want 34", size)
	}
}

func TestI2CMsgLayout(t *testing.T) {
	var m i2cMsg
	if off := unsafe.Offsetof(m.len); off != 4 {
		t.Errorf("offsetof(len) = %d, want 4", off)
	}
	if off := unsafe.Offsetof(m.buf); off != 8 {
		t.Errorf("offsetof(buf) = %d, want 8", off)
	}
}

// =============================================================================
// Error Mapping Tests
// =============================================================================

func TestMapErrno(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"nak", unix.ENXIO, bus.ErrNAK},
		{"remote io", unix.EREMOTEIO, bus.ErrNAK},
		{"timeout", unix.ETIMEDOUT, bus.ErrTimeout},
		{"no device", unix.ENODEV, bus.ErrNoDevice},
		{"other errno kept", unix.EIO, unix.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErrno(tt.err)
			if !errors.Is(got, tt.target) {
				t.Errorf("mapErrno(%v) = %v, want match for %v", tt.err, got, tt.target)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapErrno(%v) = %v, lost original errno", tt.err, got)
			}
		})
	}

	if mapErrno(nil) != nil {
		t.Error("mapErrno(nil) should be nil")
	}
	plain := errors.New("plain")
	if mapErrno(plain) != plain {
		t.Error("mapErrno should pass through non-errno errors")
	}
}

// =============================================================================
// Adapter Tests
// =============================================================================

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "i2c-99")); err == nil {
		t.Error("Open() on missing node should fail")
	}
}

func TestAdapter_ClosedAndRange(t *testing.T) {
	// An adapter that is already closed never reaches the kernel.
	a := &Adapter{fd: -1, selected: -1, wide: make(map[bus.Addr]bool), closed: true}
	ctx := context.Background()

	if _, err := a.ReadByteData(ctx, 0x50, 0); !errors.Is(err, bus.ErrClosed) {
		t.Errorf("ReadByteData() on closed adapter = %v, want %v", err, bus.ErrClosed)
	}
	if err := a.WriteByteData(ctx, 0x50, 0, 1); !errors.Is(err, bus.ErrClosed) {
		t.Errorf("WriteByteData() on closed adapter = %v, want %v", err, bus.ErrClosed)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() twice = %v", err)
	}

	a.closed = false
	if _, err := a.ReadByteData(ctx, 0x50, 0x100); !errors.Is(err, bus.ErrOffsetRange) {
		t.Errorf("ReadByteData(0x100) narrow = %v, want %v", err, bus.ErrOffsetRange)
	}
	if err := a.WriteByteData(ctx, 0x50, 0x100, 1); !errors.Is(err, bus.ErrOffsetRange) {
		t.Errorf("WriteByteData(0x100) narrow = %v, want %v", err, bus.ErrOffsetRange)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := a.ReadByteData(cancelled, 0x50, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadByteData() with cancelled context = %v", err)
	}
}
