package linux

import "testing"

func TestDevicePath(t *testing.T) {
	tests := []struct {
		bus  int
		want string
	}{
		{0, "/dev/i2c-0"},
		{1, "/dev/i2c-1"},
		{22, "/dev/i2c-22"},
	}

	for _, tt := range tests {
		if got := DevicePath(tt.bus); got != tt.want {
			t.Errorf("DevicePath(%d) = %q, want %q", tt.bus, got, tt.want)
		}
	}
}

func TestIoctlRequests(t *testing.T) {
	// Values from linux/i2c-dev.h.
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"I2C_SLAVE", ioctlI2CSlave, 0x0703},
		{"I2C_FUNCS", ioctlI2CFuncs, 0x0705},
		{"I2C_RDWR", ioctlI2CRdwr, 0x0707},
		{"I2C_SMBUS", ioctlI2CSmbus, 0x0720},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = 0x%04x, want 0x%04x", tt.name, tt.got, tt.want)
		}
	}
}
