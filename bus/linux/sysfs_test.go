package linux

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// Helpers
// =============================================================================

// mkAdapter creates a fake i2c-dev class entry under root.
func mkAdapter(t *testing.T, root, dir, name string) {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if name == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(path, "name"), []byte(name+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// ScanAdapters Tests
// =============================================================================

func TestScanAdapters(t *testing.T) {
	root := t.TempDir()
	mkAdapter(t, root, "i2c-10", "i2c-gpio")
	mkAdapter(t, root, "i2c-1", "bcm2835 (i2c@7e804000)")
	mkAdapter(t, root, "i2c-2", "")
	mkAdapter(t, root, "spidev0.0", "not i2c")

	got, err := ScanAdapters(root)
	if err != nil {
		t.Fatalf("ScanAdapters() error = %v", err)
	}

	want := []AdapterInfo{
		{Bus: 1, Name: "bcm2835 (i2c@7e804000)", Path: "/dev/i2c-1"},
		{Bus: 2, Name: "", Path: "/dev/i2c-2"},
		{Bus: 10, Name: "i2c-gpio", Path: "/dev/i2c-10"},
	}
	if len(got) != len(want) {
		t.Fatalf("ScanAdapters() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanAdapters()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestScanAdapters_MissingRoot(t *testing.T) {
	if _, err := ScanAdapters(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ScanAdapters() on missing directory should fail")
	}
}

func TestParseAdapterName(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"i2c-0", 0, true},
		{"i2c-22", 22, true},
		{"i2c-", 0, false},
		{"i2c-x", 0, false},
		{"i2c--1", 0, false},
		{"spi-1", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseAdapterName(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseAdapterName(%q) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
