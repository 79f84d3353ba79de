package linux

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// AdapterInfo describes an i2c-dev adapter found in sysfs.
type AdapterInfo struct {
	Bus  int    // Adapter number N of /dev/i2c-N
	Name string // Adapter name reported by the kernel
	Path string // Device node path
}

// ScanAdapters lists the i2c-dev adapters under the given sysfs class
// directory, normally SysfsI2CDevPath, ordered by bus number.
func ScanAdapters(root string) ([]AdapterInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var adapters []AdapterInfo
	for _, entry := range entries {
		num, ok := parseAdapterName(entry.Name())
		if !ok {
			continue
		}
		name, err := readSysfsString(filepath.Join(root, entry.Name(), "name"))
		if err != nil {
			name = ""
		}
		adapters = append(adapters, AdapterInfo{
			Bus:  num,
			Name: name,
			Path: DevicePath(num),
		})
	}

	slices.SortFunc(adapters, func(a, b AdapterInfo) int {
		return cmp.Compare(a.Bus, b.Bus)
	})
	return adapters, nil
}

// parseAdapterName extracts N from an "i2c-N" directory name.
func parseAdapterName(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, "i2c-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
