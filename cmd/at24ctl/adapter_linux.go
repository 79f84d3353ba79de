//go:build linux

package main

import "github.com/ardnew/softeeprom/bus/linux"

// openAdapter opens the i2c-dev adapter at path.
func openAdapter(path string) (*linux.Adapter, error) {
	return linux.Open(path)
}
