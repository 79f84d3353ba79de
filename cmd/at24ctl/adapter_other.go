//go:build !linux

package main

import (
	"fmt"
	"io"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// adapter is never returned on this platform.
type adapter interface {
	bus.Transport
	io.Closer
}

// openAdapter reports that i2c-dev adapters need Linux.
func openAdapter(path string) (adapter, error) {
	return nil, fmt.Errorf("%w: %s: i2c-dev requires linux", pkg.ErrUnsupportedBus, path)
}
