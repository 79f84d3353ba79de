package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// Errors.
var (
	ErrAddressInUse = errors.New("address already populated")
	ErrInvalidAddr  = errors.New("invalid 7-bit address")
)

// Op describes one transaction presented to a FaultFunc.
type Op struct {
	Direction pkg.Direction
	Addr      bus.Addr
	Offset    uint16
	Value     byte // Written value; zero for reads
}

// FaultFunc decides whether a transaction fails. A non-nil error aborts the
// transaction before it reaches the chip.
type FaultFunc func(op Op) error

// Stats counts completed transactions.
type Stats struct {
	Reads  uint64
	Writes uint64
	Faults uint64
}

// Bus is a simulated I2C bus. It implements bus.Transport.
type Bus struct {
	chips map[bus.Addr]*Chip
	funcs bus.Functionality
	fault FaultFunc
	stats Stats
	mutex sync.Mutex
}

// Option configures a Bus.
type Option func(*Bus)

// WithFunctionality overrides the reported adapter capabilities.
// The default is bus.FuncEEPROM.
func WithFunctionality(f bus.Functionality) Option {
	return func(b *Bus) {
		b.funcs = f
	}
}

// New creates an empty simulated bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		chips: make(map[bus.Addr]*Chip),
		funcs: bus.FuncEEPROM,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach places chip at addr.
func (b *Bus) Attach(addr bus.Addr, chip *Chip) error {
	if !addr.Valid() {
		return ErrInvalidAddr
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := b.chips[addr]; ok {
		return ErrAddressInUse
	}
	b.chips[addr] = chip
	pkg.LogDebug(pkg.ComponentBus, "sim chip attached", "addr", addr, "size", chip.Size())
	return nil
}

// Remove takes the chip at addr off the bus and returns it.
func (b *Bus) Remove(addr bus.Addr) *Chip {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	chip := b.chips[addr]
	delete(b.chips, addr)
	return chip
}

// Chip returns the chip at addr, or nil.
func (b *Bus) Chip(addr bus.Addr) *Chip {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.chips[addr]
}

// SetFault installs f as the fault injector. Nil clears it.
func (b *Bus) SetFault(f FaultFunc) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.fault = f
}

// Stats returns the transaction counters.
func (b *Bus) Stats() Stats {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.stats
}

// Functionality returns the simulated adapter capabilities.
func (b *Bus) Functionality() bus.Functionality {
	return b.funcs
}

// ReadByteData implements bus.Transport.
func (b *Bus) ReadByteData(ctx context.Context, addr bus.Addr, offset uint16) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	chip, err := b.begin(Op{Direction: pkg.DirectionRead, Addr: addr, Offset: offset})
	if err != nil {
		return 0, err
	}
	v, err := chip.read(offset)
	if err != nil {
		return 0, err
	}
	b.mutex.Lock()
	b.stats.Reads++
	b.mutex.Unlock()
	return v, nil
}

// WriteByteData implements bus.Transport.
func (b *Bus) WriteByteData(ctx context.Context, addr bus.Addr, offset uint16, value byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chip, err := b.begin(Op{Direction: pkg.DirectionWrite, Addr: addr, Offset: offset, Value: value})
	if err != nil {
		return err
	}
	if err := chip.write(offset, value); err != nil {
		return err
	}
	b.mutex.Lock()
	b.stats.Writes++
	b.mutex.Unlock()
	return nil
}

// begin runs fault injection and resolves the addressed chip.
func (b *Bus) begin(op Op) (*Chip, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.fault != nil {
		if err := b.fault(op); err != nil {
			b.stats.Faults++
			return nil, err
		}
	}
	chip, ok := b.chips[op.Addr]
	if !ok {
		return nil, bus.ErrNoDevice
	}
	return chip, nil
}

// FailNth returns a FaultFunc failing the nth (1-based) transaction in the
// given direction with err. Later transactions succeed.
func FailNth(dir pkg.Direction, n int, err error) FaultFunc {
	var mutex sync.Mutex
	count := 0
	return func(op Op) error {
		if op.Direction != dir {
			return nil
		}
		mutex.Lock()
		defer mutex.Unlock()
		count++
		if count == n {
			return err
		}
		return nil
	}
}

// FailOffset returns a FaultFunc failing every transaction in the given
// direction at offset with err.
func FailOffset(dir pkg.Direction, offset uint16, err error) FaultFunc {
	return func(op Op) error {
		if op.Direction == dir && op.Offset == offset {
			return err
		}
		return nil
	}
}

var _ bus.Transport = (*Bus)(nil)
