package eeprom

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// AttachConfig describes a detected EEPROM.
type AttachConfig struct {
	// Address is the 7-bit bus address of the device.
	Address bus.Addr

	// Capacity is the declared size in bytes (the "size" property).
	// Zero means the property is absent.
	Capacity uint32
}

// Driver manages attached EEPROM instances and the sessions opened on them.
type Driver struct {
	config   Config
	registry *Registry
	nodes    NodePublisher
	sleep    func(time.Duration)

	// Serialises attach, detach and close.
	lifecycle sync.Mutex
	closed    bool

	// Callbacks
	onAttach func(*Instance)
	onDetach func(*Instance)
	cbMutex  sync.RWMutex
}

// NewDriver creates a driver with the given options.
func NewDriver(opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Nodes == nil {
		cfg.Nodes = NewNodeTable()
	}

	return &Driver{
		config:   cfg,
		registry: NewRegistry(cfg.MaxDevices),
		nodes:    cfg.Nodes,
		sleep:    time.Sleep,
	}
}

// Config returns the effective driver configuration.
func (d *Driver) Config() Config {
	return d.config
}

// Registry returns the instance registry.
func (d *Driver) Registry() *Registry {
	return d.registry
}

// Nodes returns the node publisher.
func (d *Driver) Nodes() NodePublisher {
	return d.nodes
}

// SetOnAttach sets the callback invoked after an instance is attached.
func (d *Driver) SetOnAttach(cb func(*Instance)) {
	d.cbMutex.Lock()
	defer d.cbMutex.Unlock()
	d.onAttach = cb
}

// SetOnDetach sets the callback invoked after an instance is detached.
func (d *Driver) SetOnDetach(cb func(*Instance)) {
	d.cbMutex.Lock()
	defer d.cbMutex.Unlock()
	d.onDetach = cb
}

// Attach validates cfg, registers a new instance on t and publishes its
// device node. On failure nothing stays registered. Transports that
// implement bus.WideAddresser are told whether the device needs two-byte
// word addresses. The attach callback runs after the driver is unlocked,
// so it may call Attach or Detach.
func (d *Driver) Attach(t bus.Transport, cfg AttachConfig) (Minor, error) {
	if t == nil {
		return 0, fmt.Errorf("%w: nil transport", pkg.ErrInvalidConfiguration)
	}
	if !cfg.Address.Valid() {
		return 0, fmt.Errorf("%w: address %s is not 7-bit", pkg.ErrInvalidConfiguration, cfg.Address)
	}
	if cfg.Capacity == 0 {
		pkg.LogError(pkg.ComponentDriver, "driver needs 'size' property to be specified",
			"addr", cfg.Address)
		return 0, pkg.ErrMissingConfiguration
	}
	if cfg.Capacity > MaxCapacity {
		return 0, fmt.Errorf("%w: size %d exceeds %d", pkg.ErrInvalidConfiguration, cfg.Capacity, MaxCapacity)
	}
	if !t.Functionality().Has(bus.FuncI2C) {
		pkg.LogError(pkg.ComponentDriver, "controller does not support I2C",
			"addr", cfg.Address)
		return 0, pkg.ErrUnsupportedBus
	}

	if w, ok := t.(bus.WideAddresser); ok {
		w.SetWideAddressing(cfg.Address, bus.WideAddressing(cfg.Capacity))
	}

	d.lifecycle.Lock()
	inst, err := d.attachLocked(t, cfg)
	d.lifecycle.Unlock()
	if err != nil {
		return 0, err
	}

	d.cbMutex.RLock()
	cb := d.onAttach
	d.cbMutex.RUnlock()
	if cb != nil {
		cb(inst)
	}
	return inst.minor, nil
}

// attachLocked registers and publishes a validated instance with the
// lifecycle mutex held.
func (d *Driver) attachLocked(t bus.Transport, cfg AttachConfig) (*Instance, error) {
	if d.closed {
		return nil, fmt.Errorf("driver: %w", pkg.ErrClosed)
	}

	inst := &Instance{
		transport: t,
		addr:      cfg.Address,
		capacity:  cfg.Capacity,
	}
	minor, err := d.registry.Attach(inst)
	if err != nil {
		return nil, err
	}

	node := Node{
		Name:     NodeName(minor),
		Minor:    minor,
		Address:  inst.addr,
		Capacity: inst.capacity,
	}
	if err := d.nodes.Publish(node); err != nil {
		if _, rerr := d.registry.Detach(minor); rerr != nil {
			pkg.LogWarn(pkg.ComponentDriver, "rollback failed", "minor", minor, "error", rerr)
		}
		pkg.LogError(pkg.ComponentDriver, "failed to create device", "addr", cfg.Address, "error", err)
		return nil, fmt.Errorf("publish %s: %w", node.Name, err)
	}

	pkg.LogInfo(pkg.ComponentDriver, "client probed",
		"addr", inst.addr,
		"node", node.Name,
		"size", inst.capacity)
	return inst, nil
}

// Detach unpublishes the device node of minor and releases its registry
// entry. Sessions still open on the instance are not closed; their reads
// and writes fail with pkg.ErrNotFound from then on.
func (d *Driver) Detach(minor Minor) error {
	d.lifecycle.Lock()
	inst, err := d.detachLocked(minor)
	d.lifecycle.Unlock()
	if err != nil {
		return err
	}

	d.cbMutex.RLock()
	cb := d.onDetach
	d.cbMutex.RUnlock()
	if cb != nil {
		cb(inst)
	}
	return nil
}

// detachLocked performs Detach with the lifecycle mutex held.
func (d *Driver) detachLocked(minor Minor) (*Instance, error) {
	inst, err := d.registry.Lookup(minor)
	if err != nil {
		return nil, err
	}
	if err := d.nodes.Unpublish(NodeName(minor)); err != nil {
		pkg.LogWarn(pkg.ComponentDriver, "unpublish failed",
			"node", NodeName(minor),
			"error", err)
	}
	if _, err := d.registry.Detach(minor); err != nil {
		return nil, err
	}

	pkg.LogInfo(pkg.ComponentDriver, "client removed",
		"addr", inst.addr,
		"node", inst.Node())
	return inst, nil
}

// Lookup returns the attached instance with the given minor id.
func (d *Driver) Lookup(minor Minor) (*Instance, error) {
	return d.registry.Lookup(minor)
}

// Instances returns the attached instances ordered by minor id.
func (d *Driver) Instances() []*Instance {
	return d.registry.Instances()
}

// Close detaches every instance. Further attaches fail with pkg.ErrClosed.
func (d *Driver) Close() error {
	d.lifecycle.Lock()
	if d.closed {
		d.lifecycle.Unlock()
		return nil
	}
	d.closed = true

	var detached []*Instance
	for _, inst := range d.registry.Instances() {
		if _, err := d.detachLocked(inst.minor); err == nil {
			detached = append(detached, inst)
		}
	}
	d.lifecycle.Unlock()

	d.cbMutex.RLock()
	cb := d.onDetach
	d.cbMutex.RUnlock()
	if cb != nil {
		for _, inst := range detached {
			cb(inst)
		}
	}

	pkg.LogInfo(pkg.ComponentDriver, "driver unloaded", "detached", len(detached))
	return nil
}
