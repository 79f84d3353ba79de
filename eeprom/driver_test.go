package eeprom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/bus/sim"
	"github.com/ardnew/softeeprom/pkg"
)

// failingPublisher refuses every node.
type failingPublisher struct {
	err         error
	unpublished []string
}

func (p *failingPublisher) Publish(Node) error { return p.err }

func (p *failingPublisher) Unpublish(name string) error {
	p.unpublished = append(p.unpublished, name)
	return nil
}

// newTestDriver returns a driver whose settling delay is recorded instead
// of slept.
func newTestDriver(opts ...Option) (*Driver, *[]time.Duration) {
	d := NewDriver(opts...)
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

func TestNewDriver_Defaults(t *testing.T) {
	d := NewDriver()
	cfg := d.Config()
	assert.Equal(t, DefaultMaxDevices, cfg.MaxDevices)
	assert.Equal(t, 8*time.Millisecond, cfg.WriteDelay)
	assert.IsType(t, &NodeTable{}, d.Nodes())
	assert.Equal(t, 32, d.Registry().Max())
}

func TestNewDriver_Options(t *testing.T) {
	nt := NewNodeTable()
	d := NewDriver(
		WithMaxDevices(4),
		WithWriteDelay(time.Millisecond),
		WithNodePublisher(nt),
		WithMaxDevices(-1),
		WithWriteDelay(-time.Second),
		WithNodePublisher(nil),
	)
	cfg := d.Config()
	assert.Equal(t, 4, cfg.MaxDevices)
	assert.Equal(t, time.Millisecond, cfg.WriteDelay)
	assert.Same(t, nt, d.Nodes())
}

func TestDriver_AttachValidation(t *testing.T) {
	b := sim.New()
	smbusOnly := sim.New(sim.WithFunctionality(bus.FuncSMBusByteData))

	tests := []struct {
		name      string
		transport bus.Transport
		cfg       AttachConfig
		wantErr   error
	}{
		{"missing size", b, AttachConfig{Address: 0x50}, pkg.ErrMissingConfiguration},
		{"missing size is invalid", b, AttachConfig{Address: 0x50}, pkg.ErrInvalidConfiguration},
		{"too large", b, AttachConfig{Address: 0x50, Capacity: MaxCapacity + 1}, pkg.ErrInvalidConfiguration},
		{"bad address", b, AttachConfig{Address: 0x80, Capacity: 256}, pkg.ErrInvalidConfiguration},
		{"nil transport", nil, AttachConfig{Address: 0x50, Capacity: 256}, pkg.ErrInvalidConfiguration},
		{"no plain i2c", smbusOnly, AttachConfig{Address: 0x50, Capacity: 256}, pkg.ErrUnsupportedBus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver()
			_, err := d.Attach(tt.transport, tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, d.Registry().Len())
		})
	}
}

func TestDriver_AttachPublishesNode(t *testing.T) {
	nt := NewNodeTable()
	d := NewDriver(WithNodePublisher(nt))
	b := sim.New()

	m0, err := d.Attach(b, AttachConfig{Address: 0x50, Capacity: 256})
	require.NoError(t, err)
	m1, err := d.Attach(b, AttachConfig{Address: 0x51, Capacity: 8192})
	require.NoError(t, err)
	assert.Equal(t, Minor(0), m0)
	assert.Equal(t, Minor(1), m1)

	node, ok := nt.Resolve("eeprom1")
	require.True(t, ok)
	assert.Equal(t, bus.Addr(0x51), node.Address)
	assert.Equal(t, uint32(8192), node.Capacity)

	inst, err := d.Lookup(m1)
	require.NoError(t, err)
	assert.Equal(t, "eeprom1", inst.Node())
	assert.Equal(t, "eeprom1@0x51(8192B)", inst.String())
}

func TestDriver_AttachRollsBackOnPublishFailure(t *testing.T) {
	boom := errors.New("device_create failed")
	d := NewDriver(WithNodePublisher(&failingPublisher{err: boom}))

	_, err := d.Attach(sim.New(), AttachConfig{Address: 0x50, Capacity: 256})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, d.Registry().Len())
	assert.Empty(t, d.Instances())
}

func TestDriver_CapacityExceeded(t *testing.T) {
	d := NewDriver(WithMaxDevices(2))
	b := sim.New()
	for i := 0; i < 2; i++ {
		_, err := d.Attach(b, AttachConfig{Address: bus.Addr(0x50 + i), Capacity: 256})
		require.NoError(t, err)
	}

	_, err := d.Attach(b, AttachConfig{Address: 0x52, Capacity: 256})
	assert.ErrorIs(t, err, pkg.ErrCapacityExceeded)
	assert.Equal(t, 2, d.Registry().Len())

	nt := d.Nodes().(*NodeTable)
	assert.Len(t, nt.Nodes(), 2)
}

func TestDriver_Detach(t *testing.T) {
	nt := NewNodeTable()
	d := NewDriver(WithNodePublisher(nt))
	minor, err := d.Attach(sim.New(), AttachConfig{Address: 0x50, Capacity: 256})
	require.NoError(t, err)

	require.NoError(t, d.Detach(minor))
	_, ok := nt.Resolve(NodeName(minor))
	assert.False(t, ok)
	assert.Equal(t, 0, d.Registry().Len())

	assert.ErrorIs(t, d.Detach(minor), pkg.ErrNotFound)
}

func TestDriver_Callbacks(t *testing.T) {
	d := NewDriver()
	var attached, detached []Minor
	d.SetOnAttach(func(inst *Instance) { attached = append(attached, inst.Minor()) })
	d.SetOnDetach(func(inst *Instance) { detached = append(detached, inst.Minor()) })

	b := sim.New()
	m0, err := d.Attach(b, AttachConfig{Address: 0x50, Capacity: 256})
	require.NoError(t, err)
	_, err = d.Attach(b, AttachConfig{Address: 0x51, Capacity: 256})
	require.NoError(t, err)
	require.NoError(t, d.Detach(m0))

	assert.Equal(t, []Minor{0, 1}, attached)
	assert.Equal(t, []Minor{0}, detached)

	require.NoError(t, d.Close())
	assert.Equal(t, []Minor{0, 1}, detached)
}

func TestDriver_CallbacksMayReenter(t *testing.T) {
	d := NewDriver()
	b := sim.New()

	m0, err := d.Attach(b, AttachConfig{Address: 0x50, Capacity: 64})
	require.NoError(t, err)

	// An attach callback that detaches the previous instance.
	d.SetOnAttach(func(inst *Instance) {
		if inst.Minor() > 0 {
			assert.NoError(t, d.Detach(inst.Minor()-1))
		}
	})
	done := make(chan error, 1)
	go func() {
		_, err := d.Attach(b, AttachConfig{Address: 0x51, Capacity: 64})
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Attach() did not return with a re-entrant attach callback")
	}
	_, err = d.Lookup(m0)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// A detach callback that attaches a replacement.
	d.SetOnAttach(nil)
	var replacement Minor
	d.SetOnDetach(func(*Instance) {
		m, err := d.Attach(b, AttachConfig{Address: 0x52, Capacity: 64})
		assert.NoError(t, err)
		replacement = m
	})
	go func() {
		done <- d.Detach(1)
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Detach() did not return with a re-entrant detach callback")
	}
	inst, err := d.Lookup(replacement)
	require.NoError(t, err)
	assert.Equal(t, bus.Addr(0x52), inst.Address())
}

func TestDriver_AttachConfiguresWideAddressing(t *testing.T) {
	d := NewDriver()
	m := newMockWideTransport()
	m.On("SetWideAddressing", bus.Addr(0x50), false).Once()
	m.On("SetWideAddressing", bus.Addr(0x57), true).Once()

	_, err := d.Attach(m, AttachConfig{Address: 0x50, Capacity: 256})
	require.NoError(t, err)
	_, err = d.Attach(m, AttachConfig{Address: 0x57, Capacity: 32768})
	require.NoError(t, err)

	// Rejected configurations never reach the transport.
	_, err = d.Attach(m, AttachConfig{Address: 0x53})
	assert.ErrorIs(t, err, pkg.ErrMissingConfiguration)

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "SetWideAddressing", 2)
}

func TestDriver_Close(t *testing.T) {
	d := NewDriver()
	b := sim.New()
	for i := 0; i < 3; i++ {
		_, err := d.Attach(b, AttachConfig{Address: bus.Addr(0x50 + i), Capacity: 128})
		require.NoError(t, err)
	}

	require.NoError(t, d.Close())
	assert.Equal(t, 0, d.Registry().Len())
	assert.Empty(t, d.Nodes().(*NodeTable).Nodes())

	_, err := d.Attach(b, AttachConfig{Address: 0x50, Capacity: 128})
	assert.ErrorIs(t, err, pkg.ErrClosed)

	// Closing twice is harmless.
	assert.NoError(t, d.Close())
}

func TestDriver_Open(t *testing.T) {
	d := NewDriver()
	minor, err := d.Attach(sim.New(), AttachConfig{Address: 0x50, Capacity: 64})
	require.NoError(t, err)

	s, err := d.OpenNode("eeprom0")
	require.NoError(t, err)
	assert.Equal(t, minor, s.Instance().Minor())
	assert.NotEmpty(t, s.ID())
	assert.NoError(t, s.Close())

	_, err = d.Open(7)
	assert.ErrorIs(t, err, pkg.ErrNoSuchInstance)
	_, err = d.OpenNode("sda")
	assert.ErrorIs(t, err, pkg.ErrNoSuchInstance)

	require.NoError(t, d.Detach(minor))
	_, err = d.Open(minor)
	assert.ErrorIs(t, err, pkg.ErrNoSuchInstance)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
