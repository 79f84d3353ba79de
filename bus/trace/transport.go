package trace

import (
	"context"
	"time"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// Transport is a bus.Transport that records every transaction it forwards.
type Transport struct {
	next bus.Transport
	rec  Recorder
	now  func() time.Time
}

// New wraps next so that each transaction is handed to rec. A nil rec
// records nothing.
func New(next bus.Transport, rec Recorder) *Transport {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Transport{next: next, rec: rec, now: time.Now}
}

// Unwrap returns the wrapped transport.
func (t *Transport) Unwrap() bus.Transport {
	return t.next
}

// SetWideAddressing forwards to the wrapped transport when it implements
// bus.WideAddresser.
func (t *Transport) SetWideAddressing(addr bus.Addr, wide bool) {
	if w, ok := t.next.(bus.WideAddresser); ok {
		w.SetWideAddressing(addr, wide)
	}
}

// Functionality implements bus.Transport.
func (t *Transport) Functionality() bus.Functionality {
	return t.next.Functionality()
}

// ReadByteData implements bus.Transport.
func (t *Transport) ReadByteData(ctx context.Context, addr bus.Addr, offset uint16) (byte, error) {
	start := t.now()
	value, err := t.next.ReadByteData(ctx, addr, offset)
	t.record(ctx, start, pkg.DirectionRead, addr, offset, value, err)
	return value, err
}

// WriteByteData implements bus.Transport.
func (t *Transport) WriteByteData(ctx context.Context, addr bus.Addr, offset uint16, value byte) error {
	start := t.now()
	err := t.next.WriteByteData(ctx, addr, offset, value)
	t.record(ctx, start, pkg.DirectionWrite, addr, offset, value, err)
	return err
}

func (t *Transport) record(ctx context.Context, start time.Time, dir pkg.Direction,
	addr bus.Addr, offset uint16, value byte, err error) {
	event := Event{
		Timestamp: start,
		Session:   pkg.SessionFromContext(ctx),
		Direction: dir,
		Addr:      addr,
		Offset:    offset,
		Value:     value,
		Duration:  t.now().Sub(start),
	}
	if err != nil {
		event.Value = 0
		event.Error = err.Error()
	}
	t.rec.Record(event)
}

var (
	_ bus.Transport     = (*Transport)(nil)
	_ bus.WideAddresser = (*Transport)(nil)
)
