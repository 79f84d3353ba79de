package trace

import (
	"errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// Filter selects trace events. Zero fields match everything.
type Filter struct {
	Session    string
	Direction  *pkg.Direction
	Addr       *bus.Addr
	FailedOnly bool
}

func (f *Filter) matches(event Event) bool {
	if f.Session != "" && event.Session != f.Session {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Addr != nil && event.Addr != *f.Addr {
		return false
	}
	if f.FailedOnly && !event.Failed() {
		return false
	}
	return true
}

// Reader streams events from a CBOR trace.
type Reader struct {
	closer  io.Closer
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader reads events matching filter from r.
func NewReader(r io.Reader, filter Filter) *Reader {
	return &Reader{
		decoder: NewDecoder(r),
		filter:  filter,
	}
}

// OpenFile opens a trace file written by a FileRecorder.
func OpenFile(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f, filter)
	r.closer = f
	return r, nil
}

// Next returns the next matching event, or io.EOF at the end of the trace.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// All returns every remaining matching event.
func (r *Reader) All() ([]Event, error) {
	var events []Event
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
