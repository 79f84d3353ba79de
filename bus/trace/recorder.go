package trace

import (
	"os"
	"slices"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/ardnew/softeeprom/pkg"
)

// Recorder receives trace events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(event Event)
}

// NopRecorder discards all events.
type NopRecorder struct{}

// Record discards the event.
func (NopRecorder) Record(Event) {}

// =============================================================================
// Memory Recorder
// =============================================================================

// MemoryRecorder keeps events in memory.
type MemoryRecorder struct {
	events []Event
	mutex  sync.Mutex
}

// Record appends the event.
func (m *MemoryRecorder) Record(event Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events in arrival order.
func (m *MemoryRecorder) Events() []Event {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.events)
}

// Reset drops all recorded events.
func (m *MemoryRecorder) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = nil
}

// =============================================================================
// File Recorder
// =============================================================================

// FileRecorder appends CBOR encoded events to a file.
type FileRecorder struct {
	file    *os.File
	encoder *cbor.Encoder
	mutex   sync.Mutex
	closed  bool
}

// NewFileRecorder opens path for appending, creating it with mode 0644 if
// needed.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record writes the event. Events recorded after Close are dropped.
func (r *FileRecorder) Record(event Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return
	}
	if err := r.encoder.Encode(event); err != nil {
		pkg.LogWarn(pkg.ComponentTrace, "trace event dropped",
			"path", r.file.Name(),
			"error", err)
	}
}

// Close closes the trace file. It is safe to call Close multiple times.
func (r *FileRecorder) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

var (
	_ Recorder = NopRecorder{}
	_ Recorder = (*MemoryRecorder)(nil)
	_ Recorder = (*FileRecorder)(nil)
)
