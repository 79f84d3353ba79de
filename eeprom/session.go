package eeprom

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/ardnew/softeeprom/pkg"
)

// Session is one open handle on an instance with its own offset.
//
// Calls on one Session are serialised. Nothing serialises two sessions
// writing the same instance: their bytes may interleave on the device.
type Session struct {
	id     uuid.UUID
	driver *Driver
	inst   *Instance
	offset int64
	closed bool
	mutex  sync.Mutex
}

// Open binds a new session to the instance with the given minor id.
func (d *Driver) Open(minor Minor) (*Session, error) {
	inst, err := d.registry.Lookup(minor)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", NodeName(minor), pkg.ErrNoSuchInstance)
	}

	s := &Session{
		id:     uuid.New(),
		driver: d,
		inst:   inst,
	}
	pkg.LogInfo(pkg.ComponentSession, "client opened",
		"addr", inst.addr,
		"node", inst.Node(),
		"session", s.id)
	return s, nil
}

// OpenNode opens a session by device node name, e.g. "eeprom0".
func (d *Driver) OpenNode(name string) (*Session, error) {
	minor, err := ParseNodeName(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, pkg.ErrNoSuchInstance)
	}
	return d.Open(minor)
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id.String()
}

// Instance returns the instance the session was opened on.
func (s *Session) Instance() *Instance {
	return s.inst
}

// Offset returns the current offset.
func (s *Session) Offset() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.offset
}

// Close releases the session. It always succeeds.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	pkg.LogInfo(pkg.ComponentSession, "client released",
		"addr", s.inst.addr,
		"node", s.inst.Node(),
		"session", s.id)
	return nil
}

// Seek sets the offset for the next Read or Write. whence is one of
// io.SeekStart, io.SeekCurrent or io.SeekEnd. The result must lie within
// [0, capacity]; capacity itself is a valid target even though reads and
// writes there transfer nothing.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0, fmt.Errorf("seek: %w", pkg.ErrClosed)
	}

	capacity := int64(s.inst.capacity)
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.offset + offset
	case io.SeekEnd:
		pos = capacity + offset
	default:
		return s.offset, fmt.Errorf("%w: whence %d", pkg.ErrInvalidSeek, whence)
	}

	if pos < 0 || pos > capacity {
		return s.offset, fmt.Errorf("%w: offset %d outside [0, %d]", pkg.ErrInvalidSeek, pos, capacity)
	}
	s.offset = pos
	return pos, nil
}

// Read reads up to length bytes at the current offset, one bus transaction
// per byte. It returns no bytes and no error once the offset reaches the
// EOF guard byte. On a bus failure nothing is returned, the offset is left
// unchanged and the error is a *pkg.TransportError.
func (s *Session) Read(ctx context.Context, length int) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.check(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	w := Span(s.inst.capacity, s.offset, length)
	if w.Len == 0 {
		return nil, nil
	}

	ctx = pkg.ContextWithSession(ctx, s.ID())
	buf := make([]byte, w.Len)
	for i := range buf {
		off := w.Start + int64(i)
		v, err := s.inst.transport.ReadByteData(ctx, s.inst.addr, uint16(off))
		if err != nil {
			pkg.LogDebug(pkg.ComponentSession, "r failure",
				"addr", s.inst.addr,
				"off", off,
				"error", err)
			return nil, &pkg.TransportError{
				Direction: pkg.DirectionRead,
				Address:   uint16(s.inst.addr),
				Offset:    off,
				Err:       err,
			}
		}
		buf[i] = v
	}

	s.offset = w.End()
	return buf, nil
}

// Write writes p at the current offset, one bus transaction per byte,
// pausing for the configured write delay after every byte. It returns the
// number of bytes written, which is short when p extends past the EOF
// guard byte. On a bus failure the offset is left unchanged; bytes already
// written stay written on the device.
func (s *Session) Write(ctx context.Context, p []byte) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.check(); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}

	w := Span(s.inst.capacity, s.offset, len(p))
	if w.Len == 0 {
		return 0, nil
	}

	ctx = pkg.ContextWithSession(ctx, s.ID())
	delay := s.driver.config.WriteDelay
	for i := 0; i < w.Len; i++ {
		off := w.Start + int64(i)
		if err := s.inst.transport.WriteByteData(ctx, s.inst.addr, uint16(off), p[i]); err != nil {
			pkg.LogDebug(pkg.ComponentSession, "w failure",
				"addr", s.inst.addr,
				"off", off,
				"error", err)
			return 0, &pkg.TransportError{
				Direction: pkg.DirectionWrite,
				Address:   uint16(s.inst.addr),
				Offset:    off,
				Err:       err,
			}
		}
		s.driver.sleep(delay)
	}

	s.offset = w.End()
	return w.Len, nil
}

// check verifies the session is open and its instance is still attached.
// Caller holds mutex.
func (s *Session) check() error {
	if s.closed {
		return pkg.ErrClosed
	}
	inst, err := s.driver.registry.Lookup(s.inst.minor)
	if err != nil {
		return err
	}
	if inst != s.inst {
		return fmt.Errorf("minor %d: %w", s.inst.minor, pkg.ErrNotFound)
	}
	return nil
}

// ReadWriter returns an io.ReadWriteSeeker view of the session that passes
// ctx to every transaction. Unlike Session.Read, its Read reports io.EOF
// once the EOF guard byte is reached, so it can feed io.Copy.
func (s *Session) ReadWriter(ctx context.Context) io.ReadWriteSeeker {
	return &sessionRW{ctx: ctx, s: s}
}

type sessionRW struct {
	ctx context.Context
	s   *Session
}

func (rw *sessionRW) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := rw.s.Read(rw.ctx, len(p))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (rw *sessionRW) Write(p []byte) (int, error) {
	n, err := rw.s.Write(rw.ctx, p)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (rw *sessionRW) Seek(offset int64, whence int) (int64, error) {
	return rw.s.Seek(offset, whence)
}
