package eeprom

// Window is the byte range one read or write call transacts.
type Window struct {
	Start int64 // First absolute offset
	Len   int   // Number of bytes; zero at or past the EOF guard byte
}

// End returns the offset one past the last byte of the window.
func (w Window) End() int64 {
	return w.Start + int64(w.Len)
}

// Offsets returns the absolute offsets of the window in ascending order.
func (w Window) Offsets() []int64 {
	if w.Len == 0 {
		return nil
	}
	out := make([]int64, w.Len)
	for i := range out {
		out[i] = w.Start + int64(i)
	}
	return out
}

// Span clamps a transfer of length bytes starting at offset to a device of
// the given capacity.
//
// The last byte of capacity is never reachable: a transfer starting at or
// beyond capacity-1 has zero length, and every other transfer is cut short
// so that it ends before capacity-1.
func Span(capacity uint32, offset int64, length int) Window {
	guard := int64(capacity) - 1
	if offset < 0 || length <= 0 || offset >= guard {
		return Window{Start: offset}
	}
	n := int64(length)
	if avail := guard - offset; n > avail {
		n = avail
	}
	return Window{Start: offset, Len: int(n)}
}
