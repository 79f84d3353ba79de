// Package trace records bus transactions as CBOR events.
//
// A [Transport] wraps any bus.Transport and hands one [Event] per byte
// transaction to a [Recorder]. Events carry the session id found on the
// request context (see pkg.ContextWithSession), so a trace file can be
// split back into the sessions that produced it.
//
// Events are encoded with integer map keys. A [FileRecorder] appends them
// to a file and a [Reader] streams them back, optionally filtered:
//
//	rec, err := trace.NewFileRecorder("eeprom.trace")
//	if err != nil {
//		return err
//	}
//	defer rec.Close()
//
//	t := trace.New(adapter, rec)
//	drv.Attach(t, eeprom.AttachConfig{Address: 0x50, Capacity: 256})
package trace
