// Package sim provides an in-memory I2C bus populated with simulated AT24
// EEPROM chips.
//
// The simulated bus implements [bus.Transport] and is used by the driver
// tests and by at24ctl when no hardware is available. Chips behave like the
// real parts in the ways the driver depends on:
//
//   - Word addresses roll over at the chip size
//   - After a byte write the chip runs an internal write cycle during which
//     it does not acknowledge its address (see [Chip.SetWriteCycle])
//   - Unpopulated addresses report [bus.ErrNoDevice]
//
// Faults can be injected per transaction with [Bus.SetFault] to exercise
// error paths:
//
//	b := sim.New()
//	b.Attach(0x50, sim.NewChip(256))
//	b.SetFault(sim.FailNth(pkg.DirectionWrite, 3, bus.ErrNAK))
package sim
