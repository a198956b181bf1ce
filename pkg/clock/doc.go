// Package clock provides the time sources used by the timer registry.
//
// A Source exposes two counters: a monotonic wall clock in nanoseconds and a
// hardware cycle counter of unknown frequency. The system source reads the
// OS monotonic clock and, on amd64, the CPU time stamp counter. Platforms
// without a cycle counter fall back to the monotonic clock, so the cycle
// counter runs at exactly 1 GHz there.
//
// # Basic Usage
//
//	src := clock.System()
//	c0 := src.ReadCycles()
//	doWork()
//	ticks := src.ReadCycles() - c0
//
// Tests use Manual, whose counters only move when told to:
//
//	m := clock.NewManual(3_000_000_000)
//	m.Advance(2 * time.Millisecond) // +2ms, +6,000,000 cycles
package clock
