// Package tsc calibrates a hardware cycle counter against the wall clock and
// converts tick deltas into nanoseconds, microseconds and milliseconds.
//
// Calibration reads both clocks, sleeps for CalibrationInterval, reads them
// again and divides. The raw estimate is then rounded to two significant
// digits so repeated calibrations on the same machine report the same
// frequency class (2_500_000_000 rather than 2_487_193_044).
//
// # Basic Usage
//
//	cps, err := tsc.Calibrate(clock.System())
//	if err != nil {
//	    return err
//	}
//	start := src.ReadCycles()
//	doWork()
//	fmt.Printf("took %dus\n", tsc.ToUs(src.ReadCycles()-start, cps))
//
// # Precision
//
// Conversions multiply before dividing using a 128-bit intermediate, so a
// tick count only saturates once the converted result itself exceeds 64
// bits. A zero calibration constant is a programming error and panics.
package tsc
