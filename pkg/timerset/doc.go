// Package timerset measures the wall-clock cost of named units of work and
// keeps per-name aggregate statistics.
//
// A Registry maps event names to Stopwatches. Each call to Time reads the
// clock, runs the work, reads the clock again and folds the delta into the
// named Stopwatch. Only the sum and count are kept, so memory does not grow
// with the number of samples (an optional bounded ring retains the most
// recent raw samples for inspection).
//
// # Basic Usage
//
//	timers, err := timerset.New()
//	if err != nil {
//	    return err
//	}
//
//	timers.Time("load", func() {
//	    loadConfig()
//	})
//	rows, err := timerset.TimedErr(timers, "query", func() ([]Row, error) {
//	    return db.Query(ctx, q)
//	})
//
//	timers.Print()
//	// load: 3 ms total, 1 samples, 3210 us avg
//	// query: 41 ms total, 1 samples, 41022 us avg
//
// # Clock Modes
//
// ModeTicks (the default) reads the hardware cycle counter, which is the
// cheapest timestamp available, and converts ticks to wall-clock units with
// a calibration constant measured once in New. ModeNanoseconds reads the
// monotonic clock directly; its calibration constant is exactly one billion
// so every conversion is the identity.
//
// # Failures
//
// Samples are only recorded for work that completes. If the work panics the
// panic propagates and nothing is recorded. TimeErr and TimedErr return the
// work's error untouched and discard the sample.
//
// # Default Registry
//
// Passing a *Registry explicitly is the primary pattern. For call sites
// where that is impractical, WithScope attaches a lazily built registry to
// a context and Time, CloneSnapshot and PrintAll use it. Contexts without a
// scope share a process-wide default registry.
//
// # Thread Safety
//
// Registry is safe for concurrent use. A single mutex guards the name to
// Stopwatch map and is held only for the lookup and update, never while the
// timed work runs.
//
// # Limitations
//
// Totals and counts are uint64 and wrap on overflow. In ModeTicks at 3 GHz
// that takes roughly 195 years of accumulated time per event.
package timerset
