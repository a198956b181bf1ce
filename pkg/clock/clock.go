package clock

import "time"

// Source is the clock capability consumed by the calibrator and the registry.
type Source interface {
	// NowNs returns a monotonic wall-clock reading in nanoseconds.
	NowNs() uint64

	// ReadCycles returns the hardware cycle counter.
	ReadCycles() uint64

	// Sleep blocks for at least d. Only used during calibration.
	Sleep(d time.Duration)
}

type system struct{}

// System returns the process clock source.
func System() Source {
	return system{}
}

func (system) NowNs() uint64 {
	return monotonicNs()
}

func (system) ReadCycles() uint64 {
	return readCycles()
}

func (system) Sleep(d time.Duration) {
	time.Sleep(d)
}

// CounterName reports which hardware counter ReadCycles uses on this platform.
func CounterName() string {
	return counterName
}

// epoch anchors the time.Now based fallbacks.
var epoch = time.Now()

func sinceEpochNs() uint64 {
	return uint64(time.Since(epoch).Nanoseconds())
}
