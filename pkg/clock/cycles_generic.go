//go:build !amd64

package clock

const counterName = "monotonic"

// readCycles falls back to the monotonic clock on platforms without a
// cycle counter wired up. The "cycles" are then nanoseconds.
func readCycles() uint64 {
	return monotonicNs()
}
