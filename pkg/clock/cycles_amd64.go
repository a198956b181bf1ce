//go:build amd64

package clock

const counterName = "rdtsc"

// rdtsc reads the time stamp counter.
// Implemented in cycles_amd64.s
//
//go:noescape
func rdtsc() uint64

func readCycles() uint64 {
	return rdtsc()
}
