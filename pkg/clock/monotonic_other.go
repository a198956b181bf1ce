//go:build !linux && !darwin && !freebsd

package clock

func monotonicNs() uint64 {
	return sinceEpochNs()
}
