package timerset

import (
	"fmt"

	"github.com/wesleyorama2/timerset/pkg/tsc"
)

// DefaultRingSize is the sample ring capacity used by WithSampleRing when
// given a non-positive size.
const DefaultRingSize = 1 << 15

// Stopwatch accumulates the total elapsed time and sample count of one
// event. Total is in the owning registry's unit: cycles in ModeTicks,
// nanoseconds in ModeNanoseconds.
type Stopwatch struct {
	Total uint64
	Count uint64

	ring *sampleRing
}

func newStopwatch(ringSize int) *Stopwatch {
	sw := &Stopwatch{}
	if ringSize > 0 {
		sw.ring = &sampleRing{size: ringSize}
	}
	return sw
}

// record folds one sample in. Total wraps on overflow.
func (s *Stopwatch) record(d uint64) {
	s.Total += d
	s.Count++
	if s.ring != nil {
		s.ring.push(d)
	}
}

// Average returns Total / Count in raw units, or 0 if nothing was recorded.
func (s Stopwatch) Average() uint64 {
	if s.Count == 0 {
		return 0
	}
	return s.Total / s.Count
}

// Samples returns the retained raw samples, oldest first. It is nil unless
// the registry was built with WithSampleRing.
func (s Stopwatch) Samples() []uint64 {
	if s.ring == nil {
		return nil
	}
	return s.ring.values()
}

// Render formats the stopwatch as a single report line. The average is
// taken in raw units before conversion so rounding happens once.
func (s Stopwatch) Render(name string, cps uint64) string {
	if s.Count == 0 {
		return fmt.Sprintf("%s: never ran", name)
	}
	return fmt.Sprintf("%s: %d ms total, %d samples, %d us avg",
		name,
		tsc.ToMs(s.Total, cps),
		s.Count,
		tsc.ToUs(s.Average(), cps))
}

func (s *Stopwatch) clone() *Stopwatch {
	c := &Stopwatch{Total: s.Total, Count: s.Count}
	if s.ring != nil {
		c.ring = s.ring.clone()
	}
	return c
}

// sampleRing keeps the last size samples. buf grows until it reaches size,
// after which next marks the oldest entry.
type sampleRing struct {
	buf  []uint64
	next int
	size int
}

func (r *sampleRing) push(v uint64) {
	if len(r.buf) < r.size {
		r.buf = append(r.buf, v)
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % r.size
}

func (r *sampleRing) values() []uint64 {
	out := make([]uint64, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

func (r *sampleRing) clone() *sampleRing {
	c := &sampleRing{next: r.next, size: r.size}
	c.buf = append(make([]uint64, 0, len(r.buf)), r.buf...)
	return c
}
