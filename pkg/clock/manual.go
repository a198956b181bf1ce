package clock

import (
	"math/bits"
	"sync"
	"time"
)

// Manual is a Source whose counters only move through Advance or Sleep.
// The cycle counter advances at a fixed rate of hz cycles per second.
type Manual struct {
	mu     sync.Mutex
	ns     uint64
	cycles uint64
	hz     uint64
}

// NewManual creates a manual source whose cycle counter runs at hz.
func NewManual(hz uint64) *Manual {
	return &Manual{hz: hz}
}

// Advance moves both counters forward by d.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ns += uint64(d)
	hi, lo := bits.Mul64(uint64(d), m.hz)
	q, _ := bits.Div64(hi, lo, uint64(time.Second))
	m.cycles += q
}

// SetRate changes the cycle counter frequency for subsequent advances.
func (m *Manual) SetRate(hz uint64) {
	m.mu.Lock()
	m.hz = hz
	m.mu.Unlock()
}

func (m *Manual) NowNs() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ns
}

func (m *Manual) ReadCycles() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles
}

// Sleep advances the counters instead of blocking.
func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}
