package timerset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/timerset/pkg/clock"
	"github.com/wesleyorama2/timerset/pkg/tsc"
)

// ErrInvalidCalibration is returned by New for a zero calibration constant.
var ErrInvalidCalibration = errors.New("timerset: calibration constant must be positive")

const nsPerSecond = uint64(time.Second)

// Registry is a concurrent set of Stopwatches keyed by event name.
type Registry struct {
	mu     sync.Mutex
	timers map[string]*Stopwatch

	// Fixed at construction; changing it would change the meaning of
	// totals already accumulated.
	cps  uint64
	mode Mode

	src      clock.Source
	sink     Sink
	tracer   Tracer
	ringSize int
}

// New creates an empty registry. In ModeTicks the cycle counter is
// calibrated once here unless WithCalibration supplies the constant.
func New(opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.sink == nil {
		o.sink = NopSink
	}

	r := &Registry{
		timers:   make(map[string]*Stopwatch),
		mode:     o.mode,
		src:      o.clock,
		sink:     o.sink,
		ringSize: o.ringSize,
	}
	r.tracer, _ = o.sink.(Tracer)

	switch o.mode {
	case ModeNanoseconds:
		r.cps = nsPerSecond
	case ModeTicks:
		if o.cpsSet {
			if o.cps == 0 {
				return nil, ErrInvalidCalibration
			}
			r.cps = o.cps
			break
		}
		cps, err := tsc.Calibrate(o.clock)
		if err != nil {
			return nil, fmt.Errorf("calibrating cycle counter: %w", err)
		}
		r.cps = cps
	default:
		return nil, fmt.Errorf("unknown clock mode %q", o.mode)
	}

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Registry {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Calibration returns the cycles-per-second constant used for conversion.
func (r *Registry) Calibration() uint64 {
	return r.cps
}

// Mode returns the counter the registry reads.
func (r *Registry) Mode() Mode {
	return r.mode
}

func (r *Registry) now() uint64 {
	if r.mode == ModeNanoseconds {
		return r.src.NowNs()
	}
	return r.src.ReadCycles()
}

// since returns the delta from start. A TSC read on another core can lag
// slightly, so a backwards step counts as zero rather than wrapping.
func (r *Registry) since(start uint64) uint64 {
	end := r.now()
	if end < start {
		return 0
	}
	return end - start
}

// Time runs work and records its duration under name.
func (r *Registry) Time(name string, work func()) {
	start := r.begin(name)
	work()
	r.end(name, start)
}

// TimeErr runs work and records its duration under name if it returns nil.
// The error is returned unchanged.
func (r *Registry) TimeErr(name string, work func() error) error {
	_, err := TimedErr(r, name, func() (struct{}, error) {
		return struct{}{}, work()
	})
	return err
}

// Timed runs work, records its duration under name, and returns its result.
func Timed[T any](r *Registry, name string, work func() T) T {
	start := r.begin(name)
	v := work()
	r.end(name, start)
	return v
}

// TimedErr runs work and returns its results unchanged. The duration is
// recorded under name only when the error is nil.
func TimedErr[T any](r *Registry, name string, work func() (T, error)) (T, error) {
	start := r.begin(name)
	v, err := work()
	if err != nil {
		r.discard(name, start, err)
		return v, err
	}
	r.end(name, start)
	return v, nil
}

// Start begins timing name and returns a function that stops it. Only the
// first call of the returned function records.
func (r *Registry) Start(name string) func() {
	start := r.begin(name)
	var once sync.Once
	return func() {
		once.Do(func() {
			r.end(name, start)
		})
	}
}

// Record folds a raw delta, in the registry's unit, into name.
func (r *Registry) Record(name string, d uint64) {
	r.mu.Lock()
	sw, ok := r.timers[name]
	if !ok {
		sw = newStopwatch(r.ringSize)
		r.timers[name] = sw
	}
	sw.record(d)
	r.mu.Unlock()
}

func (r *Registry) begin(name string) uint64 {
	start := r.now()
	if r.tracer != nil {
		r.tracer.Trace(fmt.Sprintf("start timing %q at %d", name, start))
	}
	return start
}

func (r *Registry) end(name string, start uint64) {
	d := r.since(start)
	if r.tracer != nil {
		r.tracer.Trace(fmt.Sprintf("stop timing %q (%dus)", name, tsc.ToUs(d, r.cps)))
	}
	r.Record(name, d)
}

func (r *Registry) discard(name string, start uint64, err error) {
	if r.tracer != nil {
		d := r.since(start)
		r.tracer.Trace(fmt.Sprintf("discard timing %q after %dus: %v", name, tsc.ToUs(d, r.cps), err))
	}
}

type namedStopwatch struct {
	name string
	sw   *Stopwatch
}

// snapshot copies the map under the lock and sorts the copy by name
// outside it. Sample rings are only copied when withSamples is set.
func (r *Registry) snapshot(withSamples bool) []namedStopwatch {
	r.mu.Lock()
	out := make([]namedStopwatch, 0, len(r.timers))
	for name, sw := range r.timers {
		c := &Stopwatch{Total: sw.Total, Count: sw.Count}
		if withSamples {
			c = sw.clone()
		}
		out = append(out, namedStopwatch{name: name, sw: c})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].name, out[j].name) < 0
	})
	return out
}

// Print renders every stopwatch to the sink, ordered by name.
func (r *Registry) Print() {
	for _, e := range r.snapshot(false) {
		r.sink.Info(e.sw.Render(e.name, r.cps))
	}
}

// Stats returns a copy of the stopwatch for name.
func (r *Registry) Stats(name string) (Stopwatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sw, ok := r.timers[name]
	if !ok {
		return Stopwatch{}, false
	}
	return *sw.clone(), true
}

// Samples returns the retained raw samples for name, oldest first.
func (r *Registry) Samples(name string) []uint64 {
	sw, ok := r.Stats(name)
	if !ok {
		return nil
	}
	return sw.Samples()
}

// Names returns the recorded event names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.timers))
	for name := range r.timers {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

// Len returns the number of distinct event names.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Clear drops every stopwatch. The calibration constant is kept.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.timers = make(map[string]*Stopwatch)
	r.mu.Unlock()
}

// Clone returns an independent copy of the registry's current state.
func (r *Registry) Clone() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Registry{
		timers:   make(map[string]*Stopwatch, len(r.timers)),
		cps:      r.cps,
		mode:     r.mode,
		src:      r.src,
		sink:     r.sink,
		tracer:   r.tracer,
		ringSize: r.ringSize,
	}
	for name, sw := range r.timers {
		c.timers[name] = sw.clone()
	}
	return c
}
