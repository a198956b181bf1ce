package timerset

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesleyorama2/timerset/pkg/clock"
	"github.com/wesleyorama2/timerset/pkg/tsc"
)

const testHz = 3_000_000_000

// lineSink collects every line passed to Info.
type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) Info(msg string) {
	s.mu.Lock()
	s.lines = append(s.lines, msg)
	s.mu.Unlock()
}

func newManualRegistry(t *testing.T, opts ...Option) (*Registry, *clock.Manual) {
	t.Helper()
	m := clock.NewManual(testHz)
	r, err := New(append([]Option{WithClock(m), WithSink(NopSink)}, opts...)...)
	require.NoError(t, err)
	return r, m
}

func TestNew_CalibratesOnce(t *testing.T) {
	r, _ := newManualRegistry(t)

	assert.Equal(t, uint64(testHz), r.Calibration())
	assert.Equal(t, ModeTicks, r.Mode())
	assert.Zero(t, r.Len())
}

func TestNew_Errors(t *testing.T) {
	t.Run("zero calibration", func(t *testing.T) {
		_, err := New(WithCalibration(0))
		assert.ErrorIs(t, err, ErrInvalidCalibration)
	})

	t.Run("stalled counter", func(t *testing.T) {
		_, err := New(WithClock(clock.NewManual(0)))
		assert.ErrorIs(t, err, tsc.ErrCounterStalled)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := New(WithMode("sundial"))
		assert.Error(t, err)
	})

	t.Run("MustNew panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNew(WithCalibration(0)) })
	})
}

func TestNew_ModeNanoseconds(t *testing.T) {
	r, m := newManualRegistry(t, WithMode(ModeNanoseconds))
	assert.Equal(t, uint64(time.Second), r.Calibration())

	r.Time("io", func() { m.Advance(1500 * time.Nanosecond) })

	sw, ok := r.Stats("io")
	require.True(t, ok)
	assert.Equal(t, uint64(1500), sw.Total)
	assert.Equal(t, uint64(1), sw.Count)
}

func TestNew_WithCalibrationSkipsMeasurement(t *testing.T) {
	m := clock.NewManual(testHz)
	r, err := New(WithClock(m), WithCalibration(2_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, uint64(2_000_000_000), r.Calibration())
	assert.Zero(t, m.NowNs(), "calibration should not have slept")
}

func TestRegistry_TimeAccumulates(t *testing.T) {
	r, m := newManualRegistry(t)

	for i := 0; i < 5; i++ {
		r.Time("work", func() { m.Advance(2 * time.Millisecond) })
	}

	sw, ok := r.Stats("work")
	require.True(t, ok)
	assert.Equal(t, uint64(5), sw.Count)
	assert.Equal(t, uint64(5*6_000_000), sw.Total)
	assert.Equal(t, "work: 10 ms total, 5 samples, 2000 us avg", sw.Render("work", r.Calibration()))
}

func TestRegistry_Nested(t *testing.T) {
	r, m := newManualRegistry(t)

	r.Time("outer", func() {
		m.Advance(time.Millisecond)
		r.Time("inner", func() {
			m.Advance(2 * time.Millisecond)
		})
		m.Advance(time.Millisecond)
	})

	outer, ok := r.Stats("outer")
	require.True(t, ok)
	inner, ok := r.Stats("inner")
	require.True(t, ok)

	assert.Equal(t, uint64(1), outer.Count)
	assert.Equal(t, uint64(1), inner.Count)
	assert.Equal(t, uint64(12_000_000), outer.Total)
	assert.Equal(t, uint64(6_000_000), inner.Total)
}

func TestRegistry_Timed(t *testing.T) {
	r, m := newManualRegistry(t)

	got := Timed(r, "answer", func() int {
		m.Advance(time.Microsecond)
		return 42
	})

	assert.Equal(t, 42, got)
	sw, _ := r.Stats("answer")
	assert.Equal(t, uint64(3_000), sw.Total)
}

func TestRegistry_ErrorDiscardsSample(t *testing.T) {
	r, m := newManualRegistry(t)
	errBoom := errors.New("boom")

	err := r.TimeErr("fails", func() error {
		m.Advance(time.Millisecond)
		return errBoom
	})
	assert.Same(t, errBoom, err)

	v, err := TimedErr(r, "fails", func() (string, error) {
		return "partial", errBoom
	})
	assert.Equal(t, "partial", v)
	assert.Same(t, errBoom, err)

	_, ok := r.Stats("fails")
	assert.False(t, ok, "failed work must not create a stopwatch")

	require.NoError(t, r.TimeErr("fails", func() error {
		m.Advance(time.Millisecond)
		return nil
	}))
	sw, ok := r.Stats("fails")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sw.Count)
	assert.Equal(t, uint64(3_000_000), sw.Total)
}

func TestRegistry_PanicDiscardsSample(t *testing.T) {
	r, _ := newManualRegistry(t)

	assert.PanicsWithValue(t, "kaboom", func() {
		r.Time("explodes", func() { panic("kaboom") })
	})

	_, ok := r.Stats("explodes")
	assert.False(t, ok)

	// The lock was never held across work, so the registry is still usable.
	r.Time("after", func() {})
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Start(t *testing.T) {
	r, m := newManualRegistry(t)

	stop := r.Start("span")
	m.Advance(time.Millisecond)
	stop()
	m.Advance(time.Millisecond)
	stop()

	sw, ok := r.Stats("span")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sw.Count)
	assert.Equal(t, uint64(3_000_000), sw.Total)
}

func TestRegistry_PrintSortedByName(t *testing.T) {
	sink := &lineSink{}
	r, m := newManualRegistry(t, WithSink(sink))

	r.Time("zebra", func() { m.Advance(time.Millisecond) })
	r.Time("alpha", func() { m.Advance(time.Millisecond) })
	r.Time("Mango", func() { m.Advance(time.Millisecond) })

	r.Print()

	require.Len(t, sink.lines, 3)
	assert.True(t, strings.HasPrefix(sink.lines[0], "Mango:"), sink.lines[0])
	assert.True(t, strings.HasPrefix(sink.lines[1], "alpha:"), sink.lines[1])
	assert.True(t, strings.HasPrefix(sink.lines[2], "zebra:"), sink.lines[2])
	assert.Equal(t, []string{"Mango", "alpha", "zebra"}, r.Names())
}

func TestRegistry_PrintToLogger(t *testing.T) {
	var buf bytes.Buffer
	r, m := newManualRegistry(t, WithSink(LogSink(log.New(&buf, "", 0))))

	r.Time("load", func() { m.Advance(3 * time.Millisecond) })
	r.Print()

	assert.Equal(t, "load: 3 ms total, 1 samples, 3000 us avg\n", buf.String())
}

func TestRegistry_NilSinkIsNop(t *testing.T) {
	r, _ := newManualRegistry(t, WithSink(nil))
	r.Time("x", func() {})
	assert.NotPanics(t, r.Print)
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r, m := newManualRegistry(t, WithSampleRing(4))

	r.Time("a", func() { m.Advance(time.Millisecond) })
	snap := r.Clone()

	r.Time("a", func() { m.Advance(time.Millisecond) })
	r.Time("b", func() { m.Advance(time.Millisecond) })

	sw, ok := snap.Stats("a")
	require.True(t, ok)
	assert.Equal(t, uint64(1), sw.Count)
	assert.Equal(t, uint64(3_000_000), sw.Total)
	assert.Equal(t, []uint64{3_000_000}, sw.Samples())
	_, ok = snap.Stats("b")
	assert.False(t, ok)
	assert.Equal(t, r.Calibration(), snap.Calibration())

	// And the other way around.
	snap.Record("a", 1)
	orig, _ := r.Stats("a")
	assert.Equal(t, uint64(2), orig.Count)
}

func TestRegistry_SampleRing(t *testing.T) {
	r, _ := newManualRegistry(t, WithSampleRing(3))

	for i := uint64(1); i <= 5; i++ {
		r.Record("ring", i)
	}

	assert.Equal(t, []uint64{3, 4, 5}, r.Samples("ring"))
	sw, _ := r.Stats("ring")
	assert.Equal(t, uint64(15), sw.Total)
	assert.Equal(t, uint64(5), sw.Count)

	assert.Nil(t, r.Samples("missing"))
}

func TestRegistry_SnapshotCopiesRingsOnlyOnRequest(t *testing.T) {
	r, _ := newManualRegistry(t, WithSampleRing(8))
	for i := uint64(1); i <= 5; i++ {
		r.Record("ring", i)
	}

	aggregates := r.snapshot(false)
	require.Len(t, aggregates, 1)
	assert.Nil(t, aggregates[0].sw.ring)
	assert.Equal(t, uint64(15), aggregates[0].sw.Total)
	assert.Equal(t, uint64(5), aggregates[0].sw.Count)

	full := r.snapshot(true)
	require.Len(t, full, 1)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, full[0].sw.Samples())

	sink := &lineSink{}
	r.sink = sink
	r.Print()
	require.Len(t, sink.lines, 1)
	assert.True(t, strings.HasPrefix(sink.lines[0], "ring: "))
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, r.Samples("ring"))
}

func TestRegistry_RingDisabledByDefault(t *testing.T) {
	r, _ := newManualRegistry(t)
	r.Record("x", 10)
	assert.Nil(t, r.Samples("x"))
}

func TestWithSampleRing_DefaultSize(t *testing.T) {
	var o options
	WithSampleRing(0)(&o)
	assert.Equal(t, DefaultRingSize, o.ringSize)
}

func TestRegistry_Clear(t *testing.T) {
	r, _ := newManualRegistry(t)
	r.Record("x", 1)
	r.Clear()

	assert.Zero(t, r.Len())
	assert.Equal(t, uint64(testHz), r.Calibration())
}

// backwardsSource steps its cycle counter down between reads.
type backwardsSource struct {
	*clock.Manual
	next uint64
}

func (b *backwardsSource) ReadCycles() uint64 {
	b.next -= 10
	return b.next
}

func TestRegistry_BackwardsCounterRecordsZero(t *testing.T) {
	r, err := New(WithClock(&backwardsSource{Manual: clock.NewManual(testHz), next: 1000}),
		WithCalibration(testHz), WithSink(NopSink))
	require.NoError(t, err)

	r.Time("skew", func() {})

	sw, _ := r.Stats("skew")
	assert.Equal(t, uint64(1), sw.Count)
	assert.Zero(t, sw.Total)
}

func TestRegistry_ConcurrentSameName(t *testing.T) {
	r, err := New(WithMode(ModeNanoseconds), WithSink(NopSink))
	require.NoError(t, err)

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	start := make(chan struct{})
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perWorker; i++ {
				r.Time("same_name", func() {})
			}
		}()
	}
	close(start)
	wg.Wait()

	sw, ok := r.Stats("same_name")
	require.True(t, ok)
	assert.Equal(t, uint64(workers*perWorker), sw.Count)
}

func TestRegistry_ConcurrentDistinctNamesWithReaders(t *testing.T) {
	r, err := New(WithMode(ModeNanoseconds), WithSink(NopSink))
	require.NoError(t, err)

	names := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r.Time(name, func() {})
			}
		}(name)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = r.Clone()
			_ = r.Report()
			r.Print()
		}
	}()
	wg.Wait()

	for _, name := range names {
		sw, ok := r.Stats(name)
		require.True(t, ok)
		assert.Equal(t, uint64(500), sw.Count, name)
	}
}

// traceSink records trace lines separately from info lines.
type traceSink struct {
	lineSink
	traces []string
}

func (s *traceSink) Trace(msg string) {
	s.traces = append(s.traces, msg)
}

func TestRegistry_TraceSink(t *testing.T) {
	sink := &traceSink{}
	r, m := newManualRegistry(t, WithSink(sink))

	r.Time("traced", func() { m.Advance(5 * time.Microsecond) })
	_ = r.TimeErr("traced", func() error { return errors.New("nope") })

	require.Len(t, sink.traces, 4)
	assert.Contains(t, sink.traces[0], `start timing "traced"`)
	assert.Contains(t, sink.traces[1], `stop timing "traced" (5us)`)
	assert.Contains(t, sink.traces[3], `discard timing "traced"`)
	assert.Contains(t, sink.traces[3], "nope")
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: ModeTicks},
		{input: "ticks", want: ModeTicks},
		{input: "nanoseconds", want: ModeNanoseconds},
		{input: "ns", want: ModeNanoseconds},
		{input: "cycles", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
