package timerset

import (
	"fmt"
	"log"

	"github.com/wesleyorama2/timerset/pkg/clock"
)

// Mode selects which counter a registry reads.
type Mode string

const (
	// ModeTicks reads the hardware cycle counter and converts with a
	// calibration constant.
	ModeTicks Mode = "ticks"

	// ModeNanoseconds reads the monotonic clock directly.
	ModeNanoseconds Mode = "nanoseconds"
)

// ParseMode parses a mode name. The empty string selects ModeTicks.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeTicks:
		return ModeTicks, nil
	case ModeNanoseconds, "ns":
		return ModeNanoseconds, nil
	default:
		return "", fmt.Errorf("unknown clock mode %q (expected %q or %q)", s, ModeTicks, ModeNanoseconds)
	}
}

type options struct {
	clock    clock.Source
	mode     Mode
	sink     Sink
	ringSize int
	cps      uint64
	cpsSet   bool
}

func defaultOptions() options {
	return options{
		clock: clock.System(),
		mode:  ModeTicks,
		sink:  LogSink(log.Default()),
	}
}

// Option configures a Registry.
type Option func(*options)

// WithClock sets the clock source. Defaults to clock.System().
func WithClock(src clock.Source) Option {
	return func(o *options) {
		o.clock = src
	}
}

// WithMode selects the counter to read. Defaults to ModeTicks.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithSink sets where Print writes. Defaults to the standard logger.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithSampleRing keeps the most recent size raw samples per event.
// A non-positive size selects DefaultRingSize.
func WithSampleRing(size int) Option {
	return func(o *options) {
		if size <= 0 {
			size = DefaultRingSize
		}
		o.ringSize = size
	}
}

// WithCalibration skips measurement in ModeTicks and uses cps cycles per
// second instead. Ignored in ModeNanoseconds.
func WithCalibration(cps uint64) Option {
	return func(o *options) {
		o.cps = cps
		o.cpsSet = true
	}
}
