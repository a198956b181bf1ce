package tsc

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/wesleyorama2/timerset/pkg/clock"
)

// CalibrationInterval is how long Calibrate sleeps between its two readings.
const CalibrationInterval = 100 * time.Microsecond

// SigDigits is the number of significant digits kept in a calibration constant.
const SigDigits = 2

const nsPerSecond = uint64(time.Second)

var (
	// ErrClockMalfunction is returned when the wall clock did not move
	// forward across the calibration sleep.
	ErrClockMalfunction = errors.New("tsc: wall clock did not advance during calibration")

	// ErrCounterStalled is returned when the cycle counter went backwards
	// or did not advance enough to produce a non-zero estimate.
	ErrCounterStalled = errors.New("tsc: cycle counter did not advance during calibration")

	// ErrZeroCalibration is the panic value for conversions with a zero
	// cycles-per-second constant.
	ErrZeroCalibration = errors.New("tsc: zero calibration constant")
)

// Estimate is the outcome of one calibration run.
type Estimate struct {
	Cycles          uint64 `json:"cycles" yaml:"cycles"`
	Nanos           uint64 `json:"nanos" yaml:"nanos"`
	Raw             uint64 `json:"raw" yaml:"raw"`
	CyclesPerSecond uint64 `json:"cyclesPerSecond" yaml:"cyclesPerSecond"`
}

// Measure runs one calibration against src and returns the full estimate.
func Measure(src clock.Source) (Estimate, error) {
	t0 := src.NowNs()
	c0 := src.ReadCycles()
	src.Sleep(CalibrationInterval)
	c1 := src.ReadCycles()
	t1 := src.NowNs()

	if t1 <= t0 {
		return Estimate{}, fmt.Errorf("%w (t0=%d, t1=%d)", ErrClockMalfunction, t0, t1)
	}
	// A counter read on another core can be behind the first reading.
	if c1 <= c0 {
		return Estimate{Nanos: t1 - t0}, fmt.Errorf("%w (c0=%d, c1=%d)", ErrCounterStalled, c0, c1)
	}

	est := Estimate{
		Cycles: c1 - c0,
		Nanos:  t1 - t0,
	}
	est.Raw = rawCyclesPerSecond(est.Cycles, est.Nanos)
	est.CyclesPerSecond = RoundKeepingTopSigDigs(est.Raw, SigDigits)

	if est.CyclesPerSecond == 0 {
		return est, fmt.Errorf("%w (dc=%d, dt=%dns)", ErrCounterStalled, est.Cycles, est.Nanos)
	}
	return est, nil
}

// Calibrate returns the number of cycles per second the counter of src
// runs at, rounded to SigDigits significant digits.
func Calibrate(src clock.Source) (uint64, error) {
	est, err := Measure(src)
	if err != nil {
		return 0, err
	}
	return est.CyclesPerSecond, nil
}

// CyclesPerSecond converts a cycle delta dc observed over dt nanoseconds
// into a rounded frequency. dt must be non-zero.
func CyclesPerSecond(dc, dt uint64) uint64 {
	if dt == 0 {
		panic(ErrClockMalfunction)
	}
	return RoundKeepingTopSigDigs(rawCyclesPerSecond(dc, dt), SigDigits)
}

// rawCyclesPerSecond computes 1e9 * dc / dt without overflowing the product.
func rawCyclesPerSecond(dc, dt uint64) uint64 {
	return mulDiv(dc, nsPerSecond, dt)
}

// RoundKeepingTopSigDigs rounds x to its top digits significant decimal
// digits, half away from zero. Values that already fit are returned as is
// and results above the uint64 range saturate.
func RoundKeepingTopSigDigs(x uint64, digits int) uint64 {
	if x == 0 || digits <= 0 {
		return 0
	}

	// exponent = floor(log10(x)) - (digits - 1), done on integers.
	exponent := numDigits(x) - digits
	if exponent <= 0 {
		return x
	}

	unit := pow10(exponent)
	q, r := x/unit, x%unit
	if r >= unit-r {
		q++
	}

	hi, lo := bits.Mul64(q, unit)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// ToNs converts ticks into nanoseconds given cps cycles per second.
func ToNs(ticks, cps uint64) uint64 {
	if cps == 0 {
		panic(ErrZeroCalibration)
	}
	return mulDiv(ticks, nsPerSecond, cps)
}

// ToUs converts ticks into microseconds.
func ToUs(ticks, cps uint64) uint64 {
	return ToNs(ticks, cps) / 1000
}

// ToMs converts ticks into milliseconds.
func ToMs(ticks, cps uint64) uint64 {
	return ToUs(ticks, cps) / 1000
}

// ToDuration converts ticks into a time.Duration, saturating at the
// largest representable duration.
func ToDuration(ticks, cps uint64) time.Duration {
	ns := ToNs(ticks, cps)
	if ns > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// mulDiv returns a*b/d with a 128-bit intermediate, saturating when the
// quotient does not fit in 64 bits. d must be non-zero.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}

func numDigits(x uint64) int {
	n := 1
	for x >= 10 {
		x /= 10
		n++
	}
	return n
}

func pow10(n int) uint64 {
	p := uint64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
