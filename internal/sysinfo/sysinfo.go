// Package sysinfo reports what the host claims about its CPU, for comparison
// with a measured calibration.
package sysinfo

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPU describes the first logical processor.
type CPU struct {
	Model     string
	NominalHz uint64
	Cores     int
}

// InfoFunc matches cpu.InfoWithContext so tests can substitute it.
type InfoFunc func(ctx context.Context) ([]cpu.InfoStat, error)

// Probe reads CPU information from the OS.
func Probe(ctx context.Context) (CPU, error) {
	return probe(ctx, cpu.InfoWithContext)
}

func probe(ctx context.Context, info InfoFunc) (CPU, error) {
	stats, err := info(ctx)
	if err != nil {
		return CPU{}, fmt.Errorf("reading cpu info: %w", err)
	}
	if len(stats) == 0 {
		return CPU{}, fmt.Errorf("reading cpu info: no processors reported")
	}

	first := stats[0]
	c := CPU{
		Model:     first.ModelName,
		NominalHz: uint64(first.Mhz * 1_000_000),
	}
	for _, s := range stats {
		c.Cores += int(s.Cores)
	}
	return c, nil
}
