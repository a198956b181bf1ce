package timerset

import "github.com/wesleyorama2/timerset/pkg/tsc"

// Entry is one row of a registry report, converted to wall-clock units.
type Entry struct {
	Name    string   `json:"name" yaml:"name"`
	Count   uint64   `json:"count" yaml:"count"`
	Total   uint64   `json:"total" yaml:"total"`
	TotalNs uint64   `json:"totalNs" yaml:"totalNs"`
	TotalMs uint64   `json:"totalMs" yaml:"totalMs"`
	AvgNs   uint64   `json:"avgNs" yaml:"avgNs"`
	AvgUs   uint64   `json:"avgUs" yaml:"avgUs"`
	Samples []uint64 `json:"samples,omitempty" yaml:"samples,omitempty"`
	Line    string   `json:"-" yaml:"-"`
}

// Report is a point-in-time view of a registry.
type Report struct {
	Mode            Mode    `json:"mode" yaml:"mode"`
	CyclesPerSecond uint64  `json:"cyclesPerSecond" yaml:"cyclesPerSecond"`
	Events          []Entry `json:"events" yaml:"events"`
}

// Report returns every stopwatch sorted by name with totals and averages
// converted using the registry's calibration.
func (r *Registry) Report() Report {
	snap := r.snapshot(true)
	rep := Report{
		Mode:            r.mode,
		CyclesPerSecond: r.cps,
		Events:          make([]Entry, 0, len(snap)),
	}

	for _, e := range snap {
		sw := *e.sw
		entry := Entry{
			Name:    e.name,
			Count:   sw.Count,
			Total:   sw.Total,
			TotalNs: tsc.ToNs(sw.Total, r.cps),
			TotalMs: tsc.ToMs(sw.Total, r.cps),
			Samples: sw.Samples(),
			Line:    sw.Render(e.name, r.cps),
		}
		if sw.Count > 0 {
			avg := sw.Average()
			entry.AvgNs = tsc.ToNs(avg, r.cps)
			entry.AvgUs = tsc.ToUs(avg, r.cps)
		}
		rep.Events = append(rep.Events, entry)
	}
	return rep
}
