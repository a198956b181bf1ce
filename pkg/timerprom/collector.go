// Package timerprom exposes a timerset.Registry as Prometheus metrics.
//
// Every event becomes two counters labelled by event name: the total
// wall-clock seconds spent in it and the number of completed samples. The
// registry's calibration constant is exported as a gauge. Values are read
// from a fresh Report on every scrape, so nothing is cached here.
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(timerprom.NewCollector(timers, "myapp"))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package timerprom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wesleyorama2/timerset/pkg/timerset"
)

// DefaultNamespace is used when NewCollector is given an empty namespace.
const DefaultNamespace = "timerset"

// Collector implements prometheus.Collector over a timer registry.
type Collector struct {
	timers *timerset.Registry

	seconds     *prometheus.Desc
	samples     *prometheus.Desc
	calibration *prometheus.Desc
}

// NewCollector creates a collector for timers.
func NewCollector(timers *timerset.Registry, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		timers: timers,
		seconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "event", "seconds_total"),
			"Total wall-clock time spent in completed runs of the event.",
			[]string{"event"}, nil,
		),
		samples: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "event", "samples_total"),
			"Number of completed runs of the event.",
			[]string{"event"}, nil,
		),
		calibration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "cycles_per_second"),
			"Calibrated counter frequency used for conversion.",
			[]string{"mode"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.seconds
	ch <- c.samples
	ch <- c.calibration
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	rep := c.timers.Report()

	ch <- prometheus.MustNewConstMetric(c.calibration, prometheus.GaugeValue,
		float64(rep.CyclesPerSecond), string(rep.Mode))

	for _, e := range rep.Events {
		ch <- prometheus.MustNewConstMetric(c.seconds, prometheus.CounterValue,
			float64(e.TotalNs)/1e9, e.Name)
		ch <- prometheus.MustNewConstMetric(c.samples, prometheus.CounterValue,
			float64(e.Count), e.Name)
	}
}

// Handler returns an http.Handler serving only the metrics of timers.
func Handler(timers *timerset.Registry, namespace string) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(timers, namespace))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
