package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Workload describes a synthetic timing run: a set of named events, each
// executed a number of times by every worker.
type Workload struct {
	Name    string  `yaml:"name" json:"name"`
	Mode    string  `yaml:"mode,omitempty" json:"mode,omitempty"`
	Workers int     `yaml:"workers,omitempty" json:"workers,omitempty"`
	Ring    int     `yaml:"ring,omitempty" json:"ring,omitempty"`
	Events  []Event `yaml:"events" json:"events"`
}

// Event is one named unit of work. Nested events are timed inside the
// parent, once per parent iteration.
type Event struct {
	Name       string  `yaml:"name" json:"name"`
	Iterations int     `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Sleep      string  `yaml:"sleep,omitempty" json:"sleep,omitempty"`
	Spin       int     `yaml:"spin,omitempty" json:"spin,omitempty"`
	FailEvery  int     `yaml:"fail_every,omitempty" json:"fail_every,omitempty"`
	Nested     []Event `yaml:"nested,omitempty" json:"nested,omitempty"`
}

// SleepDuration returns the parsed sleep of the event.
func (e Event) SleepDuration() (time.Duration, error) {
	return ParseDurationString(e.Sleep)
}

// LoadWorkload loads a workload file
func LoadWorkload(path string) (*Workload, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("workload file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading workload file: %w", err)
	}

	return ParseWorkload(data, path)
}

// ParseWorkload parses, schema-checks, defaults and validates a YAML or
// JSON workload document. path is only used in error messages.
func ParseWorkload(data []byte, path string) (*Workload, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing workload file %s: %w", path, err)
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error converting workload file %s: %w", path, err)
	}
	if errs := validateSchema(asJSON); len(errs) > 0 {
		return nil, fmt.Errorf("workload file %s does not match schema: %w", path, errs)
	}

	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("error decoding workload file %s: %w", path, err)
	}

	ApplyDefaults(&w)

	if errs := Validate(&w); len(errs) > 0 {
		return nil, fmt.Errorf("invalid workload %s: %w", path, errs)
	}

	return &w, nil
}

// ApplyDefaults fills in unset fields.
func ApplyDefaults(w *Workload) {
	if w.Mode == "" {
		w.Mode = "ticks"
	}
	if w.Workers == 0 {
		w.Workers = 1
	}
	applyEventDefaults(w.Events)
}

func applyEventDefaults(events []Event) {
	for i := range events {
		if events[i].Iterations == 0 {
			events[i].Iterations = 1
		}
		applyEventDefaults(events[i].Nested)
	}
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms", "200us"
//   - Seconds as integer: "30" (treated as 30 seconds)
//
// Returns the parsed duration or an error.
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Try standard Go duration parsing first
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	// Try parsing as integer seconds
	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
