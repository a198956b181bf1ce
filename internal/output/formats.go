package output

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/timerset/pkg/timerset"
	"github.com/wesleyorama2/timerset/pkg/tsc"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatTable renders an aligned table
	FormatTable OutputFormat = "table"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat parses a format name. The empty string selects FormatText.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected text, table, json or yaml)", s)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatReport(rep timerset.Report) (string, error)
	FormatCalibration(c Calibration) (string, error)
}

// Calibration describes a series of cycle counter calibrations on this host.
type Calibration struct {
	Counter      string         `json:"counter" yaml:"counter"`
	CPUModel     string         `json:"cpuModel,omitempty" yaml:"cpuModel,omitempty"`
	NominalHz    uint64         `json:"nominalHz,omitempty" yaml:"nominalHz,omitempty"`
	Runs         []tsc.Estimate `json:"runs" yaml:"runs"`
	Stable       bool           `json:"stable" yaml:"stable"`
	SelectedRate uint64         `json:"cyclesPerSecond" yaml:"cyclesPerSecond"`
}

// GetFormatter returns a formatter for the specified format
func GetFormatter(format OutputFormat, noColor bool) FormatProvider {
	switch format {
	case FormatTable:
		return &TableFormatter{}
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return NewTextFormatter(noColor)
	}
}
