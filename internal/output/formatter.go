package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/wesleyorama2/timerset/pkg/timerset"
	"gopkg.in/yaml.v3"
)

// TextFormatter renders reports as one line per event, the same lines
// Registry.Print produces, with the event name colored.
type TextFormatter struct {
	NoColor bool
	scheme  *ColorScheme
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(noColor bool) *TextFormatter {
	return &TextFormatter{
		NoColor: noColor,
		scheme:  SchemeFor(noColor),
	}
}

// FormatReport formats a registry report
func (f *TextFormatter) FormatReport(rep timerset.Report) (string, error) {
	var buf strings.Builder

	buf.WriteString(f.scheme.Header.Sprintf("Event timings (%s, %d cycles/s)", rep.Mode, rep.CyclesPerSecond))
	buf.WriteString("\n")

	if len(rep.Events) == 0 {
		buf.WriteString("  no events recorded\n")
		return buf.String(), nil
	}

	for _, e := range rep.Events {
		buf.WriteString("  ")
		buf.WriteString(f.FormatLine(e.Name, e.Line))
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// FormatLine colors the event name at the start of a rendered stopwatch line.
func (f *TextFormatter) FormatLine(name, line string) string {
	rest, ok := strings.CutPrefix(line, name)
	if !ok {
		return line
	}
	if strings.HasSuffix(rest, "never ran") {
		return f.scheme.EventName.Sprint(name) + f.scheme.NeverRan.Sprint(rest)
	}
	return f.scheme.EventName.Sprint(name) + rest
}

// FormatCalibration formats calibration runs
func (f *TextFormatter) FormatCalibration(c Calibration) (string, error) {
	var buf strings.Builder

	buf.WriteString(f.scheme.Header.Sprintf("Cycle counter: %s", c.Counter))
	buf.WriteString("\n")
	if c.CPUModel != "" {
		buf.WriteString(fmt.Sprintf("  CPU:      %s\n", c.CPUModel))
	}
	if c.NominalHz > 0 {
		buf.WriteString(fmt.Sprintf("  Nominal:  %d Hz\n", c.NominalHz))
	}

	for i, run := range c.Runs {
		buf.WriteString(fmt.Sprintf("  Run %-3d   raw %d, rounded %d (%d cycles in %dns)\n",
			i+1, run.Raw, run.CyclesPerSecond, run.Cycles, run.Nanos))
	}

	stable := f.scheme.Success.Sprint("stable")
	if !c.Stable {
		stable = f.scheme.Error.Sprint("unstable")
	}
	buf.WriteString(fmt.Sprintf("  Result:   %s cycles/s (%s)\n",
		f.scheme.Highlight.Sprint(c.SelectedRate), stable))

	return buf.String(), nil
}

// TableFormatter renders reports as an aligned table
type TableFormatter struct{}

// FormatReport formats a registry report
func (f *TableFormatter) FormatReport(rep timerset.Report) (string, error) {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.Header("Event", "Samples", "Total (ms)", "Avg (us)", "Total (raw)")
	for _, e := range rep.Events {
		if e.Count == 0 {
			if err := table.Append([]string{e.Name, "0", "never ran", "-", "0"}); err != nil {
				return "", err
			}
			continue
		}
		if err := table.Append([]string{
			e.Name,
			strconv.FormatUint(e.Count, 10),
			strconv.FormatUint(e.TotalMs, 10),
			strconv.FormatUint(e.AvgUs, 10),
			strconv.FormatUint(e.Total, 10),
		}); err != nil {
			return "", err
		}
	}
	if err := table.Render(); err != nil {
		return "", err
	}

	return fmt.Sprintf("Event timings (%s, %d cycles/s)\n%s", rep.Mode, rep.CyclesPerSecond, buf.String()), nil
}

// FormatCalibration formats calibration runs
func (f *TableFormatter) FormatCalibration(c Calibration) (string, error) {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.Header("Run", "Cycles", "Nanos", "Raw (Hz)", "Rounded (Hz)")
	for i, run := range c.Runs {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatUint(run.Cycles, 10),
			strconv.FormatUint(run.Nanos, 10),
			strconv.FormatUint(run.Raw, 10),
			strconv.FormatUint(run.CyclesPerSecond, 10),
		}); err != nil {
			return "", err
		}
	}
	if err := table.Render(); err != nil {
		return "", err
	}

	header := fmt.Sprintf("Cycle counter: %s\n", c.Counter)
	if c.CPUModel != "" {
		header += fmt.Sprintf("CPU: %s (%d Hz nominal)\n", c.CPUModel, c.NominalHz)
	}
	return header + buf.String() + fmt.Sprintf("Result: %d cycles/s\n", c.SelectedRate), nil
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// FormatReport formats a registry report
func (f *JSONFormatter) FormatReport(rep timerset.Report) (string, error) {
	return f.marshal(rep)
}

// FormatCalibration formats calibration runs
func (f *JSONFormatter) FormatCalibration(c Calibration) (string, error) {
	return f.marshal(c)
}

func (f *JSONFormatter) marshal(v interface{}) (string, error) {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(out) + "\n", nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

// FormatReport formats a registry report
func (f *YAMLFormatter) FormatReport(rep timerset.Report) (string, error) {
	return f.marshal(rep)
}

// FormatCalibration formats calibration runs
func (f *YAMLFormatter) FormatCalibration(c Calibration) (string, error) {
	return f.marshal(c)
}

func (f *YAMLFormatter) marshal(v interface{}) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(out), nil
}
