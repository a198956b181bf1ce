package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/timerset/internal/output"
	"github.com/wesleyorama2/timerset/internal/sysinfo"
	"github.com/wesleyorama2/timerset/pkg/clock"
	"github.com/wesleyorama2/timerset/pkg/tsc"
)

const maxCalibrationRuns = 1000

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the cycle counter rate of this host",
		Long: `Calibrate samples the cycle counter against the monotonic clock over a
short sleep, several times, and reports the raw and rounded rates.

The rounded rate keeps two significant digits so that repeated
calibrations on the same machine agree. The run is reported as stable
when every rounded rate is the same.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, _ := cmd.Flags().GetInt("runs")
			formatName, _ := cmd.Flags().GetString("format")
			noColor, _ := cmd.Flags().GetBool("no-color")
			skipHost, _ := cmd.Flags().GetBool("skip-host")

			if runs < 1 || runs > maxCalibrationRuns {
				return fmt.Errorf("--runs must be between 1 and %d, got %d", maxCalibrationRuns, runs)
			}
			format, err := output.ParseFormat(formatName)
			if err != nil {
				return err
			}

			c, err := calibrate(clock.System(), runs)
			if err != nil {
				return err
			}

			if !skipHost {
				host, err := sysinfo.Probe(cmd.Context())
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				} else {
					c.CPUModel = host.Model
					c.NominalHz = host.NominalHz
				}
			}

			out := cmd.OutOrStdout()
			formatter := output.GetFormatter(format, !output.UseColor(out, noColor))
			text, err := formatter.FormatCalibration(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}

	cmd.Flags().IntP("runs", "n", 5, "Number of calibrations to perform")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, table, json, yaml)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("skip-host", false, "Do not query the OS for CPU model and nominal frequency")
	return cmd
}

// calibrate measures src n times. The selected rate is the most frequent
// rounded rate; on a tie the rate that reached that count first wins.
func calibrate(src clock.Source, n int) (output.Calibration, error) {
	c := output.Calibration{
		Counter: clock.CounterName(),
		Runs:    make([]tsc.Estimate, 0, n),
		Stable:  true,
	}

	votes := make(map[uint64]int, n)
	best := 0
	for i := 0; i < n; i++ {
		est, err := tsc.Measure(src)
		if err != nil {
			return output.Calibration{}, fmt.Errorf("calibration %d: %w", i+1, err)
		}
		c.Runs = append(c.Runs, est)

		if est.CyclesPerSecond != c.Runs[0].CyclesPerSecond {
			c.Stable = false
		}
		votes[est.CyclesPerSecond]++
		if v := votes[est.CyclesPerSecond]; v > best {
			best = v
			c.SelectedRate = est.CyclesPerSecond
		}
	}
	return c, nil
}
