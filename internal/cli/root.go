package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree. Tests use it to get commands with
// fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "timerset",
		Short:   "Named, concurrent timing of code regions",
		Version: version,
		Long: `Timerset accumulates the time spent in named code regions across
goroutines, using the CPU cycle counter where one is available.

Use "calibrate" to see how the cycle counter is calibrated on this host,
and "run" to drive a registry with a synthetic workload described in YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.AddCommand(newCalibrateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "timerset %s\n", version)
		},
	}
}

// Execute runs the root command and reports any error on stderr.
// This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
