package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/timerset/internal/config"
	"github.com/wesleyorama2/timerset/internal/output"
	"github.com/wesleyorama2/timerset/internal/workload"
	"github.com/wesleyorama2/timerset/pkg/timerprom"
	"github.com/wesleyorama2/timerset/pkg/timerset"
)

const shutdownTimeout = 5 * time.Second

type runOptions struct {
	format      output.OutputFormat
	query       string
	metricsAddr string
	namespace   string
	noColor     bool
	verbose     bool
	workers     int
	mode        string
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workload.yaml>",
		Short: "Time a synthetic workload and print the registry",
		Long: `Run executes the events described in a workload file on a number of
concurrent workers, timing each iteration under the event's name, then
prints the accumulated totals.

Example:
  timerset run workload.yaml
  timerset run workload.yaml --format json --query 'events.#(name=="parse").count'
  timerset run workload.yaml --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			format, err := output.ParseFormat(formatName)
			if err != nil {
				return err
			}

			opts := runOptions{format: format}
			opts.query, _ = cmd.Flags().GetString("query")
			opts.metricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			opts.namespace, _ = cmd.Flags().GetString("namespace")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			opts.workers, _ = cmd.Flags().GetInt("workers")
			opts.mode, _ = cmd.Flags().GetString("mode")

			w, err := config.LoadWorkload(args[0])
			if err != nil {
				return err
			}
			return runWorkload(cmd, w, opts)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format (text, table, json, yaml)")
	cmd.Flags().StringP("query", "q", "", "Print only the result of a gjson path over the JSON report")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address until interrupted")
	cmd.Flags().String("namespace", timerprom.DefaultNamespace, "Prometheus metric namespace")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().BoolP("verbose", "v", false, "Trace the start and stop of every timing")
	cmd.Flags().IntP("workers", "w", 0, "Override the number of workers in the workload")
	cmd.Flags().String("mode", "", "Override the counter mode (ticks or nanoseconds)")
	return cmd
}

func runWorkload(cmd *cobra.Command, w *config.Workload, opts runOptions) error {
	if opts.workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %d", opts.workers)
	}
	if opts.workers > 0 {
		w.Workers = opts.workers
	}
	if opts.mode != "" {
		w.Mode = opts.mode
	}
	if errs := config.Validate(w); len(errs) > 0 {
		return errs
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	// Registry lines go to stdout only when they are the report itself.
	printDirect := opts.format == output.FormatText && opts.query == ""
	sinkOut := errOut
	if printDirect {
		sinkOut = out
	}

	timers, err := workload.NewRegistry(w,
		timerset.WithSink(output.NewConsoleSink(sinkOut, opts.noColor, opts.verbose)))
	if err != nil {
		return err
	}
	runner, err := workload.NewRunner(w, timers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = timerset.NewContext(ctx, timers)

	var srv *http.Server
	if opts.metricsAddr != "" {
		srv = &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           newMetricsRouter(timers, opts.namespace),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(errOut, "metrics server: %v\n", err)
				stop()
			}
		}()
		fmt.Fprintf(errOut, "Serving metrics on http://%s/metrics\n", opts.metricsAddr)
	}

	result, runErr := runner.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := writeReport(ctx, out, timers, result, opts, printDirect); err != nil {
		return err
	}

	if srv != nil {
		if runErr == nil {
			fmt.Fprintln(errOut, "Workload finished; press Ctrl-C to stop serving metrics")
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
	}
	return nil
}

func writeReport(ctx context.Context, out io.Writer, timers *timerset.Registry, result *workload.Result, opts runOptions, printDirect bool) error {
	if opts.query != "" {
		doc, err := json.Marshal(timers.Report())
		if err != nil {
			return err
		}
		value := gjson.GetBytes(doc, opts.query)
		if !value.Exists() {
			return fmt.Errorf("query %q matched nothing", opts.query)
		}
		fmt.Fprintln(out, value.String())
		return nil
	}

	if printDirect {
		scheme := output.SchemeFor(!output.UseColor(out, opts.noColor))
		fmt.Fprintln(out, scheme.Header.Sprintf("%s: %d completed, %d failed, %d workers, %s",
			result.Name, result.Completed, result.Failed, result.Workers, result.Elapsed.Round(time.Microsecond)))
		timerset.PrintAll(ctx)
		return nil
	}

	formatter := output.GetFormatter(opts.format, !output.UseColor(out, opts.noColor))
	text, err := formatter.FormatReport(timers.Report())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}

// newMetricsRouter exposes the registry at /metrics.
func newMetricsRouter(timers *timerset.Registry, namespace string) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", timerprom.Handler(timers, namespace)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	return r
}
