package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"anon-bd/anonrun/pkg/cli"
	"anon-bd/anonrun/pkg/engine"
	"anon-bd/anonrun/pkg/history"
	"anon-bd/anonrun/pkg/job"
	"anon-bd/anonrun/pkg/telemetry/health"
)

var watchFlags struct {
	metricsAddress string
	debounce       time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch <manifest>",
	Short: "Re-run a job whenever its manifest or hierarchies change",
	Long: `Run a job, then run it again each time the manifest or one of its
hierarchy files changes. Runs never overlap, and a failed run does not stop
watching.

With a metrics address configured, /metrics, /health, /ready and /version are
served while watching. /ready fails while the last run failed.

Examples:
  # Watch a manifest
  anonrun watch job.yaml

  # Serve metrics and health endpoints on port 9464
  anonrun watch job.yaml --metrics-address :9464`,
	Args: exactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.metricsAddress, "metrics-address", "", "override watch.metrics_address")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 0, "override watch.debounce")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{engine: true, history: true, optionalHistory: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if watchFlags.metricsAddress != "" {
		a.cfg.Watch.MetricsAddress = watchFlags.metricsAddress
	}
	if watchFlags.debounce > 0 {
		a.cfg.Watch.Debounce = watchFlags.debounce
	}

	ctx, stop := cli.SetupSignalHandler(contextOf(cmd), a.logger)
	defer stop()

	runs := health.NewRunTracker()

	if addr := a.cfg.Watch.MetricsAddress; addr != "" {
		srv := a.statusServer(addr, runs)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "address", addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Metrics and health endpoints on http://%s/metrics\n", addr)
	}

	if a.history != nil && a.cfg.History.RetentionDays > 0 {
		pruner := history.NewPruner(a.history, a.cfg.History.RetentionDays, a.logger)
		scheduler := history.NewScheduler(pruner, a.cfg.History.PruneSchedule)
		if err := scheduler.Start(ctx); err != nil {
			a.logger.Warn("failed to start history retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			if next := scheduler.NextRun(); next != nil {
				a.logger.Debug("history retention scheduler started", "next_run", next)
			}
		}
	}

	watcher, err := job.NewWatcher(a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	runner := a.runner()
	manifestPath := args[0]
	errOut := cmd.ErrOrStderr()

	fmt.Fprintf(errOut, "Watching %s (Ctrl+C to stop)\n", manifestPath)
	err = watcher.Watch(ctx, func(ctx context.Context) []string {
		res, err := runner.Run(ctx, manifestPath)
		runs.Record(err)
		if err != nil {
			fmt.Fprintf(errOut, "✗ %v\n", err)
		} else {
			fmt.Fprintf(errOut, "✓ Job %s wrote %d rows to %s\n", res.JobID, res.RowsOut, res.OutputPath)
		}
		return job.Targets(manifestPath)
	})
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	fmt.Fprintln(errOut, "✓ Stopped watching")
	return nil
}

// statusServer serves metrics and health endpoints for watch mode.
func (a *app) statusServer(addr string, runs *health.RunTracker) *http.Server {
	checker := health.New(5 * time.Second)
	checker.RegisterCheck("last_run", runs.Check)
	if p, ok := a.engine.(engine.Pinger); ok {
		checker.RegisterCheck("engine", p.Ping)
	}
	if a.history != nil {
		checker.RegisterCheck("history", a.history.Ping)
	}

	mux := http.NewServeMux()
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics.Handler())
	}
	health.Mount(mux, checker, versionInfo())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
