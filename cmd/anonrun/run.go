package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"anon-bd/anonrun/pkg/cli"
)

var runFlags struct {
	progress bool
}

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Run an anonymization job",
	Long: `Run the anonymization job described by a manifest.

The manifest is validated in full before any data is read. The output file is
written only after the engine succeeds, and never partially.

Examples:
  # Run a job
  anonrun run job.yaml

  # Show the job's stages while it runs
  anonrun run job.yaml --progress

  # Use an engine binary instead of the engine service
  ANONRUN_ENGINE_TYPE=exec ANONRUN_ENGINE_COMMAND=anon-engine anonrun run job.yaml`,
	Args: exactArgs(1),
	RunE: runJob,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&runFlags.progress, "progress", false, "show job stages on stderr")
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{engine: true, history: true, optionalHistory: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler(contextOf(cmd), a.logger)
	defer stop()

	runner := a.runner()
	var progress *cli.StageProgress
	if runFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		runner.Progress = progress.Report
	}

	res, err := runner.Run(ctx, args[0])
	if err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Job %s finished in %s\n", res.JobID, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  %d rows in, %d rows out\n", res.RowsIn, res.RowsOut)
	fmt.Fprintf(out, "  Output: %s\n", res.OutputPath)
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
