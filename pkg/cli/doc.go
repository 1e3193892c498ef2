/*
Package cli provides command-line helpers for the anonrun command.

Exit Codes:

Every command error maps to a process exit code through ExitCode:

	0  success
	1  unexpected failure
	2  usage error (bad flags or arguments)
	3  configuration error (manifest or config file)
	4  I/O error (missing input, unreadable hierarchy, unwritable output)
	5  engine error (engine failed or found no solution)

Output Formatting:

Command results can be printed as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Values implementing TextWriter or CSVWriter control their own text and CSV
rendering.

Progress Reporting:

A job's stages can be shown on a terminal:

	progress := cli.NewProgressReporter(os.Stderr)
	runner.Progress = progress.Report
	_, err := runner.Run(ctx, path)
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
