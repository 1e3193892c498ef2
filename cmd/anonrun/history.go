package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"anon-bd/anonrun/pkg/cli"
	"anon-bd/anonrun/pkg/history"
)

var historyFlags struct {
	limit     int
	status    string
	since     string
	format    string
	olderThan string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune job history",
	Long: `Inspect and prune the job history database.

Every run, successful or not, is recorded when history.enabled is true.

Subcommands:
  list   - List recent jobs
  prune  - Delete old records`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	Long: `List recorded jobs, newest first.

Examples:
  # Last 20 jobs
  anonrun history list

  # Failures in the last day, as CSV
  anonrun history list --status failure --since 24h --format csv`,
	Args: noArgs,
	RunE: runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old job records",
	Long: `Delete job records older than a given age. The age defaults to
history.retention_days.

Examples:
  anonrun history prune
  anonrun history prune --older-than 30d
  anonrun history prune --older-than 12h`,
	Args: noArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyPruneCmd)

	historyListCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum number of jobs")
	historyListCmd.Flags().StringVar(&historyFlags.status, "status", "", "only jobs with this status (success, failure)")
	historyListCmd.Flags().StringVar(&historyFlags.since, "since", "", "only jobs started within this age (e.g. 24h, 7d)")
	historyListCmd.Flags().StringVarP(&historyFlags.format, "format", "f", "text", "output format (text, json, csv)")

	historyPruneCmd.Flags().StringVar(&historyFlags.olderThan, "older-than", "", "delete records older than this age (e.g. 30d, 720h)")
}

// jobList is the result of anonrun history list.
type jobList []*history.Record

func (l jobList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No jobs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tDURATION\tROWS\tMANIFEST")
	for _, r := range l {
		status := r.Status
		if r.ErrorKind != "" {
			status += " (" + r.ErrorKind + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			r.Duration.Round(time.Millisecond),
			r.RowsIn, r.RowsOut,
			r.ManifestPath,
		)
	}
	return tw.Flush()
}

func (l jobList) CSVHeader() []string {
	return []string{"id", "started_at", "status", "error_kind", "duration_ms", "rows_in", "rows_out", "manifest", "output", "error"}
}

func (l jobList) CSVRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Status,
			r.ErrorKind,
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			strconv.Itoa(r.RowsIn),
			strconv.Itoa(r.RowsOut),
			r.ManifestPath,
			r.OutputPath,
			r.Error,
		})
	}
	return rows
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}
	if historyFlags.limit < 1 {
		return cli.NewUsageError("--limit must be positive, got %d", historyFlags.limit)
	}
	switch historyFlags.status {
	case "", history.StatusSuccess, history.StatusFailure:
	default:
		return cli.NewUsageError("unknown status %q (want success or failure)", historyFlags.status)
	}

	q := &history.Query{Status: historyFlags.status, Limit: historyFlags.limit}
	if historyFlags.since != "" {
		age, err := parseAge(historyFlags.since)
		if err != nil {
			return err
		}
		since := time.Now().Add(-age)
		q.Since = &since
	}

	a, err := newApp(appOptions{history: true})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireHistory(); err != nil {
		return err
	}

	records, err := a.history.Query(contextOf(cmd), q)
	if err != nil {
		return cli.NewCommandError("history list", err)
	}
	if records == nil {
		records = []*history.Record{}
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), jobList(records))
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	var age time.Duration
	if historyFlags.olderThan != "" {
		var err error
		if age, err = parseAge(historyFlags.olderThan); err != nil {
			return err
		}
	}

	a, err := newApp(appOptions{history: true})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireHistory(); err != nil {
		return err
	}

	if age == 0 {
		if a.cfg.History.RetentionDays <= 0 {
			return cli.NewUsageError("history.retention_days is 0; pass --older-than")
		}
		age = time.Duration(a.cfg.History.RetentionDays) * 24 * time.Hour
	}

	pruner := history.NewPruner(a.history, a.cfg.History.RetentionDays, a.logger)
	deleted, err := pruner.PruneOlderThan(contextOf(cmd), age)
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d job record(s) older than %s\n", deleted, age)
	return nil
}

// parseAge accepts Go durations plus a day suffix ("30d").
func parseAge(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, cli.NewUsageError("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, cli.NewUsageError("invalid age %q", s)
	}
	return d, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
