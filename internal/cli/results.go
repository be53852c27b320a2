package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/smacross/journal"
)

func newResultsCmd(rc *RootConfig) *cobra.Command {
	var (
		limit   int
		orgPath string
	)

	cmd := &cobra.Command{
		Use:   "results [run-id]",
		Short: "List recorded runs or show one run's result table",
		Long: `Query runs recorded in the SQLite journal.

Examples:
  smacross results
  smacross results 01HV7Z3K6Q4Y5J2M8N9P0R1S2T
  smacross results 01HV7Z3K6Q4Y5J2M8N9P0R1S2T --org run.org`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rc.Config.Journal.DBPath
			if path == "" {
				path = rc.DBPath
			}
			j, err := journal.NewSQLite(path)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := j.ListRuns(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				printRuns(out, runs)
				return nil
			}

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			results, err := j.ListResults(cmd.Context(), run.RunID)
			if err != nil {
				return fmt.Errorf("list results: %w", err)
			}
			failures, err := j.ListFailures(cmd.Context(), run.RunID)
			if err != nil {
				return fmt.Errorf("list failures: %w", err)
			}

			if orgPath != "" {
				doc := journal.RunOrg{Run: run, Results: results, Failures: failures}
				if err := doc.Write(orgPath); err != nil {
					return fmt.Errorf("write org: %w", err)
				}
				fmt.Fprintf(out, "✓ Wrote %s\n", orgPath)
				return nil
			}
			printRun(out, run, results, failures)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "most recent runs to list (0 = all)")
	cmd.Flags().StringVar(&orgPath, "org", "", "write the run as an Org-mode file instead of printing it")
	return cmd
}

func printRuns(w io.Writer, runs []journal.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-26s  %-16s  %-9s  %5s  %5s  %6s  %s\n",
		"run_id", "created", "windows", "split", "ok", "failed", "dataset")
	for _, r := range runs {
		fmt.Fprintf(w, "%-26s  %-16s  %-9s  %5.2f  %5d  %6d  %s\n",
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", r.ShortWindow, r.LongWindow),
			r.SplitFraction,
			r.Instruments,
			r.Failures,
			r.Dataset,
		)
	}
}

func printRun(w io.Writer, run journal.RunRecord, results []journal.ResultRecord, failures []journal.FailureRecord) {
	fmt.Fprintln(w, "==================================================================")
	fmt.Fprintf(w, " Run %s\n", run.RunID)
	fmt.Fprintln(w, "==================================================================")
	fmt.Fprintf(w, "Created:       %s\n", run.Created.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Dataset:       %s\n", run.Dataset)
	fmt.Fprintf(w, "Windows:       %d/%d\n", run.ShortWindow, run.LongWindow)
	fmt.Fprintf(w, "Split:         %.2f\n", run.SplitFraction)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %14s %6s %14s %6s %12s\n",
		"symbol", "training_gain", "legs", "testing_gain", "legs", "hold_test")
	fmt.Fprintln(w, "------------------------------------------------------------------")
	for _, r := range results {
		fmt.Fprintf(w, "%-10s %14.4f %6d %14.4f %6d %12.4f\n",
			r.Instrument, r.TrainingGain, r.TrainingLegs, r.TestingGain, r.TestingLegs, r.TestingBenchmark)
	}
	if len(failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures")
		fmt.Fprintln(w, "------------------------------------------------------------------")
		for _, f := range failures {
			if f.Segment != "" {
				fmt.Fprintf(w, "- %s (%s): %s\n", f.Instrument, f.Segment, f.Error)
				continue
			}
			fmt.Fprintf(w, "- %s: %s\n", f.Instrument, f.Error)
		}
	}
}
