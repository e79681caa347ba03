package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect the job status store",
}

var jobGetCmd = &cobra.Command{
	Use:   "get [job-id]",
	Short: "Print the status record of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobGet,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all job status records",
	RunE:  runJobList,
}

var jobDeleteCmd = &cobra.Command{
	Use:   "delete [job-id]",
	Short: "Delete the status record of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobDelete,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobGetCmd, jobListCmd, jobDeleteCmd)

	jobListCmd.Flags().Bool("json", false, "Output as JSON")
}

// withTracker opens the configured store for one command.
func withTracker(fn func(ctx context.Context, t *jobstatus.Tracker) error) error {
	ctx, cancel := commandContext()
	defer cancel()

	tracker, closeTracker, err := openTracker(ctx, config.Load())
	if err != nil {
		return err
	}
	defer closeTracker()
	return fn(ctx, tracker)
}

func runJobGet(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *jobstatus.Tracker) error {
		status, err := t.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if status == nil {
			return fmt.Errorf("job %s not found", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), status)
	})
}

func runJobList(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *jobstatus.Tracker) error {
		jobs, err := t.List(ctx)
		if err != nil {
			return err
		}
		if mustGetBool(cmd, "json") {
			return writeJSON(cmd.OutOrStdout(), jobs)
		}

		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tTYPE\tSTATUS\tPROGRESS\tUPDATED\tMESSAGE")
		fmt.Fprintln(w, "---\t----\t------\t--------\t-------\t-------")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d (%d%%)\t%s\t%s\n",
				j.JobID, j.JobType, j.Status, j.ProcessedItems, j.TotalItems, j.Progress,
				j.Timestamp.Local().Format(time.DateTime), j.Message)
		}
		return w.Flush()
	})
}

func runJobDelete(cmd *cobra.Command, args []string) error {
	return withTracker(func(ctx context.Context, t *jobstatus.Tracker) error {
		deleted, err := t.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("job %s not found", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
		return nil
	})
}
