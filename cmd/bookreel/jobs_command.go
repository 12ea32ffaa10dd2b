package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"bookreel/internal/jobstore"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect past generation jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJobStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.JobID,
					record.Title,
					string(record.Status),
					fmt.Sprintf("%.2f", record.OverallScore),
					fmt.Sprintf("$%.4f", record.TotalCost),
					strconv.Itoa(record.TotalRetries),
					record.CreatedAt.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Title", "Status", "Score", "Cost", "Retries", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to list")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJobStore()
			if err != nil {
				return err
			}
			defer store.Close()

			record, found, err := store.GetByJobID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("job %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, record)
			}
			printJobRecord(out, record)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the record as JSON")
	return cmd
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all job records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJobStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job records\n", removed)
			return nil
		},
	}
}

func printJobRecord(out io.Writer, record jobstore.Record) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Job "+record.JobID, colorize) {
		fmt.Fprintln(out, line)
	}

	statusLine := statusOK
	if record.Status != jobstore.StatusSucceeded && record.Status != jobstore.StatusCacheHit {
		statusLine = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Status", statusLine, string(record.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, record.Title, colorize))
	if record.Author != "" {
		fmt.Fprintln(out, renderStatusLine("Author", statusInfo, record.Author, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, record.Mode, colorize))
	if record.VideoLocator != "" {
		fmt.Fprintln(out, renderStatusLine("Video", statusInfo, record.VideoLocator, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Score", statusInfo, fmt.Sprintf("%.2f", record.OverallScore), colorize))
	fmt.Fprintln(out, renderStatusLine("Cost", statusInfo, fmt.Sprintf("$%.4f", record.TotalCost), colorize))
	if record.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, record.ErrorMessage, colorize))
	}

	if len(record.Scenes) == 0 {
		return
	}
	rows := make([][]string, 0, len(record.Scenes))
	for _, scene := range record.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(scene.Number),
			scene.Role,
			scene.Status,
			strconv.Itoa(scene.Retries),
			scene.LastError,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scene", "Role", "Status", "Retries", "Last Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
