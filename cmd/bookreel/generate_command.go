package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bookreel/internal/jobstore"
	"bookreel/internal/logging"
	"bookreel/internal/orchestrator"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var author string
	var language string
	var sequential bool
	var jsonOutput bool
	var showCosts bool

	cmd := &cobra.Command{
		Use:   "generate <title>",
		Short: "Generate a promotional video for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			engine, err := ctx.buildEngine(logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			req := orchestrator.Request{
				Title:    args[0],
				Author:   author,
				Language: language,
				Mode:     orchestrator.ModeParallel,
			}
			if sequential {
				req.Mode = orchestrator.ModeSequential
			}

			result, runErr := engine.Run(runCtx, req)

			if result.JobID != "" && !result.CacheHit {
				if err := persistJobRecord(runCtx, ctx, req, result, runErr); err != nil {
					logger.Warn("failed to persist job record", logging.Error(err))
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := printJSON(out, result); err != nil {
					return err
				}
				return runErr
			}

			printResult(out, result, runErr)
			if showCosts {
				fmt.Fprintln(out, result.CostReport.Render(shouldColorize(out)))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "Book author, used to disambiguate titles")
	cmd.Flags().StringVarP(&language, "language", "l", "en", "Subtitle and narration language")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Process scenes one at a time instead of concurrently")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full result as JSON")
	cmd.Flags().BoolVar(&showCosts, "costs", false, "Print the detailed cost breakdown")
	return cmd
}

// persistJobRecord stores the settled outcome. Cache hits are not persisted:
// the original run already recorded the job under the same job id.
func persistJobRecord(ctx context.Context, cmdCtx *commandContext, req orchestrator.Request, result orchestrator.Result, runErr error) error {
	store, err := cmdCtx.openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()

	mode := result.ModeUsed
	if mode == "" {
		mode = req.Mode
	}
	record := jobstore.Record{
		JobID:           result.JobID,
		Title:           result.Title,
		Author:          result.Author,
		Language:        req.Language,
		Mode:            string(mode),
		Status:          jobStatus(runErr),
		VideoLocator:    result.VideoLocator,
		SubtitleLocator: result.SubtitleLocator,
		OverallScore:    result.QCReport.OverallScore,
		TotalCost:       result.CostReport.TotalCost,
	}
	if runErr != nil {
		record.ErrorMessage = runErr.Error()
	}
	for _, scene := range result.Scenes {
		record.TotalRetries += scene.Retry.Retries()
		record.Scenes = append(record.Scenes, jobstore.SceneSummary{
			Number:    scene.Number,
			Role:      scene.Role,
			Status:    string(scene.Status),
			Retries:   scene.Retry.Retries(),
			LastError: scene.LastError,
		})
	}

	_, err = store.Insert(ctx, record)
	return err
}

func jobStatus(runErr error) jobstore.Status {
	switch {
	case runErr == nil:
		return jobstore.StatusSucceeded
	case errors.Is(runErr, orchestrator.ErrQualityRejected):
		return jobstore.StatusQualityRejected
	case errors.Is(runErr, orchestrator.ErrAssemblyFailed):
		return jobstore.StatusAssemblyFailed
	default:
		return jobstore.StatusGenerationFailed
	}
}

func printResult(out io.Writer, result orchestrator.Result, runErr error) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Generation Result", colorize) {
		fmt.Fprintln(out, line)
	}

	switch {
	case runErr != nil:
		fmt.Fprintln(out, renderStatusLine("Status", statusError, runErr.Error(), colorize))
	case result.CacheHit:
		fmt.Fprintln(out, renderStatusLine("Status", statusOK, "served from cache", colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Status", statusOK, "completed", colorize))
	}

	fmt.Fprintln(out, renderStatusLine("Job", statusInfo, result.JobID, colorize))
	if result.VideoLocator != "" {
		fmt.Fprintln(out, renderStatusLine("Video", statusInfo, result.VideoLocator, colorize))
	}
	if result.SubtitleLocator != "" {
		fmt.Fprintln(out, renderStatusLine("Subtitles", statusInfo, result.SubtitleLocator, colorize))
	}
	if result.QCReport.Status != "" {
		kind := statusOK
		if string(result.QCReport.Status) != "pass" {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Quality", kind,
			fmt.Sprintf("%s (score %.2f)", result.QCReport.Status, result.QCReport.OverallScore), colorize))
	}
	if result.RetryAdvised {
		fmt.Fprintln(out, renderStatusLine("Retry", statusWarn, result.RetryReason, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Cost", statusInfo,
		fmt.Sprintf("$%.4f", result.CostReport.TotalCost), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo,
		result.CostReport.Elapsed.Round(100*time.Millisecond).String(), colorize))

	if len(result.Scenes) == 0 {
		return
	}

	rows := make([][]string, 0, len(result.Scenes))
	for _, scene := range result.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(scene.Number),
			scene.Role,
			string(scene.Status),
			strconv.Itoa(scene.Retry.Retries()),
			scene.LastError,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Scene", "Role", "Status", "Retries", "Last Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
