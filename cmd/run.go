package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/api"
	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
	"github.com/JakeFAU/firm-intel-crawler/internal/id/uuid"
	"github.com/JakeFAU/firm-intel-crawler/internal/orchestrator"
)

func newRunCmd() *cobra.Command {
	var showProgress bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl the remaining targets until done or the time budget is spent",
		Long: `Loads the target list, merges it with the checkpoint and processes every
target not yet processed. The run stops when the budget is spent, when every
target has been attempted, or at the next target boundary after Ctrl-C.
Rerun the command to resume.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), showProgress, cmd.ErrOrStderr(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a terminal progress bar")
	return cmd
}

func runCrawl(ctx context.Context, showProgress bool, progressOut, out io.Writer) error {
	a, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	cfg := a.Config()
	runID := uuid.RunID(uuid.New())
	logger := a.Logger().With(zap.String("run_id", runID))

	tracker := orchestrator.NewTracker(runID)
	observers := orchestrator.Observers{tracker}
	if showProgress || cfg.Run.Progress {
		observers = append(observers, newProgressObserver(progressOut))
	}

	orch, err := a.Orchestrator(ctx, observers)
	if err != nil {
		return err
	}

	if cfg.Server.Enabled {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := api.NewServer(tracker, nil, logger)
		go func() {
			if err := srv.ListenAndServe(srvCtx, cfg.Server.Port); err != nil {
				logger.Error("api server stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("run starting", zap.Duration("budget", cfg.Run.Budget()))
	report := orch.Run(ctx)
	printReport(out, report)
	return nil
}

func printReport(w io.Writer, r orchestrator.Report) {
	outcome := color.GreenString(string(r.Outcome))
	switch r.Outcome {
	case orchestrator.PhaseTimedOut:
		outcome = color.YellowString(string(r.Outcome))
	case orchestrator.PhaseInterrupted:
		outcome = color.RedString(string(r.Outcome))
	}
	fmt.Fprintf(w, "%s attempted=%d succeeded=%d failed=%d remaining=%d\n",
		outcome, r.Attempted, r.Succeeded, r.Failed, r.Remaining)
	if r.Outcome != orchestrator.PhaseCompleted && r.Remaining > 0 {
		fmt.Fprintln(w, color.CyanString("Run again to resume."))
	}
}

// progressObserver draws a progress bar over the targets of one run.
type progressObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer) *progressObserver {
	if w == nil {
		w = os.Stderr
	}
	return &progressObserver{w: w}
}

func (p *progressObserver) PhaseChanged(phase orchestrator.Phase, summary checkpoint.Summary) {
	switch phase {
	case orchestrator.PhaseRunning:
		p.bar = progressbar.NewOptions(summary.Remaining,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription(color.BlueString("Crawling firms")),
			progressbar.OptionSetItsString("targets"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetRenderBlankState(true),
		)
	case orchestrator.PhaseCompleted, orchestrator.PhaseTimedOut, orchestrator.PhaseInterrupted:
		if p.bar != nil {
			_ = p.bar.Finish()
			fmt.Fprintln(p.w)
		}
	}
}

func (p *progressObserver) TargetFinished(result orchestrator.TargetResult, _ checkpoint.Summary) {
	if p.bar == nil {
		return
	}
	desc := color.GreenString(result.Target)
	if result.Status != orchestrator.StatusProcessed {
		desc = color.RedString(result.Target)
	}
	p.bar.Describe(desc)
	_ = p.bar.Add(1)
}
