package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show checkpoint progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			store, err := a.Checkpoint(cmd.Context())
			if err != nil {
				return err
			}
			state := store.Load(cmd.Context())
			if state.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("No checkpoint in progress."))
				return nil
			}
			printStatus(cmd.OutOrStdout(), state.Summarize(), a.Config().Run.Budget(), time.Now())
			return nil
		},
	}
}

func printStatus(w io.Writer, s checkpoint.Summary, budget time.Duration, now time.Time) {
	if s.Total == 0 {
		fmt.Fprintln(w, color.YellowString("No checkpoint in progress."))
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d\n", bold("Total:    "), s.Total)
	fmt.Fprintf(w, "%s %s\n", bold("Processed:"), color.GreenString("%d", s.Processed))
	fmt.Fprintf(w, "%s %s\n", bold("Failed:   "), color.RedString("%d", s.Failed))
	fmt.Fprintf(w, "%s %d\n", bold("Remaining:"), s.Remaining)

	if s.StartTime != nil {
		deadline := s.StartTime.Add(budget)
		left := deadline.Sub(now).Truncate(time.Second)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(w, "%s %s (budget ends %s, %s left)\n", bold("Window:   "),
			s.StartTime.Format(time.RFC3339), deadline.Format(time.RFC3339), left)
	}

	if len(s.Failures) > 0 {
		fmt.Fprintln(w, bold("Failures:"))
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  %s %s\n", f.Target, color.RedString(f.Reason))
		}
	}
}
