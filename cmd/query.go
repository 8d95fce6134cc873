package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

func newQueryCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Find the stored firms most similar to a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			store, err := a.VectorStore(cmd.Context())
			if err != nil {
				return err
			}
			matches, err := store.Query(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			printMatches(cmd.OutOrStdout(), matches)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 5, "number of matches to return")
	return cmd
}

func printMatches(w io.Writer, matches []crawler.FirmMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, color.YellowString("No matches."))
		return
	}
	for i, m := range matches {
		r := m.Record
		fmt.Fprintf(w, "%d. %s %s\n", i+1, color.New(color.Bold).Sprint(r.FirmName),
			color.CyanString("(%.3f)", m.Similarity))
		if r.FirmTone != "" {
			fmt.Fprintf(w, "   tone: %s\n", r.FirmTone)
		}
		if len(r.SectorFocus) > 0 {
			fmt.Fprintf(w, "   sectors: %s\n", strings.Join(r.SectorFocus, ", "))
		}
		if r.SourceURL != "" {
			fmt.Fprintf(w, "   %s\n", color.BlueString(r.SourceURL))
		}
	}
}
