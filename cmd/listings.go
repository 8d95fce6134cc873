package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
	"github.com/JakeFAU/firm-intel-crawler/internal/listings"
)

func newListingsCmd() *cobra.Command {
	var (
		company string
		siteURL string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Search UK job boards for a firm's open roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.TrimSpace(company)
			if name == "" {
				name = crawler.CompanyNameFromURL(siteURL)
			}
			if name == "" {
				return fmt.Errorf("could not derive a company name from %q", siteURL)
			}
			found := listings.SearchAll(cmd.Context(), a.Searchers(), name, a.Logger())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(found)
			}
			printListings(cmd.OutOrStdout(), name, found)
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name to search for")
	cmd.Flags().StringVar(&siteURL, "url", "", "company website; the name is derived from the host")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print listings as JSON")
	cmd.MarkFlagsOneRequired("company", "url")
	cmd.MarkFlagsMutuallyExclusive("company", "url")
	return cmd
}

func printListings(w io.Writer, company string, found []crawler.Listing) {
	if len(found) == 0 {
		fmt.Fprintln(w, color.YellowString("No listings found for %s.", company))
		return
	}
	fmt.Fprintln(w, color.New(color.Bold).Sprintf("%d listings for %s", len(found), company))
	for _, l := range found {
		fmt.Fprintf(w, "- %s %s %s\n", color.GreenString(l.Title), l.Company, color.CyanString("[%s, %s]", l.Location, l.Board))
		if l.URL != "" {
			fmt.Fprintf(w, "  %s\n", color.BlueString(l.URL))
		}
	}
}
