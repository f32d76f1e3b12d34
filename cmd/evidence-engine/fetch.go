// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/pubmed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <trend name>",
	Short: "Preview PubMed retrieval for a trend claim",
	Long: `Fetch runs the retrieval stage standalone: it builds the PubMed query
for a trend and claim, fetches matching studies, and prints what the scoring
stage would see (study type, human flag, sample size, relevance). Nothing is
written to the store.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("claim", "", "claim text used to build the search terms")
	fetchCmd.Flags().StringSlice("alias", nil, "trend alias (repeatable)")
	fetchCmd.Flags().Int("max-results", 20, "maximum number of studies to fetch")
	fetchCmd.Flags().Bool("no-relevance-filter", false, "disable the relevance filter")
	fetchCmd.Flags().Bool("json", false, "output studies as JSON")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a trend name, e.g. \"ashwagandha\"")
	}
	name := strings.Join(args, " ")

	claim, _ := cmd.Flags().GetString("claim")
	aliases, _ := cmd.Flags().GetStringSlice("alias")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	searcher := pubmed.NewSearcher(pubmedConfig(cmd))

	fmt.Fprintf(os.Stderr, "query: %s\n", pubmed.BuildQuery(name, aliases, claim))

	studies, removed, err := searcher.SearchClaim(context.Background(), name, aliases, claim)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(studies)
	}

	if len(studies) == 0 {
		fmt.Println("No studies found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-6s  %-17s  %-5s  %-6s  %-5s  %s\n",
		"PMID", "Year", "Type", "Human", "N", "Rel", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, s := range studies {
		title := s.Title
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		human := "no"
		if s.IsHuman {
			human = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-6d  %-17s  %-5s  %-6d  %-5.2f  %s\n",
			s.PubMedID, s.Year, s.Type, human, s.SampleSize, s.RelevanceScore, title)
	}

	fmt.Fprintf(os.Stdout, "\n%d studies (%d filtered out)\n", len(studies), removed)
	return nil
}
