// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/internal/batch"
	"github.com/pdiddy/evidence-engine/internal/pubmed"
	"github.com/pdiddy/evidence-engine/internal/store"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape, score, and persist evidence for the trend catalog",
	Long: `Batch runs the full pipeline: for every claim of every trend (or a
single trend with --trend) it searches PubMed, scores the retrieved evidence,
stores studies and scores, and rolls claim scores up to the trend.

Use --dry-run to preview scores without writing anything.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("trend", "", "process only the trend with this slug")
	batchCmd.Flags().Bool("dry-run", false, "score without writing to the store")
	batchCmd.Flags().Int("max-results", 0, "maximum studies per claim (default 50)")
	batchCmd.Flags().Bool("no-relevance-filter", false, "disable the relevance filter")
	batchCmd.Flags().Duration("claim-delay", 0, "pause between claims (default 1s)")
	batchCmd.Flags().Int("current-year", 0, "reference year for recency (default: wall clock)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	trendSlug, _ := cmd.Flags().GetString("trend")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	claimDelay, _ := cmd.Flags().GetDuration("claim-delay")
	currentYear, _ := cmd.Flags().GetInt("current-year")

	if claimDelay == 0 {
		claimDelay = viper.GetDuration("batch.claim_delay")
	}
	if claimDelay == 0 {
		claimDelay = time.Second
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := types.PipelineConfig{
		PubMed:  pubmedConfig(cmd),
		Scoring: types.ScoringConfig{CurrentYear: currentYear},
		Batch: types.BatchConfig{
			ClaimDelay: claimDelay,
			DryRun:     dryRun,
		},
	}

	p := batch.New(s, pubmed.NewSearcher(cfg.PubMed), cfg, os.Stdout)

	summary, err := p.Run(context.Background(), trendSlug)
	if err != nil {
		return err
	}
	if summary.ClaimsFailed > 0 {
		return fmt.Errorf("%d claim(s) failed", summary.ClaimsFailed)
	}

	if !dryRun {
		if err := s.ExportYAML(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: export.yaml write failed: %v\n", err)
		}
	}
	return nil
}
