// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs the scrape-score-persist pipeline across the trend
// catalog: for each claim it retrieves studies, scores the evidence, and
// writes the results back to the store.
package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/evidence-engine/internal/scoring"
	"github.com/pdiddy/evidence-engine/internal/store"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const defaultClaimDelay = time.Second

// Fetcher retrieves studies for one claim. *pubmed.Searcher implements it;
// tests substitute a fake.
type Fetcher interface {
	SearchClaim(ctx context.Context, name string, aliases []string, claim string) (studies []types.Study, removed int, err error)
}

// Pipeline wires retrieval, scoring, and persistence together.
type Pipeline struct {
	Store   *store.Store
	Fetcher Fetcher
	Scoring types.ScoringConfig
	Batch   types.BatchConfig

	out io.Writer
}

// New builds a pipeline that reports progress to out.
func New(s *store.Store, f Fetcher, cfg types.PipelineConfig, out io.Writer) *Pipeline {
	batch := cfg.Batch
	if batch.ClaimDelay <= 0 {
		batch.ClaimDelay = defaultClaimDelay
	}
	return &Pipeline{
		Store:   s,
		Fetcher: f,
		Scoring: cfg.Scoring,
		Batch:   batch,
		out:     out,
	}
}

// Summary holds counts from a pipeline run.
type Summary struct {
	Trends          int
	ClaimsScored    int
	ClaimsSkipped   int
	ClaimsFailed    int
	StudiesSaved    int
	StudiesFiltered int
}

// Run processes every trend, or just the one named by trendSlug when it is
// non-empty. Per-claim failures are reported and counted, not fatal; the
// run stops early only on context cancellation or a storage error.
func (p *Pipeline) Run(ctx context.Context, trendSlug string) (Summary, error) {
	var summary Summary

	trends, err := p.selectTrends(ctx, trendSlug)
	if err != nil {
		return summary, err
	}

	for _, trend := range trends {
		claims, err := p.Store.ClaimsForTrend(ctx, trend.ID)
		if err != nil {
			return summary, err
		}

		fmt.Fprintf(p.out, "%s (%d claims)\n", trend.Name, len(claims))
		summary.Trends++

		for i, claim := range claims {
			if i > 0 {
				if err := sleep(ctx, p.Batch.ClaimDelay); err != nil {
					return summary, err
				}
			}
			if err := p.processClaim(ctx, trend, claim, &summary); err != nil {
				return summary, err
			}
		}

		if !p.Batch.DryRun {
			if avg, grade, ok, err := p.Store.RollUpTrend(ctx, trend.ID); err != nil {
				return summary, err
			} else if ok {
				fmt.Fprintf(p.out, "  overall: %.1f/10 (%s)\n", avg, grade)
			}
		}
	}

	fmt.Fprintf(p.out, "\ntrends: %d, scored: %d, skipped: %d, failed: %d, studies: %d (filtered: %d)\n",
		summary.Trends, summary.ClaimsScored, summary.ClaimsSkipped,
		summary.ClaimsFailed, summary.StudiesSaved, summary.StudiesFiltered)
	return summary, nil
}

func (p *Pipeline) selectTrends(ctx context.Context, trendSlug string) ([]types.Trend, error) {
	if trendSlug == "" {
		return p.Store.Trends(ctx)
	}
	trend, err := p.Store.TrendBySlug(ctx, trendSlug)
	if err != nil {
		return nil, err
	}
	return []types.Trend{trend}, nil
}

// processClaim fetches, scores, and persists one claim. Retrieval and
// scoring failures are recorded on the summary; only storage errors and
// cancellation propagate.
func (p *Pipeline) processClaim(ctx context.Context, trend types.Trend, claim types.Claim, summary *Summary) error {
	fmt.Fprintf(p.out, "  claim: %s\n", claim.Text)

	studies, removed, err := p.Fetcher.SearchClaim(ctx, trend.Name, trend.Aliases, claim.Text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(p.out, "    failed: %v\n", err)
		summary.ClaimsFailed++
		return nil
	}
	summary.StudiesFiltered += removed

	fmt.Fprintf(p.out, "    found %d studies (%d filtered)\n", len(studies), removed)
	if len(studies) == 0 {
		summary.ClaimsSkipped++
		return nil
	}

	// Fetched studies default to supporting until a reviewer marks the
	// direction; PubMed metadata does not carry it.
	for i := range studies {
		if studies[i].SupportsClaim == types.SupportsUnknown || studies[i].SupportsClaim == "" {
			studies[i].SupportsClaim = types.SupportsYes
		}
	}

	report, err := scoring.ScoreStudies(studies, p.Scoring.CurrentYear)
	if err != nil {
		fmt.Fprintf(p.out, "    failed: %v\n", err)
		summary.ClaimsFailed++
		return nil
	}

	fmt.Fprintf(p.out, "    score: %.1f/10 (%s), rcts: %d, meta: %d\n",
		report.Total, report.Grade, report.Inputs.HumanRCTs, report.Inputs.MetaAnalyses)

	if p.Batch.DryRun {
		fmt.Fprintf(p.out, "    dry run, not saving\n")
		summary.ClaimsScored++
		return nil
	}

	for _, study := range studies {
		studyID, err := p.Store.UpsertStudy(ctx, study)
		if err != nil {
			return err
		}
		if err := p.Store.LinkStudyToClaim(ctx, claim.ID, studyID, study.SupportsClaim, study.RelevanceScore); err != nil {
			return err
		}
		summary.StudiesSaved++
	}

	if err := p.Store.UpdateClaimScore(ctx, claim.ID, report, SummaryText(report)); err != nil {
		return err
	}
	summary.ClaimsScored++
	return nil
}

// SummaryText renders the one-line evidence summary stored on a claim,
// e.g. "Strong evidence from 1 meta-analysis and 5 RCTs."
func SummaryText(r scoring.Report) string {
	var parts []string
	if n := r.Inputs.MetaAnalyses; n == 1 {
		parts = append(parts, "1 meta-analysis")
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("%d meta-analyses", n))
	}
	if n := r.Inputs.HumanRCTs; n == 1 {
		parts = append(parts, "1 RCT")
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("%d RCTs", n))
	}

	var strength string
	switch {
	case r.Total >= 8:
		strength = "Strong evidence"
	case r.Total >= 6:
		strength = "Moderate evidence"
	case r.Total >= 4:
		strength = "Limited evidence"
	default:
		strength = "Weak evidence"
	}

	if len(parts) == 0 {
		return strength + ". Limited research available."
	}
	if len(parts) == 2 {
		return fmt.Sprintf("%s from %s and %s.", strength, parts[0], parts[1])
	}
	return fmt.Sprintf("%s from %s.", strength, parts[0])
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
