// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/scoring"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dataDir := t.TempDir()

	s, err := NewStore(types.StoreConfig{DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	s.now = func() time.Time {
		return time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	}
	return s, dataDir
}

func seedTrend(t *testing.T, s *Store) (trendID, claimID int64) {
	t.Helper()
	ctx := context.Background()

	trendID, err := s.UpsertTrend(ctx, types.Trend{
		Name:        "Ashwagandha",
		Slug:        "ashwagandha",
		Category:    "Supplements",
		Description: "Adaptogenic herb used for stress and sleep.",
		Aliases:     []string{"withania somnifera"},
		Published:   true,
	})
	require.NoError(t, err)

	claimID, err = s.UpsertClaim(ctx, types.Claim{
		TrendID: trendID,
		Text:    "Reduces cortisol levels",
		Slug:    "reduces-cortisol",
		Primary: true,
	})
	require.NoError(t, err)

	return trendID, claimID
}

func TestUpsertTrendIsIdempotent(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	id1, _ := seedTrend(t, s)

	id2, err := s.UpsertTrend(ctx, types.Trend{
		Name:     "Ashwagandha (KSM-66)",
		Slug:     "ashwagandha",
		Category: "Supplements",
	})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "same slug resolves to the same row")

	trend, err := s.TrendBySlug(ctx, "ashwagandha")
	require.NoError(t, err)
	assert.Equal(t, "Ashwagandha (KSM-66)", trend.Name)
	assert.Equal(t, "Supplements", trend.Category)
}

func TestTrendBySlugMissing(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.TrendBySlug(context.Background(), "no-such-trend")
	assert.Error(t, err)
}

func TestUpsertClaimKeyedByTrendAndSlug(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	trendID, claimID := seedTrend(t, s)

	// Re-seeding carries the full claim record, flag included.
	again, err := s.UpsertClaim(ctx, types.Claim{
		TrendID: trendID,
		Text:    "Reduces cortisol",
		Slug:    "reduces-cortisol",
		Primary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, claimID, again)

	other, err := s.UpsertClaim(ctx, types.Claim{
		TrendID: trendID,
		Text:    "Improves sleep quality",
		Slug:    "improves-sleep",
	})
	require.NoError(t, err)
	assert.NotEqual(t, claimID, other)

	claims, err := s.ClaimsForTrend(ctx, trendID)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.True(t, claims[0].Primary, "primary claim sorts first")
	assert.Equal(t, "Reduces cortisol", claims[0].Text)
}

func TestStudyLinkRoundTrip(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	_, claimID := seedTrend(t, s)

	studyID, err := s.UpsertStudy(ctx, types.Study{
		PubMedID:   "36528363",
		DOI:        "10.1210/clinem/example",
		Title:      "Ashwagandha and cortisol: an RCT",
		Authors:    []string{"Anita Sharma", "Lee"},
		Journal:    "Test Journal",
		Date:       time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC),
		Year:       2023,
		Type:       types.StudyRCT,
		IsHuman:    true,
		SampleSize: 120,
		MeshTerms:  []string{"Humans"},
	})
	require.NoError(t, err)

	require.NoError(t, s.LinkStudyToClaim(ctx, claimID, studyID, types.SupportsYes, 0.8))
	// Re-linking updates the direction rather than failing.
	require.NoError(t, s.LinkStudyToClaim(ctx, claimID, studyID, types.SupportsMixed, 0.8))

	studies, err := s.StudiesForClaim(ctx, claimID)
	require.NoError(t, err)
	require.Len(t, studies, 1)

	got := studies[0]
	assert.Equal(t, "36528363", got.PubMedID)
	assert.Equal(t, types.StudyRCT, got.Type)
	assert.True(t, got.IsHuman)
	assert.Equal(t, 120, got.SampleSize)
	assert.Equal(t, 2023, got.Year)
	assert.Equal(t, []string{"Anita Sharma", "Lee"}, got.Authors)
	assert.Equal(t, types.SupportsMixed, got.SupportsClaim)
	assert.InDelta(t, 0.8, got.RelevanceScore, 1e-9)
}

func TestUpdateClaimScoreAndRollUp(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	trendID, claimID := seedTrend(t, s)

	report, err := scoring.Score(scoring.Inputs{
		HumanRCTs:      5,
		MetaAnalyses:   1,
		HumanOther:     3,
		AvgSampleSize:  60,
		Supporting:     9,
		YearsSinceLast: 2,
		HasRecency:     true,
	})
	require.NoError(t, err)

	summary := "Strong evidence from 1 meta-analysis and 5 RCTs."
	require.NoError(t, s.UpdateClaimScore(ctx, claimID, report, summary))

	claims, err := s.ClaimsForTrend(ctx, trendID)
	require.NoError(t, err)
	require.Len(t, claims, 1)

	c := claims[0]
	assert.InDelta(t, report.Total, c.Score, 1e-9)
	assert.Equal(t, string(report.Grade), c.Grade)
	assert.Equal(t, summary, c.Summary)
	assert.Equal(t, 5, c.HumanRCTs)
	assert.Equal(t, 1, c.MetaAnalyses)
	assert.Equal(t, 3, c.HumanOther)
	assert.Equal(t, 0, c.AnimalStudies)
	assert.Equal(t, types.ConfidenceAuto, c.Confidence)

	avg, grade, ok, err := s.RollUpTrend(ctx, trendID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, report.Total, avg, 1e-9)
	assert.Equal(t, report.Grade, grade)

	trend, err := s.TrendBySlug(ctx, "ashwagandha")
	require.NoError(t, err)
	assert.InDelta(t, report.Total, trend.OverallScore, 1e-9)
	assert.Equal(t, string(report.Grade), trend.Grade)
	assert.Equal(t, types.ConfidenceAuto, trend.Confidence)
}

func TestUpdateClaimScoreUnknownClaim(t *testing.T) {
	s, _ := testStore(t)
	err := s.UpdateClaimScore(context.Background(), 9999, scoring.Report{}, "")
	assert.Error(t, err)
}

func TestRollUpTrendAveragesClaims(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	trendID, claimA := seedTrend(t, s)
	claimB, err := s.UpsertClaim(ctx, types.Claim{
		TrendID: trendID, Text: "Improves sleep quality", Slug: "improves-sleep",
	})
	require.NoError(t, err)

	// Write two fixed scores directly through the report path.
	require.NoError(t, s.UpdateClaimScore(ctx, claimA,
		scoring.Report{Total: 8.0, Grade: scoring.GradeBPlus}, "a"))
	require.NoError(t, s.UpdateClaimScore(ctx, claimB,
		scoring.Report{Total: 4.0, Grade: scoring.GradeC}, "b"))

	avg, grade, ok, err := s.RollUpTrend(ctx, trendID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 6.0, avg, 1e-9)
	assert.Equal(t, scoring.GradeBMinus, grade)
}

func TestRollUpTrendNoScoredClaims(t *testing.T) {
	s, _ := testStore(t)
	trendID, _ := seedTrend(t, s)

	_, _, ok, err := s.RollUpTrend(context.Background(), trendID)
	require.NoError(t, err)
	assert.False(t, ok)

	trend, err := s.TrendBySlug(context.Background(), "ashwagandha")
	require.NoError(t, err)
	assert.Empty(t, trend.Grade)
}

func TestSearchTrends(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	seedTrend(t, s)
	_, err := s.UpsertTrend(ctx, types.Trend{
		Name: "Cold Plunge", Slug: "cold-plunge", Category: "Protocols",
		Description: "Cold water immersion for recovery.",
	})
	require.NoError(t, err)

	byAlias, err := s.SearchTrends(ctx, "somnifera")
	require.NoError(t, err)
	require.Len(t, byAlias, 1)
	assert.Equal(t, "ashwagandha", byAlias[0].Slug)

	byDescription, err := s.SearchTrends(ctx, "immersion")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "cold-plunge", byDescription[0].Slug)
}

func TestSearchTrendsSubstringFallback(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	seedTrend(t, s)

	// Force the substring path regardless of how the test binary was built.
	s.ftsEnabled = false

	byAlias, err := s.SearchTrends(ctx, "somnifera")
	require.NoError(t, err)
	require.Len(t, byAlias, 1)
	assert.Equal(t, "ashwagandha", byAlias[0].Slug)

	none, err := s.SearchTrends(ctx, "nootropic")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStats(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	_, claimID := seedTrend(t, s)
	studyID, err := s.UpsertStudy(ctx, types.Study{PubMedID: "111", Title: "t"})
	require.NoError(t, err)
	require.NoError(t, s.LinkStudyToClaim(ctx, claimID, studyID, types.SupportsYes, 1))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Trends: 1, Claims: 1, ScoredClaims: 0, Studies: 1, Links: 1}, stats)
}

func TestExportYAML(t *testing.T) {
	s, dataDir := testStore(t)
	ctx := context.Background()

	_, claimID := seedTrend(t, s)
	require.NoError(t, s.UpdateClaimScore(ctx, claimID,
		scoring.Report{Total: 7.2, Grade: scoring.GradeB}, "Moderate evidence."))

	require.NoError(t, s.ExportYAML(ctx))

	data, err := os.ReadFile(filepath.Join(dataDir, "export.yaml"))
	require.NoError(t, err)

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ashwagandha", entries[0].Slug)
	require.Len(t, entries[0].Claims, 1)
	assert.InDelta(t, 7.2, entries[0].Claims[0].Score, 1e-9)
	assert.Equal(t, "B", entries[0].Claims[0].Grade)
}
