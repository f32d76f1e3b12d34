// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceInputs is the documented reference scenario: 5 human RCTs, one
// meta-analysis, 3 other human studies, average sample size 60, last study
// 2 years old, unanimous support. It reports 9.5 and grade A.
func referenceInputs() Inputs {
	return Inputs{
		HumanRCTs:      5,
		MetaAnalyses:   1,
		HumanOther:     3,
		AvgSampleSize:  60,
		Supporting:     9,
		YearsSinceLast: 2,
		HasRecency:     true,
	}
}

func TestScoreGoldenReference(t *testing.T) {
	r, err := Score(referenceInputs())
	require.NoError(t, err)

	assert.InDelta(t, 9.5, r.Total, 0.05)
	assert.Less(t, r.Total, 9.5, "reference total sits just under the A+ boundary")
	assert.Equal(t, GradeA, r.Grade)
	assert.Empty(t, r.Adjustments)
}

func TestScoreDeterminism(t *testing.T) {
	in := referenceInputs()
	first, err := Score(in)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		again, err := Score(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQualityMonotonicInStrongEvidence(t *testing.T) {
	base := Inputs{HumanOther: 2, AnimalStudies: 3, Supporting: 2, HasRecency: true}

	prev := -1.0
	for rcts := 0; rcts <= 50; rcts++ {
		in := base
		in.HumanRCTs = rcts
		r, err := Score(in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.QualityRaw, prev, "adding RCTs must never lower quality (rcts=%d)", rcts)
		prev = r.QualityRaw
	}

	prev = -1.0
	for metas := 0; metas <= 50; metas++ {
		in := base
		in.MetaAnalyses = metas
		r, err := Score(in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.QualityRaw, prev, "adding meta-analyses must never lower quality (metas=%d)", metas)
		prev = r.QualityRaw
	}
}

func TestQuantityMonotonicAndSaturating(t *testing.T) {
	prev := -1.0
	for n := 0; n <= 100; n++ {
		r, err := Score(Inputs{HumanOther: n})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.QuantityRaw, prev)
		prev = r.QuantityRaw
	}

	five, err := Score(Inputs{HumanOther: 5})
	require.NoError(t, err)
	assert.Greater(t, five.QuantityRaw, 7.5, "five studies should reach ~80%% of the quantity ceiling")

	fifteen, err := Score(Inputs{HumanOther: 15})
	require.NoError(t, err)
	assert.Greater(t, fifteen.QuantityRaw, 9.9, "fifteen studies should approach the ceiling")
}

func TestBoundednessUnderExtremes(t *testing.T) {
	extremes := []Inputs{
		{},
		{HumanRCTs: 10000, MetaAnalyses: 10000, HumanOther: 10000, AnimalStudies: 10000, InVitro: 10000,
			AvgSampleSize: 1e9, Supporting: 50000, YearsSinceLast: 0, HasRecency: true, Replication: 3},
		{AnimalStudies: 10000},
		{InVitro: 10000, Contradicting: 10000, YearsSinceLast: 500, HasRecency: true},
		{HumanRCTs: 1, AvgSampleSize: 1, Supporting: 1, Replication: 1000},
	}

	for _, in := range extremes {
		r, err := Score(in)
		require.NoError(t, err)

		for name, raw := range map[string]float64{
			"quantity": r.QuantityRaw, "quality": r.QualityRaw,
			"consistency": r.ConsistencyRaw, "recency": r.RecencyRaw,
		} {
			assert.GreaterOrEqual(t, raw, 0.0, "%s for %+v", name, in)
			assert.LessOrEqual(t, raw, 10.0, "%s for %+v", name, in)
		}
		assert.GreaterOrEqual(t, r.Total, 0.0)
		assert.LessOrEqual(t, r.Total, 10.0)
	}
}

func TestSingleStudyNeverGradesB(t *testing.T) {
	r, err := Score(Inputs{
		HumanRCTs:      1,
		AvgSampleSize:  500,
		Supporting:     1,
		YearsSinceLast: 0,
		HasRecency:     true,
	})
	require.NoError(t, err)

	assert.Less(t, r.Total, 7.0, "one study is never strong evidence")
}

func TestSingleStudyCeilingBinds(t *testing.T) {
	// No reachable single-study composite exceeds the ceiling today, so
	// exercise the cap directly against an inflated raw score.
	r := Report{
		Inputs:   Inputs{HumanRCTs: 1, Supporting: 1, Replication: 3},
		RawScore: 9.0,
	}
	total := applyAdjustments(&r)

	assert.InDelta(t, singleStudyCeiling, total, 1e-9)
	var found bool
	for _, a := range r.Adjustments {
		if a.Name == "single_study" {
			found = true
			assert.Negative(t, a.Delta)
		}
	}
	assert.True(t, found, "ceiling must be recorded as an adjustment")
}

func TestNoEvidenceFloor(t *testing.T) {
	r, err := Score(Inputs{})
	require.NoError(t, err)

	assert.Less(t, r.Total, 3.0, "no evidence lands in the F band")
	assert.Equal(t, GradeF, r.Grade)
	assert.Empty(t, r.Adjustments)
	assert.Zero(t, r.QuantityRaw)
	assert.Zero(t, r.QualityRaw)
	assert.Zero(t, r.RecencyRaw, "undefined recency scores the floor")
	assert.Equal(t, neutralConsistency, r.ConsistencyRaw, "no directed studies is neutral, not certain")
}

func TestConsistencySharpDisagreement(t *testing.T) {
	split, err := Score(Inputs{
		HumanRCTs: 8, AvgSampleSize: 100,
		Supporting: 4, Contradicting: 4,
		YearsSinceLast: 1, HasRecency: true,
	})
	require.NoError(t, err)

	unanimous, err := Score(Inputs{
		HumanRCTs: 8, AvgSampleSize: 100,
		Supporting:     8,
		YearsSinceLast: 1, HasRecency: true,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, split.ConsistencyRaw, 5.0, "an even split must not exceed the midpoint")
	assert.Less(t, split.Total, unanimous.Total)
}

func TestConsistencyUnknownOnlyIsNeutral(t *testing.T) {
	r, err := Score(Inputs{HumanRCTs: 4})
	require.NoError(t, err)
	assert.Equal(t, neutralConsistency, r.ConsistencyRaw)
}

func TestNonHumanEvidenceCapsQuality(t *testing.T) {
	for _, in := range []Inputs{
		{AnimalStudies: 3},
		{AnimalStudies: 500, InVitro: 500},
		{InVitro: 10000},
	} {
		r, err := Score(in)
		require.NoError(t, err)
		assert.LessOrEqual(t, r.QualityRaw, nonHumanQualityCap, "inputs %+v", in)
	}

	// A single meta-analysis lifts the cap.
	r, err := Score(Inputs{AnimalStudies: 500, MetaAnalyses: 1})
	require.NoError(t, err)
	assert.Greater(t, r.QualityRaw, nonHumanQualityCap)
}

func TestRecencyDecay(t *testing.T) {
	score := func(years int) float64 {
		r, err := Score(Inputs{HumanRCTs: 3, YearsSinceLast: years, HasRecency: true})
		require.NoError(t, err)
		return r.RecencyRaw
	}

	assert.Equal(t, 10.0, score(0))
	assert.Equal(t, 10.0, score(2), "full credit up to two years")
	assert.Less(t, score(5), score(2))
	assert.Less(t, score(10), score(5))
	assert.Equal(t, recencyFloor, score(50), "stale evidence hits the floor, never zero")
}

func TestSmallSamplePenaltyRecorded(t *testing.T) {
	r, err := Score(Inputs{HumanRCTs: 3, AvgSampleSize: 20, Supporting: 3, YearsSinceLast: 1, HasRecency: true})
	require.NoError(t, err)

	require.Len(t, r.Adjustments, 1)
	assert.Equal(t, "small_samples", r.Adjustments[0].Name)
	assert.Equal(t, -smallSamplePenalty, r.Adjustments[0].Delta)
	assert.NotEmpty(t, r.Adjustments[0].Reason)
}

func TestReplicationBonusCapped(t *testing.T) {
	base, err := Score(referenceInputs())
	require.NoError(t, err)

	in := referenceInputs()
	in.Replication = 1000
	boosted, err := Score(in)
	require.NoError(t, err)

	require.Len(t, boosted.Adjustments, 1)
	assert.Equal(t, "replication", boosted.Adjustments[0].Name)
	assert.InDelta(t, replicationBonusStep*replicationMax, boosted.Adjustments[0].Delta, 1e-9)
	assert.LessOrEqual(t, boosted.Total-base.Total, 0.5, "replication alone must not move a score a full grade band")
}

func TestScoreRejectsNegativeCounts(t *testing.T) {
	bad := []Inputs{
		{HumanRCTs: -1},
		{MetaAnalyses: -3},
		{Supporting: -1},
		{AvgSampleSize: -10},
		{YearsSinceLast: -2, HasRecency: true},
		{Replication: -0.5},
	}
	for _, in := range bad {
		_, err := Score(in)
		require.Error(t, err, "inputs %+v", in)
		assert.True(t, errors.Is(err, ErrInvalidInput), "inputs %+v", in)
	}
}

func TestWeightedContributionsSumToRawScore(t *testing.T) {
	r, err := Score(referenceInputs())
	require.NoError(t, err)

	assert.InDelta(t, r.RawScore, r.Quantity+r.Quality+r.Consistency+r.Recency, 1e-12)
	assert.LessOrEqual(t, r.Quantity, weightQuantity*10)
	assert.LessOrEqual(t, r.Quality, weightQuality*10)
	assert.LessOrEqual(t, r.Consistency, weightConsistency*10)
	assert.LessOrEqual(t, r.Recency, weightRecency*10)
}
