// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestAggregateClassification(t *testing.T) {
	studies := []types.Study{
		{Type: types.StudyMetaAnalysis, IsHuman: true, SupportsClaim: types.SupportsYes},
		{Type: types.StudySystematicReview, IsHuman: false, SupportsClaim: types.SupportsYes}, // meta bucket regardless of human flag
		{Type: types.StudyRCT, IsHuman: true, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: false, SupportsClaim: types.SupportsYes}, // non-human RCT is not a human RCT
		{Type: types.StudyObservational, IsHuman: true, SupportsClaim: types.SupportsNo},
		{Type: types.StudyClinicalTrial, IsHuman: true, SupportsClaim: types.SupportsMixed},
		{Type: types.StudyAnimal, SupportsClaim: types.SupportsYes},
		{Type: types.StudyInVitro, SupportsClaim: types.SupportsUnknown},
	}

	in := Aggregate(studies, 2026)

	assert.Equal(t, 2, in.MetaAnalyses)
	assert.Equal(t, 1, in.HumanRCTs)
	assert.Equal(t, 2, in.HumanOther)
	assert.Equal(t, 1, in.AnimalStudies)
	assert.Equal(t, 1, in.InVitro)
	assert.Zero(t, in.SkippedRecords)

	// Direction: 5 yes, 1 no, 1 mixed; unknown excluded from the tally.
	assert.Equal(t, 5, in.Supporting)
	assert.Equal(t, 1, in.Contradicting)
	assert.Equal(t, 1, in.Mixed)
}

func TestAggregateSampleSizeAverage(t *testing.T) {
	studies := []types.Study{
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 100, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 50, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 0, SupportsClaim: types.SupportsYes}, // unknown, excluded
		{Type: types.StudyAnimal, SampleSize: 9999},                                            // non-human, excluded
	}

	in := Aggregate(studies, 2026)
	assert.InDelta(t, 75.0, in.AvgSampleSize, 1e-9)
}

func TestAggregateNoKnownSamples(t *testing.T) {
	in := Aggregate([]types.Study{
		{Type: types.StudyRCT, IsHuman: true},
		{Type: types.StudyAnimal},
	}, 2026)
	assert.Zero(t, in.AvgSampleSize, "unknown average is treated as zero for scoring")
}

func TestAggregateRecency(t *testing.T) {
	in := Aggregate([]types.Study{
		{Type: types.StudyRCT, IsHuman: true, Year: 2019},
		{Type: types.StudyRCT, IsHuman: true, Year: 2024},
		{Type: types.StudyObservational, IsHuman: true}, // undated
	}, 2026)

	require.True(t, in.HasRecency)
	assert.Equal(t, 2, in.YearsSinceLast)

	// A publication year ahead of the current year clamps to zero.
	ahead := Aggregate([]types.Study{
		{Type: types.StudyRCT, IsHuman: true, Year: 2027},
	}, 2026)
	assert.Equal(t, 0, ahead.YearsSinceLast)

	// No dated studies at all leaves recency undefined.
	undated := Aggregate([]types.Study{
		{Type: types.StudyRCT, IsHuman: true},
	}, 2026)
	assert.False(t, undated.HasRecency)
}

func TestAggregateSkipsMalformedRecords(t *testing.T) {
	studies := []types.Study{
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 40, SupportsClaim: types.SupportsYes},
		{Type: "telepathy", IsHuman: true, SupportsClaim: types.SupportsYes},               // unknown type
		{Type: types.StudyRCT, IsHuman: true, SampleSize: -5},                              // negative sample
		{Type: types.StudyObservational, IsHuman: true, SupportsClaim: types.Support("?")}, // unknown direction
	}

	in := Aggregate(studies, 2026)

	assert.Equal(t, 3, in.SkippedRecords)
	assert.Equal(t, 1, in.HumanRCTs)
	assert.Equal(t, 1, in.Supporting)
	assert.InDelta(t, 40.0, in.AvgSampleSize, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	in := Aggregate(nil, 2026)
	assert.Zero(t, in.TotalStudies())
	assert.False(t, in.HasRecency)

	r, err := Score(in)
	require.NoError(t, err)
	assert.Equal(t, GradeF, r.Grade)
}

func TestScoreStudiesMatchesTwoStepPath(t *testing.T) {
	studies := []types.Study{
		{Type: types.StudyMetaAnalysis, IsHuman: true, SampleSize: 200, Year: 2025, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 80, Year: 2024, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 60, Year: 2023, SupportsClaim: types.SupportsMixed},
	}

	direct, err := ScoreStudies(studies, 2026)
	require.NoError(t, err)

	twoStep, err := Score(Aggregate(studies, 2026))
	require.NoError(t, err)

	assert.Equal(t, twoStep, direct, "both call shapes must produce the identical report")
}

func TestAggregateSkippedRecordsFlowIntoReport(t *testing.T) {
	studies := []types.Study{
		{Type: types.StudyRCT, IsHuman: true, SampleSize: 40, SupportsClaim: types.SupportsYes},
		{Type: types.StudyRCT, IsHuman: true, SampleSize: -1},
	}

	r, err := ScoreStudies(studies, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, r.SkippedRecords)
}
