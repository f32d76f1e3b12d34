// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Aggregate reduces study records to scoring inputs for one claim.
//
// Classification: a study counts as a human RCT only when it is an RCT on
// humans; meta-analyses and systematic reviews count regardless of the human
// flag (they already aggregate human evidence); any other human study counts
// as human-other; animal and in-vitro studies count by type. Individually
// malformed records (unrecognized type or support value, negative sample
// size) are skipped and tallied in Inputs.SkippedRecords rather than failing
// the call.
//
// currentYear anchors the recency signal; pass 0 to use the wall-clock year.
func Aggregate(studies []types.Study, currentYear int) Inputs {
	if currentYear <= 0 {
		currentYear = time.Now().UTC().Year()
	}

	var in Inputs
	var sampleSum, sampleN float64
	mostRecent := 0

	for _, s := range studies {
		if !types.KnownStudyType(s.Type) || !types.KnownSupport(s.SupportsClaim) || s.SampleSize < 0 {
			in.SkippedRecords++
			continue
		}

		switch {
		case s.Type == types.StudyMetaAnalysis || s.Type == types.StudySystematicReview:
			in.MetaAnalyses++
		case s.Type == types.StudyRCT && s.IsHuman:
			in.HumanRCTs++
		case s.IsHuman:
			in.HumanOther++
		case s.Type == types.StudyAnimal:
			in.AnimalStudies++
		case s.Type == types.StudyInVitro:
			in.InVitro++
		}

		if s.IsHuman && s.SampleSize > 0 {
			sampleSum += float64(s.SampleSize)
			sampleN++
		}

		if s.Year > 0 && s.Year > mostRecent {
			mostRecent = s.Year
		}

		switch s.SupportsClaim {
		case types.SupportsYes:
			in.Supporting++
		case types.SupportsNo:
			in.Contradicting++
		case types.SupportsMixed:
			in.Mixed++
		}
	}

	if sampleN > 0 {
		in.AvgSampleSize = sampleSum / sampleN
	}

	if mostRecent > 0 {
		years := currentYear - mostRecent
		if years < 0 {
			years = 0
		}
		in.YearsSinceLast = years
		in.HasRecency = true
	}

	return in
}

// ScoreStudies aggregates study records and scores them in one call.
func ScoreStudies(studies []types.Study, currentYear int) (Report, error) {
	return Score(Aggregate(studies, currentYear))
}
