// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring turns study counts and attributes into a 0-10 evidence
// score with a letter grade and a component-by-component breakdown.
//
// The engine is a pure function family: equal inputs always produce the
// identical report, calls share no state, and every bonus or penalty that
// touches the score is recorded in the report rather than applied silently.
// Scoring is intentionally conservative: weak evidence types cannot dominate,
// and one study is never "strong evidence".
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput reports malformed or out-of-domain counts. Callers can
// match it with errors.Is.
var ErrInvalidInput = errors.New("invalid scoring input")

// Component weights. They sum to 1.0; each component contributes at most
// weight*10 points to the composite.
const (
	weightQuantity    = 0.25
	weightQuality     = 0.40
	weightConsistency = 0.20
	weightRecency     = 0.15
)

// Relative strength multipliers per study type, strongest to weakest.
const (
	typeWeightMeta       = 5.0
	typeWeightRCT        = 3.0
	typeWeightHumanOther = 2.0
	typeWeightAnimal     = 1.0
	typeWeightInVitro    = 0.5
)

// Curve and adjustment constants. Tuned so that ~5 studies reach ~80% of the
// quantity ceiling and the documented reference scenario (5 RCTs, 1 meta,
// 3 other human studies, n̄=60, last study 2 years old) reports 9.5 / A.
const (
	// quantitySaturation shapes 10*(1-e^(-n/k)) over the total study count.
	quantitySaturation = 3.1

	// qualitySaturation shapes the same curve over the type-weighted count.
	qualitySaturation = 11.3

	// nonHumanQualityCap bounds the quality component when the evidence is
	// animal/in-vitro only, regardless of how many such studies exist.
	nonHumanQualityCap = 4.0

	// neutralConsistency is used when no study has a known direction.
	neutralConsistency = 5.0

	// contradictionPenalty is subtracted per hard "no" result, capped.
	contradictionPenalty    = 0.5
	contradictionPenaltyCap = 3.0

	// recencyFullYears gets full credit; beyond it the score decays with
	// time constant recencyTau toward recencyFloor. Only "no evidence at
	// all" scores zero recency.
	recencyFullYears = 2
	recencyTau       = 5.0
	recencyFloor     = 2.0

	// minCredibleSample is the average-human-sample threshold below which
	// the small-sample penalty applies.
	minCredibleSample  = 30.0
	smallSamplePenalty = 1.0

	// singleStudyCeiling caps the final score when only one qualifying
	// study exists, keeping it below the grade-B threshold (7.0).
	singleStudyCeiling = 6.9

	// replicationBonusStep is added per point of upstream replication
	// strength (0-3); the maximum bonus stays below one grade band.
	replicationBonusStep = 0.15
	replicationMax       = 3.0
)

// Inputs are the five scoring signals plus the optional replication signal.
// They are produced by Aggregate or supplied directly as pre-tallied counts;
// the engine does not care which path produced them.
type Inputs struct {
	// Study counts by classification.
	HumanRCTs     int `json:"human_rcts" yaml:"human_rcts"`
	MetaAnalyses  int `json:"meta_analyses" yaml:"meta_analyses"`
	HumanOther    int `json:"human_other" yaml:"human_other"`
	AnimalStudies int `json:"animal_studies" yaml:"animal_studies"`
	InVitro       int `json:"in_vitro" yaml:"in_vitro"`

	// AvgSampleSize is the mean sample size over human studies with a
	// known, positive sample size. Zero means unknown.
	AvgSampleSize float64 `json:"avg_sample_size" yaml:"avg_sample_size"`

	// Direction tallies. Supporting counts "yes" results, Contradicting
	// counts "no", Mixed counts "mixed". Unknown-direction studies appear
	// only in the type counts above.
	Supporting    int `json:"supporting" yaml:"supporting"`
	Contradicting int `json:"contradicting" yaml:"contradicting"`
	Mixed         int `json:"mixed" yaml:"mixed"`

	// YearsSinceLast is the age of the most recent dated study. It is only
	// meaningful when HasRecency is true; HasRecency false means no study
	// carried a usable date.
	YearsSinceLast int  `json:"years_since_last" yaml:"years_since_last"`
	HasRecency     bool `json:"has_recency" yaml:"has_recency"`

	// Replication is an optional upstream replication-strength signal on a
	// 0-3 scale. Values above 3 are clamped.
	Replication float64 `json:"replication,omitempty" yaml:"replication,omitempty"`

	// SkippedRecords counts individually malformed study records dropped
	// during aggregation. Carried into the report; not an error.
	SkippedRecords int `json:"skipped_records,omitempty" yaml:"skipped_records,omitempty"`
}

// TotalStudies returns the number of qualifying studies across all types.
func (in Inputs) TotalStudies() int {
	return in.HumanRCTs + in.MetaAnalyses + in.HumanOther + in.AnimalStudies + in.InVitro
}

// humanEvidence returns the count of human-grade evidence (meta-analyses
// aggregate human trials and count here too).
func (in Inputs) humanEvidence() int {
	return in.HumanRCTs + in.MetaAnalyses + in.HumanOther
}

// Validate checks that the inputs are in-domain.
func (in Inputs) Validate() error {
	counts := map[string]int{
		"human_rcts":      in.HumanRCTs,
		"meta_analyses":   in.MetaAnalyses,
		"human_other":     in.HumanOther,
		"animal_studies":  in.AnimalStudies,
		"in_vitro":        in.InVitro,
		"supporting":      in.Supporting,
		"contradicting":   in.Contradicting,
		"mixed":           in.Mixed,
		"skipped_records": in.SkippedRecords,
	}
	for _, name := range [...]string{
		"human_rcts", "meta_analyses", "human_other", "animal_studies",
		"in_vitro", "supporting", "contradicting", "mixed", "skipped_records",
	} {
		if counts[name] < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", ErrInvalidInput, name, counts[name])
		}
	}
	if in.AvgSampleSize < 0 {
		return fmt.Errorf("%w: avg_sample_size is negative (%g)", ErrInvalidInput, in.AvgSampleSize)
	}
	if in.HasRecency && in.YearsSinceLast < 0 {
		return fmt.Errorf("%w: years_since_last is negative (%d)", ErrInvalidInput, in.YearsSinceLast)
	}
	if in.Replication < 0 {
		return fmt.Errorf("%w: replication is negative (%g)", ErrInvalidInput, in.Replication)
	}
	return nil
}

// Adjustment is one named bonus or penalty applied after the base composite.
type Adjustment struct {
	Name   string  `json:"name" yaml:"name"`
	Delta  float64 `json:"delta" yaml:"delta"`
	Reason string  `json:"reason" yaml:"reason"`
}

// Report is the scoring output: the composite score, its grade, the four
// component contributions, and every adjustment that was applied.
type Report struct {
	Inputs Inputs `json:"inputs" yaml:"inputs"`

	// Raw component scores, each in [0,10], before weighting.
	QuantityRaw    float64 `json:"quantity_raw" yaml:"quantity_raw"`
	QualityRaw     float64 `json:"quality_raw" yaml:"quality_raw"`
	ConsistencyRaw float64 `json:"consistency_raw" yaml:"consistency_raw"`
	RecencyRaw     float64 `json:"recency_raw" yaml:"recency_raw"`

	// Weighted contributions, each in [0, weight*10].
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Quality     float64 `json:"quality" yaml:"quality"`
	Consistency float64 `json:"consistency" yaml:"consistency"`
	Recency     float64 `json:"recency" yaml:"recency"`

	// RawScore is the weighted composite before adjustments.
	RawScore float64 `json:"raw_score" yaml:"raw_score"`

	// Adjustments lists the bonuses and penalties applied, in order.
	Adjustments []Adjustment `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`

	// Total is the final score in [0,10]; Grade is its letter mapping.
	Total float64 `json:"total" yaml:"total"`
	Grade Grade   `json:"grade" yaml:"grade"`

	// SkippedRecords mirrors Inputs.SkippedRecords for callers that only
	// keep the report.
	SkippedRecords int `json:"skipped_records,omitempty" yaml:"skipped_records,omitempty"`
}

// Score maps inputs to a report. It is deterministic and side-effect free.
func Score(in Inputs) (Report, error) {
	if err := in.Validate(); err != nil {
		return Report{}, err
	}

	r := Report{Inputs: in, SkippedRecords: in.SkippedRecords}

	r.QuantityRaw = scoreQuantity(in)
	r.QualityRaw = scoreQuality(in)
	r.ConsistencyRaw = scoreConsistency(in)
	r.RecencyRaw = scoreRecency(in)

	r.Quantity = r.QuantityRaw * weightQuantity
	r.Quality = r.QualityRaw * weightQuality
	r.Consistency = r.ConsistencyRaw * weightConsistency
	r.Recency = r.RecencyRaw * weightRecency

	r.RawScore = r.Quantity + r.Quality + r.Consistency + r.Recency

	r.Total = applyAdjustments(&r)
	r.Total = clamp(r.Total, 0, 10)
	r.Grade = GradeForScore(r.Total)

	return r, nil
}

// scoreQuantity applies a diminishing-returns curve over the total study
// count: steep for the first few studies, flat past ~15.
func scoreQuantity(in Inputs) float64 {
	return saturate(float64(in.TotalStudies()), quantitySaturation)
}

// scoreQuality weights studies by type strength and saturates the weighted
// count so a pile of weak studies cannot out-score a few strong ones.
func scoreQuality(in Inputs) float64 {
	weighted := typeWeightMeta*float64(in.MetaAnalyses) +
		typeWeightRCT*float64(in.HumanRCTs) +
		typeWeightHumanOther*float64(in.HumanOther) +
		typeWeightAnimal*float64(in.AnimalStudies) +
		typeWeightInVitro*float64(in.InVitro)

	score := saturate(weighted, qualitySaturation)

	// Animal/in-vitro-only evidence caps below the midpoint no matter how
	// many such studies exist.
	if in.humanEvidence() == 0 {
		score = math.Min(score, nonHumanQualityCap)
	}
	return score
}

// scoreConsistency scores the supporting ratio among directed studies and
// penalizes hard contradictions. No directed studies at all is neutral,
// not zero: the evidence neither confirms nor contradicts.
func scoreConsistency(in Inputs) float64 {
	directed := in.Supporting + in.Contradicting + in.Mixed
	if directed == 0 {
		return neutralConsistency
	}

	score := float64(in.Supporting) / float64(directed) * 10

	if in.Contradicting > 0 {
		penalty := math.Min(contradictionPenaltyCap, contradictionPenalty*float64(in.Contradicting))
		score -= penalty
	}
	return clamp(score, 0, 10)
}

// scoreRecency gives full credit for fresh evidence and decays toward a
// nonzero floor for stale evidence. Only the no-evidence case scores zero.
func scoreRecency(in Inputs) float64 {
	if !in.HasRecency {
		return 0
	}
	years := in.YearsSinceLast
	if years <= recencyFullYears {
		return 10
	}
	decayed := 10 * math.Exp(-float64(years-recencyFullYears)/recencyTau)
	return math.Max(recencyFloor, decayed)
}

// applyAdjustments applies the named post-composite adjustments and records
// each one on the report. The single-study ceiling is enforced last so no
// bonus can lift a lone study into the "strong evidence" grades.
func applyAdjustments(r *Report) float64 {
	in := r.Inputs
	score := r.RawScore

	if in.AvgSampleSize > 0 && in.AvgSampleSize < minCredibleSample {
		score -= smallSamplePenalty
		if score < 0 {
			score = 0
		}
		r.Adjustments = append(r.Adjustments, Adjustment{
			Name:   "small_samples",
			Delta:  -smallSamplePenalty,
			Reason: fmt.Sprintf("average human sample size %.0f is below %.0f", in.AvgSampleSize, minCredibleSample),
		})
	}

	if in.Replication > 0 {
		strength := math.Min(in.Replication, replicationMax)
		bonus := replicationBonusStep * strength
		score += bonus
		r.Adjustments = append(r.Adjustments, Adjustment{
			Name:   "replication",
			Delta:  bonus,
			Reason: fmt.Sprintf("replication strength %.1f of %.0f", strength, replicationMax),
		})
	}

	if in.TotalStudies() == 1 && score > singleStudyCeiling {
		delta := singleStudyCeiling - score
		score = singleStudyCeiling
		r.Adjustments = append(r.Adjustments, Adjustment{
			Name:   "single_study",
			Delta:  delta,
			Reason: "only one study exists",
		})
	}

	return score
}

// saturate maps x >= 0 onto [0,10) with diminishing returns: 10*(1-e^(-x/k)).
func saturate(x, k float64) float64 {
	if x <= 0 {
		return 0
	}
	return 10 * (1 - math.Exp(-x/k))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
