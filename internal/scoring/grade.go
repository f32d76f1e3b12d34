// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

// Grade is the letter grade derived from a numeric evidence score.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// gradeThresholds maps inclusive lower bounds to grades, highest first.
// Scores below every threshold grade F.
var gradeThresholds = []struct {
	Min   float64
	Grade Grade
}{
	{9.5, GradeAPlus},
	{9.0, GradeA},
	{8.5, GradeAMinus},
	{8.0, GradeBPlus},
	{7.0, GradeB},
	{6.0, GradeBMinus},
	{5.0, GradeCPlus},
	{4.0, GradeC},
	{3.0, GradeCMinus},
	{2.0, GradeD},
}

// GradeForScore converts a 0-10 score to a letter grade. It is a pure
// lookup, usable on stored or externally supplied scores without
// re-deriving them.
func GradeForScore(score float64) Grade {
	for _, t := range gradeThresholds {
		if score >= t.Min {
			return t.Grade
		}
	}
	return GradeF
}
