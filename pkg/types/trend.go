// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConfidenceLevel records the provenance of a stored score: automatically
// computed, manually reviewed, or expert-verified. Orthogonal to the score.
type ConfidenceLevel string

const (
	ConfidenceAuto     ConfidenceLevel = "auto"
	ConfidenceReviewed ConfidenceLevel = "reviewed"
	ConfidenceExpert   ConfidenceLevel = "expert_verified"
)

// Category groups trends (e.g. "Supplements", "Devices", "Protocols").
type Category struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Trend is the supplement, device, or protocol under evaluation.
type Trend struct {
	ID          int64    `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Slug        string   `json:"slug" yaml:"slug"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Published   bool     `json:"published" yaml:"published"`

	// OverallScore and Grade are the roll-up across the trend's claims
	// (arithmetic mean of claim scores). Zero Grade means not yet scored.
	OverallScore float64         `json:"overall_score,omitempty" yaml:"overall_score,omitempty"`
	Grade        string          `json:"evidence_grade,omitempty" yaml:"evidence_grade,omitempty"`
	Confidence   ConfidenceLevel `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
}

// Claim is a specific, falsifiable health assertion about a trend
// (e.g. "increases testosterone").
type Claim struct {
	ID      int64  `json:"id" yaml:"id"`
	TrendID int64  `json:"trend_id" yaml:"trend_id"`
	Text    string `json:"claim_text" yaml:"claim_text"`
	Slug    string `json:"claim_slug" yaml:"claim_slug"`
	Primary bool   `json:"is_primary_claim" yaml:"is_primary_claim"`

	// Scored columns, written by the persistence layer from a scoring report.
	Score         float64         `json:"evidence_score,omitempty" yaml:"evidence_score,omitempty"`
	Grade         string          `json:"evidence_grade,omitempty" yaml:"evidence_grade,omitempty"`
	Summary       string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	HumanRCTs     int             `json:"num_human_rcts" yaml:"num_human_rcts"`
	MetaAnalyses  int             `json:"num_meta_analyses" yaml:"num_meta_analyses"`
	HumanOther    int             `json:"num_observational" yaml:"num_observational"`
	AnimalStudies int             `json:"num_animal_studies" yaml:"num_animal_studies"`
	Confidence    ConfidenceLevel `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
}
