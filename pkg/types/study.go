// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine
// pipeline: study metadata fetched from PubMed, trend/claim records, and
// stage configuration.
package types

import "time"

// StudyType is the methodological category of a study, roughly ordered by
// evidentiary strength.
type StudyType string

const (
	StudyMetaAnalysis     StudyType = "meta_analysis"
	StudySystematicReview StudyType = "systematic_review"
	StudyRCT              StudyType = "rct"
	StudyClinicalTrial    StudyType = "clinical_trial"
	StudyObservational    StudyType = "observational"
	StudyCaseStudy        StudyType = "case_study"
	StudyAnimal           StudyType = "animal"
	StudyInVitro          StudyType = "in_vitro"
	StudyReview           StudyType = "review"
	StudyUnknown          StudyType = "unknown"
)

// KnownStudyType reports whether t is one of the recognized study types.
func KnownStudyType(t StudyType) bool {
	switch t {
	case StudyMetaAnalysis, StudySystematicReview, StudyRCT, StudyClinicalTrial,
		StudyObservational, StudyCaseStudy, StudyAnimal, StudyInVitro,
		StudyReview, StudyUnknown:
		return true
	}
	return false
}

// Support records the direction of a study's findings relative to a claim.
type Support string

const (
	SupportsYes     Support = "yes"
	SupportsNo      Support = "no"
	SupportsMixed   Support = "mixed"
	SupportsUnknown Support = "unknown"
)

// KnownSupport reports whether s is one of the recognized support values.
// The empty string is treated as unknown.
func KnownSupport(s Support) bool {
	switch s {
	case SupportsYes, SupportsNo, SupportsMixed, SupportsUnknown, "":
		return true
	}
	return false
}

// Study holds metadata for a single study fetched from PubMed.
// Records are immutable once fetched; the retrieval layer deduplicates them
// by PubMedID and drops retracted entries before they reach scoring.
type Study struct {
	// PubMedID is the PMID, the stable external identifier for the study.
	PubMedID string `json:"pubmed_id" yaml:"pubmed_id"`

	// DOI is the digital object identifier, when PubMed provides one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the article authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Journal is the publishing journal title.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Date is the publication date when PubMed provides one.
	Date time.Time `json:"date" yaml:"date"`

	// Year is the publication year (0 when unknown).
	Year int `json:"year" yaml:"year"`

	// Type is the inferred study type.
	Type StudyType `json:"study_type" yaml:"study_type"`

	// IsHuman reports whether the study was conducted on humans.
	IsHuman bool `json:"is_human" yaml:"is_human"`

	// SampleSize is the number of participants (0 when unknown).
	SampleSize int `json:"sample_size" yaml:"sample_size"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Keywords and MeshTerms carry PubMed's indexing vocabulary.
	Keywords  []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MeshTerms []string `json:"mesh_terms,omitempty" yaml:"mesh_terms,omitempty"`

	// SupportsClaim is the direction of findings for the claim under
	// evaluation: yes, no, mixed, or unknown.
	SupportsClaim Support `json:"supports_claim,omitempty" yaml:"supports_claim,omitempty"`

	// RelevanceScore is set by the relevance filter (0.0-1.0).
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// MatchedTerms lists the search terms the relevance filter found.
	MatchedTerms []string `json:"matched_terms,omitempty" yaml:"matched_terms,omitempty"`
}
