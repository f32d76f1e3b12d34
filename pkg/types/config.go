// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the PubMed retrieval stage.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent with E-utilities requests as recommended by NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the maximum number of studies to fetch per claim (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestDelay is the minimum delay between E-utilities requests
	// (default 334ms, the 3 req/s keyless limit).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MinRelevance is the relevance-filter threshold (default 0.3).
	// Set RelevanceFilter to false to disable filtering entirely.
	MinRelevance    float64 `json:"min_relevance" yaml:"min_relevance"`
	RelevanceFilter bool    `json:"relevance_filter" yaml:"relevance_filter"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir is the directory holding the database and exports (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ScoringConfig holds settings for the scoring stage.
type ScoringConfig struct {
	// CurrentYear anchors the recency calculation. Zero means the wall-clock
	// year; tests and reproducible runs pin it explicitly.
	CurrentYear int `json:"current_year,omitempty" yaml:"current_year,omitempty"`
}

// BatchConfig holds settings for the batch scoring pipeline.
type BatchConfig struct {
	// ClaimDelay is the pause between claims, on top of per-request rate
	// limiting (default 1s).
	ClaimDelay time.Duration `json:"claim_delay" yaml:"claim_delay"`

	// DryRun previews scores without writing to the store.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	PubMed  PubMedConfig  `json:"pubmed" yaml:"pubmed"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Batch   BatchConfig   `json:"batch" yaml:"batch"`
}
