// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"sort"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// claimTerms expands common claim keywords into the PubMed vocabulary that
// actually appears in titles and abstracts.
var claimTerms = map[string][]string{
	"testosterone": {"testosterone", "androgen", "luteinizing hormone"},
	"cortisol":     {"cortisol", "stress hormone", "HPA axis"},
	"anxiety":      {"anxiety", "anxiolytic", "generalized anxiety"},
	"stress":       {"stress", "cortisol", "adaptogen"},
	"sleep":        {"sleep", "insomnia", "sleep quality"},
	"muscle":       {"muscle", "lean mass", "strength", "hypertrophy"},
	"cognitive":    {"cognitive", "cognition", "memory", "brain function"},
	"inflammation": {"inflammation", "inflammatory", "cytokine", "CRP"},
	"blood sugar":  {"blood glucose", "glycemic", "HbA1c", "insulin"},
	"skin":         {"skin", "collagen", "dermal"},
	"gut":          {"gut", "microbiome", "intestinal"},
	"libido":       {"libido", "sexual function", "erectile"},
	"energy":       {"energy", "fatigue", "vitality"},
	"recovery":     {"recovery", "muscle soreness", "DOMS"},
	"mood":         {"mood", "depression", "well-being"},
	"weight":       {"weight loss", "body composition", "obesity"},
	"thyroid":      {"thyroid", "TSH"},
}

// claimStopWords are verbs and filler dropped when no keyword mapping fires.
var claimStopWords = map[string]bool{
	"increases": true, "reduces": true, "improves": true, "supports": true,
	"enhances": true, "boosts": true, "and": true, "the": true, "for": true,
	"with": true,
}

// SearchTerms converts a claim into PubMed search terms. Known claim
// keywords expand into their domain vocabulary (keyword order is made
// deterministic by sorting); otherwise the claim's own content words are
// used, capped at three.
func SearchTerms(claim string) []string {
	lower := strings.ToLower(claim)

	keys := make([]string, 0, len(claimTerms))
	for k := range claimTerms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var terms []string
	for _, key := range keys {
		if strings.Contains(lower, key) {
			terms = append(terms, claimTerms[key]...)
		}
	}
	if len(terms) > 0 {
		return terms
	}

	for _, w := range strings.Fields(lower) {
		if len(w) > 3 && !claimStopWords[w] {
			terms = append(terms, w)
		}
	}
	if len(terms) > 3 {
		terms = terms[:3]
	}
	return terms
}

// BuildQuery combines the trend's names with the claim vocabulary into a
// PubMed boolean query: ("name" OR "alias") AND (term OR term).
func BuildQuery(name string, aliases []string, claim string) string {
	names := make([]string, 0, 1+len(aliases))
	names = append(names, `"`+name+`"`)
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, `"`+a+`"`)
		}
	}

	terms := SearchTerms(claim)
	if len(terms) == 0 {
		return "(" + strings.Join(names, " OR ") + ")"
	}
	return "(" + strings.Join(names, " OR ") + ") AND (" + strings.Join(terms, " OR ") + ")"
}

// Searcher runs claim-level searches: query building, retrieval, and
// relevance filtering in one step.
type Searcher struct {
	Client *Client
	Filter *RelevanceFilter

	// MaxResults bounds the studies returned per claim.
	MaxResults int
}

// NewSearcher wires a searcher from config. Relevance filtering is applied
// unless cfg.RelevanceFilter is false.
func NewSearcher(cfg types.PubMedConfig) *Searcher {
	s := &Searcher{
		Client:     NewClient(cfg),
		MaxResults: cfg.MaxResults,
	}
	if s.MaxResults <= 0 {
		s.MaxResults = 50
	}
	if cfg.RelevanceFilter {
		s.Filter = NewRelevanceFilter(cfg.MinRelevance)
	}
	return s
}

// SearchClaim fetches studies for one trend claim. It over-fetches when
// filtering is enabled since some results will be dropped, then trims to
// MaxResults. Returns the kept studies and the number filtered out.
func (s *Searcher) SearchClaim(ctx context.Context, name string, aliases []string, claim string) ([]types.Study, int, error) {
	query := BuildQuery(name, aliases, claim)

	fetchCount := s.MaxResults
	if s.Filter != nil {
		fetchCount *= 2
	}

	studies, err := s.Client.SearchAndFetch(ctx, query, fetchCount)
	if err != nil {
		return nil, 0, err
	}

	removed := 0
	if s.Filter != nil {
		studies, removed = s.Filter.Filter(studies, name, aliases)
	}
	if len(studies) > s.MaxResults {
		studies = studies[:s.MaxResults]
	}
	return studies, removed, nil
}
