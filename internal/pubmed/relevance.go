// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// DefaultMinRelevance keeps studies that mention a search term at least
// once in the abstract (0.3) or anywhere stronger.
const DefaultMinRelevance = 0.3

// noisePatterns are phrases that contain trend words in unrelated contexts
// (e.g. "ground glass" lung opacities when searching for grounding mats).
// Matches are removed from the text before term scoring.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bground\s+truth\b`),
	regexp.MustCompile(`(?i)\bgrounding\s+electrode\b`),
	regexp.MustCompile(`(?i)\belectrical\s+ground\b`),
	regexp.MustCompile(`(?i)\bbackground\b`),
	regexp.MustCompile(`(?i)\bgrounded\s+theory\b`),
	regexp.MustCompile(`(?i)\bground\s+glass\b`),
	regexp.MustCompile(`(?i)\bground-glass\b`),
}

// Relevance location weights.
const (
	titleWeight       = 0.5
	abstractWeight    = 0.3
	abstractWeightCap = 0.6
	meshWeight        = 0.2
)

// RelevanceFilter drops studies that never actually mention the trend
// being researched, catching garbage results from loose queries.
type RelevanceFilter struct {
	// MinScore is the 0-1 threshold a study must reach to be kept.
	MinScore float64
}

// NewRelevanceFilter returns a filter with the given threshold, or the
// default when minScore is zero.
func NewRelevanceFilter(minScore float64) *RelevanceFilter {
	if minScore <= 0 {
		minScore = DefaultMinRelevance
	}
	return &RelevanceFilter{MinScore: minScore}
}

// Filter returns the studies that pass the threshold, annotated with their
// relevance score and matched terms, plus the count removed. Input order
// is preserved.
func (f *RelevanceFilter) Filter(studies []types.Study, name string, aliases []string) ([]types.Study, int) {
	terms := searchTermSet(name, aliases)

	var kept []types.Study
	removed := 0
	for _, s := range studies {
		score, matched := scoreRelevance(s, terms)
		if score < f.MinScore {
			removed++
			continue
		}
		s.RelevanceScore = score
		s.MatchedTerms = matched
		kept = append(kept, s)
	}
	return kept, removed
}

// searchTermSet builds the sorted, lowercased, deduplicated term list.
func searchTermSet(name string, aliases []string) []string {
	set := map[string]bool{strings.ToLower(strings.TrimSpace(name)): true}
	for _, a := range aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			set[a] = true
		}
	}
	delete(set, "")

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// scoreRelevance scores term presence by location: title 0.5, abstract 0.3
// per mention (capped at 0.6), MeSH 0.2; total capped at 1.0.
func scoreRelevance(s types.Study, terms []string) (float64, []string) {
	title := stripNoise(strings.ToLower(s.Title))
	abstract := stripNoise(strings.ToLower(s.Abstract))
	mesh := stripNoise(strings.ToLower(strings.Join(s.MeshTerms, " ")))

	score := 0.0
	var matched []string

	for _, term := range terms {
		// Word-boundary matching so "ground" does not match "playground".
		pat, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			continue
		}

		found := false
		if pat.MatchString(title) {
			score += titleWeight
			found = true
		}
		if n := len(pat.FindAllStringIndex(abstract, -1)); n > 0 {
			add := abstractWeight * float64(n)
			if add > abstractWeightCap {
				add = abstractWeightCap
			}
			score += add
			found = true
		}
		if pat.MatchString(mesh) {
			score += meshWeight
			found = true
		}
		if found {
			matched = append(matched, term)
		}
	}

	if len(matched) == 0 {
		return 0, nil
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}

// stripNoise removes known false-positive phrases before term matching.
func stripNoise(text string) string {
	for _, pat := range noisePatterns {
		text = pat.ReplaceAllString(text, " ")
	}
	return text
}
