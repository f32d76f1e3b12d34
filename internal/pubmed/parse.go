// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// PubMed EFetch XML structures (PubmedArticleSet subset).
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Sections []abstractSection `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []struct {
				LastName string `xml:"LastName"`
				ForeName string `xml:"ForeName"`
			} `xml:"AuthorList>Author"`
			Journal struct {
				Title   string `xml:"Title"`
				PubDate struct {
					Year  string `xml:"Year"`
					Month string `xml:"Month"`
					Day   string `xml:"Day"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			PublicationTypes []string `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
		MeshTerms []string `xml:"MeshHeadingList>MeshHeading>DescriptorName"`
		Keywords  []string `xml:"KeywordList>Keyword"`
	} `xml:"MedlineCitation"`
	ArticleIDs []struct {
		IDType string `xml:"IdType,attr"`
		Value  string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type abstractSection struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

var monthNames = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseArticle converts one PubmedArticle element to a Study. Articles
// without a PMID are unusable and reported as not-ok.
func parseArticle(a pubmedArticle) (types.Study, bool) {
	pmid := strings.TrimSpace(a.Citation.PMID)
	if pmid == "" {
		return types.Study{}, false
	}

	s := types.Study{
		PubMedID:  pmid,
		Title:     strings.TrimSpace(a.Citation.Article.Title),
		Journal:   strings.TrimSpace(a.Citation.Article.Journal.Title),
		Keywords:  a.Citation.Keywords,
		MeshTerms: a.Citation.MeshTerms,
	}
	if s.Title == "" {
		s.Title = "No title"
	}

	// Labelled abstract sections are joined as "LABEL: text".
	var parts []string
	for _, sec := range a.Citation.Article.Abstract.Sections {
		text := strings.TrimSpace(sec.Text)
		if text == "" {
			continue
		}
		if sec.Label != "" {
			parts = append(parts, sec.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	s.Abstract = strings.Join(parts, " ")

	for _, au := range a.Citation.Article.Authors {
		last := strings.TrimSpace(au.LastName)
		if last == "" {
			continue
		}
		if fore := strings.TrimSpace(au.ForeName); fore != "" {
			s.Authors = append(s.Authors, fore+" "+last)
		} else {
			s.Authors = append(s.Authors, last)
		}
	}

	s.Year, s.Date = parsePubDate(
		a.Citation.Article.Journal.PubDate.Year,
		a.Citation.Article.Journal.PubDate.Month,
		a.Citation.Article.Journal.PubDate.Day,
	)

	for _, id := range a.ArticleIDs {
		if id.IDType == "doi" && strings.TrimSpace(id.Value) != "" {
			s.DOI = strings.TrimSpace(id.Value)
			break
		}
	}

	s.Type = inferStudyType(a.Citation.Article.PublicationTypes, s.Title, s.Abstract)
	s.IsHuman = isHumanStudy(s.MeshTerms, s.Title, s.Abstract)
	s.SampleSize = extractSampleSize(s.Abstract)
	s.SupportsClaim = types.SupportsUnknown

	return s, true
}

// parsePubDate builds a year and date from PubDate fields, tolerating month
// names, numeric months, and missing parts.
func parsePubDate(yearStr, monthStr, dayStr string) (int, time.Time) {
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil || year <= 0 {
		return 0, time.Time{}
	}

	month := time.January
	if m := strings.TrimSpace(monthStr); m != "" {
		if named, ok := monthNames[m]; ok {
			month = named
		} else if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
			month = time.Month(n)
		}
	}

	day := 1
	if d, err := strconv.Atoi(strings.TrimSpace(dayStr)); err == nil && d >= 1 && d <= 31 {
		day = d
	}

	return year, time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// inferStudyType determines the study type from PubMed publication types
// first (most reliable), then falls back to title/abstract heuristics.
func inferStudyType(pubTypes []string, title, abstract string) types.StudyType {
	for _, pt := range pubTypes {
		switch strings.ToLower(strings.TrimSpace(pt)) {
		case "meta-analysis":
			return types.StudyMetaAnalysis
		case "systematic review":
			return types.StudySystematicReview
		case "randomized controlled trial":
			return types.StudyRCT
		case "clinical trial":
			return types.StudyClinicalTrial
		case "review":
			return types.StudyReview
		case "case reports":
			return types.StudyCaseStudy
		}
	}

	text := strings.ToLower(title + " " + abstract)

	switch {
	case strings.Contains(text, "meta-analysis") || strings.Contains(text, "meta analysis"):
		return types.StudyMetaAnalysis
	case strings.Contains(text, "systematic review"):
		return types.StudySystematicReview
	case strings.Contains(text, "randomized") && (strings.Contains(text, "placebo") || strings.Contains(text, "controlled")):
		return types.StudyRCT
	case strings.Contains(text, "double-blind") || strings.Contains(text, "double blind"):
		return types.StudyRCT
	}

	if containsAny(text, "rats", "mice", "rodent", "animal model", "in vivo") &&
		!strings.Contains(text, "human") && !strings.Contains(text, "participants") {
		return types.StudyAnimal
	}
	if containsAny(text, "in vitro", "cell culture", "cell line") {
		return types.StudyInVitro
	}
	if strings.Contains(text, "observational") || strings.Contains(text, "cohort") {
		return types.StudyObservational
	}

	return types.StudyUnknown
}

// isHumanStudy decides whether the study was conducted on humans. MeSH
// indexing wins over free-text hints; an ambiguous article defaults to
// non-human, which keeps scoring conservative.
func isHumanStudy(meshTerms []string, title, abstract string) bool {
	var hasHumanMesh, hasAnimalMesh bool
	for _, m := range meshTerms {
		switch strings.ToLower(m) {
		case "humans":
			hasHumanMesh = true
		case "animals":
			hasAnimalMesh = true
		}
	}
	if hasHumanMesh {
		return true
	}
	if hasAnimalMesh {
		return false
	}

	text := strings.ToLower(title + " " + abstract)
	hasHuman := containsAny(text, "humans", "human", "patients", "participants",
		"subjects", "volunteers", "men", "women", "adults", "elderly", "children")
	hasAnimal := containsAny(text, "rats", "mice", "rodents", "rabbits", "dogs",
		"monkeys", "in vitro", "cell line")

	return hasHuman && !hasAnimal
}

// Sample-size extraction patterns, tried in order over the lowercased abstract.
var sampleSizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`n\s*=\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s+(?:participants|subjects|patients|volunteers|individuals|adults|men|women)`),
	regexp.MustCompile(`(?:sample size|sample|enrolled|recruited)\s+(?:of\s+)?(\d+)`),
	regexp.MustCompile(`(\d+)\s+(?:were|was)\s+(?:enrolled|recruited|randomized)`),
}

// extractSampleSize pulls a participant count out of the abstract. The
// largest plausible number wins since the total N usually dominates
// per-arm counts. Returns 0 when nothing plausible is found.
func extractSampleSize(abstract string) int {
	if abstract == "" {
		return 0
	}
	lower := strings.ToLower(abstract)

	for _, pat := range sampleSizePatterns {
		best := 0
		for _, m := range pat.FindAllStringSubmatch(lower, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			// Ignore implausible values: tiny numbers are usually arm
			// counts or section numbering, huge ones are years or IDs.
			if n > 5 && n < 100000 && n > best {
				best = n
			}
		}
		if best > 0 {
			return best
		}
	}
	return 0
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
