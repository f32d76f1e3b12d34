// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package seed loads the trend/claim catalog from a YAML file into the
// store. Seeding is idempotent: rerunning with the same file updates
// identity fields and never touches scores.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/store"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// File is the seed file layout.
type File struct {
	Categories []Category `yaml:"categories"`
	Trends     []Trend    `yaml:"trends"`
}

// Category describes a trend grouping.
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Trend is one catalog entry with its claims.
type Trend struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Aliases     []string `yaml:"aliases"`
	Published   bool     `yaml:"published"`
	Claims      []Claim  `yaml:"claims"`
}

// Claim is one falsifiable assertion about a trend.
type Claim struct {
	Text    string `yaml:"text"`
	Slug    string `yaml:"slug"`
	Primary bool   `yaml:"primary"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, t := range f.Trends {
		if t.Name == "" {
			return nil, fmt.Errorf("seed trend %d has no name", i)
		}
		if t.Slug == "" {
			f.Trends[i].Slug = Slugify(t.Name)
		}
		for j, c := range t.Claims {
			if c.Text == "" {
				return nil, fmt.Errorf("seed trend %q claim %d has no text", t.Name, j)
			}
			if c.Slug == "" {
				f.Trends[i].Claims[j].Slug = Slugify(c.Text)
			}
		}
	}
	return &f, nil
}

// Summary holds counts from a seeding run.
type Summary struct {
	Categories int
	Trends     int
	Claims     int
}

// Apply upserts the seed file contents into the store, reporting progress
// to w.
func Apply(ctx context.Context, f *File, s *store.Store, w io.Writer) (Summary, error) {
	var summary Summary

	for _, c := range f.Categories {
		if _, err := s.UpsertCategory(ctx, c.Name, c.Description); err != nil {
			return summary, err
		}
		summary.Categories++
	}

	for _, t := range f.Trends {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		trendID, err := s.UpsertTrend(ctx, types.Trend{
			Name:        t.Name,
			Slug:        t.Slug,
			Category:    t.Category,
			Description: t.Description,
			Aliases:     t.Aliases,
			Published:   t.Published,
		})
		if err != nil {
			return summary, err
		}
		summary.Trends++

		for _, c := range t.Claims {
			if _, err := s.UpsertClaim(ctx, types.Claim{
				TrendID: trendID,
				Text:    c.Text,
				Slug:    c.Slug,
				Primary: c.Primary,
			}); err != nil {
				return summary, err
			}
			summary.Claims++
		}

		fmt.Fprintf(w, "seeded %s (%d claims)\n", t.Slug, len(t.Claims))
	}

	fmt.Fprintf(w, "\ncategories: %d, trends: %d, claims: %d\n",
		summary.Categories, summary.Trends, summary.Claims)
	return summary, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses non-alphanumeric runs to hyphens.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
