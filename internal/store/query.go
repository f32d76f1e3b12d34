// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const trendColumns = `t.id, t.name, t.slug, COALESCE(c.name, ''), t.description,
	t.aliases, t.published, t.overall_score, t.evidence_grade, t.confidence_level`

// Trends returns all trends ordered by name.
func (s *Store) Trends(ctx context.Context) ([]types.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trendColumns+`
		 FROM trends t LEFT JOIN categories c ON t.category_id = c.id
		 ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()

	return scanTrends(rows)
}

// TrendBySlug returns one trend, or sql.ErrNoRows wrapped if absent.
func (s *Store) TrendBySlug(ctx context.Context, slug string) (types.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trendColumns+`
		 FROM trends t LEFT JOIN categories c ON t.category_id = c.id
		 WHERE t.slug = ?`, slug)
	if err != nil {
		return types.Trend{}, fmt.Errorf("querying trend %q: %w", slug, err)
	}
	defer rows.Close()

	trends, err := scanTrends(rows)
	if err != nil {
		return types.Trend{}, err
	}
	if len(trends) == 0 {
		return types.Trend{}, fmt.Errorf("trend %q: %w", slug, sql.ErrNoRows)
	}
	return trends[0], nil
}

// SearchTrends searches trend names, descriptions, and aliases. With FTS5
// available (build tag sqlite_fts5) results are ranked by relevance;
// otherwise it falls back to substring matching ordered by name.
func (s *Store) SearchTrends(ctx context.Context, query string) ([]types.Trend, error) {
	if !s.ftsEnabled {
		return s.searchTrendsLike(ctx, query)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trendColumns+`
		 FROM trends_fts
		 JOIN trends t ON t.id = trends_fts.rowid
		 LEFT JOIN categories c ON t.category_id = c.id
		 WHERE trends_fts MATCH ?
		 ORDER BY trends_fts.rank`, query)
	if err != nil {
		return nil, fmt.Errorf("searching trends: %w", err)
	}
	defer rows.Close()

	return scanTrends(rows)
}

func (s *Store) searchTrendsLike(ctx context.Context, query string) ([]types.Trend, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trendColumns+`
		 FROM trends t LEFT JOIN categories c ON t.category_id = c.id
		 WHERE t.name LIKE ? OR t.description LIKE ? OR t.aliases LIKE ?
		 ORDER BY t.name`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching trends: %w", err)
	}
	defer rows.Close()

	return scanTrends(rows)
}

func scanTrends(rows *sql.Rows) ([]types.Trend, error) {
	var trends []types.Trend
	for rows.Next() {
		var (
			t           types.Trend
			aliasesJSON sql.NullString
			score       sql.NullFloat64
			grade       sql.NullString
			confidence  sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Slug, &t.Category, &t.Description,
			&aliasesJSON, &t.Published, &score, &grade, &confidence,
		); err != nil {
			return nil, fmt.Errorf("scanning trend row: %w", err)
		}
		if aliasesJSON.Valid {
			json.Unmarshal([]byte(aliasesJSON.String), &t.Aliases)
		}
		if score.Valid {
			t.OverallScore = score.Float64
		}
		t.Grade = grade.String
		t.Confidence = types.ConfidenceLevel(confidence.String)
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// ClaimsForTrend returns a trend's claims, primary claim first.
func (s *Store) ClaimsForTrend(ctx context.Context, trendID int64) ([]types.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trend_id, claim_text, claim_slug, is_primary_claim,
			evidence_score, evidence_grade, summary,
			num_human_rcts, num_meta_analyses, num_observational, num_animal_studies,
			confidence_level
		 FROM claims WHERE trend_id = ?
		 ORDER BY is_primary_claim DESC, id`, trendID)
	if err != nil {
		return nil, fmt.Errorf("querying claims for trend %d: %w", trendID, err)
	}
	defer rows.Close()

	var claims []types.Claim
	for rows.Next() {
		var (
			c          types.Claim
			score      sql.NullFloat64
			grade      sql.NullString
			summary    sql.NullString
			confidence sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.TrendID, &c.Text, &c.Slug, &c.Primary,
			&score, &grade, &summary,
			&c.HumanRCTs, &c.MetaAnalyses, &c.HumanOther, &c.AnimalStudies,
			&confidence,
		); err != nil {
			return nil, fmt.Errorf("scanning claim row: %w", err)
		}
		if score.Valid {
			c.Score = score.Float64
		}
		c.Grade = grade.String
		c.Summary = summary.String
		c.Confidence = types.ConfidenceLevel(confidence.String)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// StudiesForClaim returns the studies linked to a claim with the direction
// recorded on the link, newest first.
func (s *Store) StudiesForClaim(ctx context.Context, claimID int64) ([]types.Study, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.pubmed_id, s.doi, s.title, s.authors, s.journal, s.pub_date,
			s.year, s.study_type, s.is_human, s.sample_size, s.abstract,
			s.keywords, s.mesh_terms, cs.supports_claim, cs.relevance_score
		 FROM claim_studies cs
		 JOIN studies s ON s.id = cs.study_id
		 WHERE cs.claim_id = ?
		 ORDER BY s.year DESC, s.pubmed_id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("querying studies for claim %d: %w", claimID, err)
	}
	defer rows.Close()

	var studies []types.Study
	for rows.Next() {
		var (
			st           types.Study
			authorsJSON  sql.NullString
			keywordsJSON sql.NullString
			meshJSON     sql.NullString
			dateStr      sql.NullString
			studyType    string
			supports     sql.NullString
			relevance    sql.NullFloat64
		)
		if err := rows.Scan(
			&st.PubMedID, &st.DOI, &st.Title, &authorsJSON, &st.Journal, &dateStr,
			&st.Year, &studyType, &st.IsHuman, &st.SampleSize, &st.Abstract,
			&keywordsJSON, &meshJSON, &supports, &relevance,
		); err != nil {
			return nil, fmt.Errorf("scanning study row: %w", err)
		}
		st.Type = types.StudyType(studyType)
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &st.Authors)
		}
		if keywordsJSON.Valid {
			json.Unmarshal([]byte(keywordsJSON.String), &st.Keywords)
		}
		if meshJSON.Valid {
			json.Unmarshal([]byte(meshJSON.String), &st.MeshTerms)
		}
		if dateStr.Valid && dateStr.String != "" {
			if d, err := time.Parse(time.RFC3339, dateStr.String); err == nil {
				st.Date = d
			}
		}
		st.SupportsClaim = types.Support(supports.String)
		if relevance.Valid {
			st.RelevanceScore = relevance.Float64
		}
		studies = append(studies, st)
	}
	return studies, rows.Err()
}

// Stats holds row counts for the status command.
type Stats struct {
	Trends       int `json:"trends" yaml:"trends"`
	Claims       int `json:"claims" yaml:"claims"`
	ScoredClaims int `json:"scored_claims" yaml:"scored_claims"`
	Studies      int `json:"studies" yaml:"studies"`
	Links        int `json:"links" yaml:"links"`
}

// Stats returns row counts across the database.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&st.Trends, `SELECT count(*) FROM trends`},
		{&st.Claims, `SELECT count(*) FROM claims`},
		{&st.ScoredClaims, `SELECT count(*) FROM claims WHERE evidence_score IS NOT NULL`},
		{&st.Studies, `SELECT count(*) FROM studies`},
		{&st.Links, `SELECT count(*) FROM claim_studies`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return st, nil
}
