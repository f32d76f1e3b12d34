// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists trends, claims, studies, and their scores in a
// SQLite database, and exports the scored catalog.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/internal/scoring"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	defaultDataDir = "data"
	dbFile         = "evidence.db"
)

// Store manages the evidence SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string

	// ftsEnabled reports whether the trends_fts virtual table exists.
	// Binaries built without the sqlite_fts5 tag lack the FTS5 module;
	// search then degrades to LIKE matching instead of failing at open.
	ftsEnabled bool

	// now is the clock used for last_scored_at stamps.
	now func() time.Time
}

// NewStore opens or creates the database at dataDir/evidence.db, creating
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		dataDir: dataDir,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			category_id INTEGER REFERENCES categories(id),
			description TEXT,
			aliases TEXT,
			published INTEGER NOT NULL DEFAULT 0,
			overall_score REAL,
			evidence_grade TEXT,
			confidence_level TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trend_id INTEGER NOT NULL REFERENCES trends(id),
			claim_text TEXT NOT NULL,
			claim_slug TEXT NOT NULL,
			is_primary_claim INTEGER NOT NULL DEFAULT 0,
			evidence_score REAL,
			evidence_grade TEXT,
			summary TEXT,
			num_human_rcts INTEGER NOT NULL DEFAULT 0,
			num_meta_analyses INTEGER NOT NULL DEFAULT 0,
			num_observational INTEGER NOT NULL DEFAULT 0,
			num_animal_studies INTEGER NOT NULL DEFAULT 0,
			confidence_level TEXT,
			last_scored_at TEXT,
			UNIQUE(trend_id, claim_slug)
		)`,
		`CREATE TABLE IF NOT EXISTS studies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pubmed_id TEXT NOT NULL UNIQUE,
			doi TEXT,
			title TEXT,
			authors TEXT,
			journal TEXT,
			pub_date TEXT,
			year INTEGER,
			study_type TEXT,
			is_human INTEGER NOT NULL DEFAULT 0,
			sample_size INTEGER NOT NULL DEFAULT 0,
			abstract TEXT,
			keywords TEXT,
			mesh_terms TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS claim_studies (
			claim_id INTEGER NOT NULL REFERENCES claims(id),
			study_id INTEGER NOT NULL REFERENCES studies(id),
			supports_claim TEXT,
			relevance_score REAL,
			PRIMARY KEY (claim_id, study_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_trend_id ON claims(trend_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_studies_study ON claim_studies(study_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='trends_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists > 0 {
		s.ftsEnabled = true
		return nil
	}

	if _, err := s.db.Exec(
		`CREATE VIRTUAL TABLE trends_fts USING fts5(name, description, aliases, content=trends, content_rowid=id)`,
	); err != nil {
		if strings.Contains(err.Error(), "fts5") {
			// FTS5 not compiled in; leave ftsEnabled false.
			return nil
		}
		return fmt.Errorf("creating FTS infrastructure: %w", err)
	}

	ftsStatements := []string{
		`CREATE TRIGGER trends_ai AFTER INSERT ON trends BEGIN
			INSERT INTO trends_fts(rowid, name, description, aliases)
			VALUES (new.id, new.name, new.description, new.aliases);
		END`,
		`CREATE TRIGGER trends_ad AFTER DELETE ON trends BEGIN
			INSERT INTO trends_fts(trends_fts, rowid, name, description, aliases)
			VALUES('delete', old.id, old.name, old.description, old.aliases);
		END`,
		`CREATE TRIGGER trends_au AFTER UPDATE ON trends BEGIN
			INSERT INTO trends_fts(trends_fts, rowid, name, description, aliases)
			VALUES('delete', old.id, old.name, old.description, old.aliases);
			INSERT INTO trends_fts(rowid, name, description, aliases)
			VALUES (new.id, new.name, new.description, new.aliases);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.ftsEnabled = true

	return nil
}

// UpsertCategory inserts the category if new and returns its ID.
func (s *Store) UpsertCategory(ctx context.Context, name, description string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE categories.description END`,
		name, description,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting category %q: %w", name, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ?`, name,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up category %q: %w", name, err)
	}
	return id, nil
}

// UpsertTrend inserts or updates a trend keyed by slug and returns its ID.
// Identity fields are written; scored columns are left to UpdateClaimScore
// and RollUpTrend.
func (s *Store) UpsertTrend(ctx context.Context, t types.Trend) (int64, error) {
	if t.Name == "" || t.Slug == "" {
		return 0, fmt.Errorf("trend requires name and slug")
	}

	var categoryID any
	if t.Category != "" {
		id, err := s.UpsertCategory(ctx, t.Category, "")
		if err != nil {
			return 0, err
		}
		categoryID = id
	}

	aliasesJSON, _ := json.Marshal(t.Aliases)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trends (name, slug, category_id, description, aliases, published)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			name=excluded.name, category_id=excluded.category_id,
			description=excluded.description, aliases=excluded.aliases,
			published=excluded.published`,
		t.Name, t.Slug, categoryID, t.Description, string(aliasesJSON), t.Published,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting trend %q: %w", t.Slug, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM trends WHERE slug = ?`, t.Slug,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up trend %q: %w", t.Slug, err)
	}
	return id, nil
}

// UpsertClaim inserts or updates a claim keyed by (trend, slug) and returns
// its ID. Scored columns are untouched.
func (s *Store) UpsertClaim(ctx context.Context, c types.Claim) (int64, error) {
	if c.TrendID == 0 || c.Text == "" || c.Slug == "" {
		return 0, fmt.Errorf("claim requires trend_id, text, and slug")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claims (trend_id, claim_text, claim_slug, is_primary_claim)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(trend_id, claim_slug) DO UPDATE SET
			claim_text=excluded.claim_text, is_primary_claim=excluded.is_primary_claim`,
		c.TrendID, c.Text, c.Slug, c.Primary,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting claim %q: %w", c.Slug, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM claims WHERE trend_id = ? AND claim_slug = ?`, c.TrendID, c.Slug,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up claim %q: %w", c.Slug, err)
	}
	return id, nil
}

// UpsertStudy inserts or updates a study keyed by PMID and returns its ID.
func (s *Store) UpsertStudy(ctx context.Context, study types.Study) (int64, error) {
	if study.PubMedID == "" {
		return 0, fmt.Errorf("study requires a pubmed_id")
	}

	authorsJSON, _ := json.Marshal(study.Authors)
	keywordsJSON, _ := json.Marshal(study.Keywords)
	meshJSON, _ := json.Marshal(study.MeshTerms)

	dateStr := ""
	if !study.Date.IsZero() {
		dateStr = study.Date.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO studies (pubmed_id, doi, title, authors, journal, pub_date, year,
			study_type, is_human, sample_size, abstract, keywords, mesh_terms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pubmed_id) DO UPDATE SET
			doi=excluded.doi, title=excluded.title, authors=excluded.authors,
			journal=excluded.journal, pub_date=excluded.pub_date, year=excluded.year,
			study_type=excluded.study_type, is_human=excluded.is_human,
			sample_size=excluded.sample_size, abstract=excluded.abstract,
			keywords=excluded.keywords, mesh_terms=excluded.mesh_terms`,
		study.PubMedID, study.DOI, study.Title, string(authorsJSON), study.Journal,
		dateStr, study.Year, string(study.Type), study.IsHuman, study.SampleSize,
		study.Abstract, string(keywordsJSON), string(meshJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting study %s: %w", study.PubMedID, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM studies WHERE pubmed_id = ?`, study.PubMedID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up study %s: %w", study.PubMedID, err)
	}
	return id, nil
}

// LinkStudyToClaim records that a study was retrieved for a claim, with the
// direction of its findings and its relevance score. Re-linking updates both.
func (s *Store) LinkStudyToClaim(ctx context.Context, claimID, studyID int64, supports types.Support, relevance float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claim_studies (claim_id, study_id, supports_claim, relevance_score)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(claim_id, study_id) DO UPDATE SET
			supports_claim=excluded.supports_claim, relevance_score=excluded.relevance_score`,
		claimID, studyID, string(supports), relevance,
	)
	if err != nil {
		return fmt.Errorf("linking study %d to claim %d: %w", studyID, claimID, err)
	}
	return nil
}

// UpdateClaimScore writes a scoring report onto a claim: score, grade,
// summary, study counts, and an auto confidence level with a timestamp.
func (s *Store) UpdateClaimScore(ctx context.Context, claimID int64, r scoring.Report, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET
			evidence_score = ?, evidence_grade = ?, summary = ?,
			num_human_rcts = ?, num_meta_analyses = ?,
			num_observational = ?, num_animal_studies = ?,
			confidence_level = ?, last_scored_at = ?
		 WHERE id = ?`,
		r.Total, string(r.Grade), summary,
		r.Inputs.HumanRCTs, r.Inputs.MetaAnalyses,
		r.Inputs.HumanOther, r.Inputs.AnimalStudies,
		string(types.ConfidenceAuto), s.now().Format(time.RFC3339),
		claimID,
	)
	if err != nil {
		return fmt.Errorf("updating claim %d score: %w", claimID, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("claim %d not found", claimID)
	}
	return nil
}

// RollUpTrend recomputes a trend's overall score as the arithmetic mean of
// its scored claims and regrades it. A trend with no scored claims is left
// untouched and reported as not rolled up.
func (s *Store) RollUpTrend(ctx context.Context, trendID int64) (float64, scoring.Grade, bool, error) {
	var (
		avg    sql.NullFloat64
		scored int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(evidence_score), COUNT(evidence_score)
		 FROM claims WHERE trend_id = ? AND evidence_score IS NOT NULL`,
		trendID,
	).Scan(&avg, &scored)
	if err != nil {
		return 0, "", false, fmt.Errorf("averaging claim scores for trend %d: %w", trendID, err)
	}
	if scored == 0 || !avg.Valid {
		return 0, "", false, nil
	}

	grade := scoring.GradeForScore(avg.Float64)
	_, err = s.db.ExecContext(ctx,
		`UPDATE trends SET overall_score = ?, evidence_grade = ?, confidence_level = ?
		 WHERE id = ?`,
		avg.Float64, string(grade), string(types.ConfidenceAuto), trendID,
	)
	if err != nil {
		return 0, "", false, fmt.Errorf("updating trend %d roll-up: %w", trendID, err)
	}
	return avg.Float64, grade, true, nil
}
