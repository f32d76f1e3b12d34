// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ExportEntry is one trend with its claims, as written to the export files.
type ExportEntry struct {
	types.Trend `yaml:",inline"`
	Claims      []types.Claim `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// ExportYAML writes the scored catalog to dataDir/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dataDir, "export.yaml"), data, 0o644)
}

// ExportJSON writes the scored catalog to dataDir/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dataDir, "export.json"), data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	trends, err := s.Trends(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(trends))
	for i, t := range trends {
		claims, err := s.ClaimsForTrend(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{Trend: t, Claims: claims}
	}
	return entries, nil
}
