// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/store"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Inspect the scored trend catalog (list, show, search, export)",
}

// --- list subcommand ---

var trendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all trends with their overall scores",
	RunE:  runTrendsList,
}

func runTrendsList(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	trends, err := s.Trends(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatTrends(trends, jsonOutput)
}

// --- show subcommand ---

var trendsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one trend with its claims and studies",
	RunE:  runTrendsShow,
}

func runTrendsShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one trend slug")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	trend, err := s.TrendBySlug(ctx, args[0])
	if err != nil {
		return err
	}
	claims, err := s.ClaimsForTrend(ctx, trend.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s)\n", trend.Name, trend.Slug)
	if trend.Category != "" {
		fmt.Fprintf(os.Stdout, "category: %s\n", trend.Category)
	}
	if len(trend.Aliases) > 0 {
		fmt.Fprintf(os.Stdout, "aliases:  %s\n", strings.Join(trend.Aliases, ", "))
	}
	if trend.Grade != "" {
		fmt.Fprintf(os.Stdout, "overall:  %.1f/10 (%s)\n", trend.OverallScore, trend.Grade)
	} else {
		fmt.Fprintln(os.Stdout, "overall:  not scored")
	}

	for _, c := range claims {
		marker := " "
		if c.Primary {
			marker = "*"
		}
		if c.Grade != "" {
			fmt.Fprintf(os.Stdout, "\n%s %s\n  %.1f/10 (%s)  %s\n", marker, c.Text, c.Score, c.Grade, c.Summary)
			fmt.Fprintf(os.Stdout, "  meta: %d, rcts: %d, other human: %d, animal: %d\n",
				c.MetaAnalyses, c.HumanRCTs, c.HumanOther, c.AnimalStudies)
		} else {
			fmt.Fprintf(os.Stdout, "\n%s %s\n  not scored\n", marker, c.Text)
		}

		showStudies, _ := cmd.Flags().GetBool("studies")
		if showStudies {
			studies, err := s.StudiesForClaim(ctx, c.ID)
			if err != nil {
				return err
			}
			for _, st := range studies {
				fmt.Fprintf(os.Stdout, "    [%s] %d %s (%s)\n", st.PubMedID, st.Year, st.Title, st.Type)
			}
		}
	}
	return nil
}

// --- search subcommand ---

var trendsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over trend names, descriptions, and aliases",
	RunE:  runTrendsSearch,
}

func runTrendsSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	trends, err := s.SearchTrends(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatTrends(trends, jsonOutput)
}

// --- export subcommand ---

var trendsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the scored catalog to YAML or JSON",
	RunE:  runTrendsExport,
}

func runTrendsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	dataDir := storeConfig(cmd).DataDir
	switch format {
	case "yaml", "":
		if err := s.ExportYAML(context.Background()); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", dataDir)
	case "json":
		if err := s.ExportJSON(context.Background()); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", dataDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- status subcommand ---

var trendsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts for the evidence database",
	RunE:  runTrendsStatus,
}

func runTrendsStatus(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "trends:        %d\n", stats.Trends)
	fmt.Fprintf(os.Stdout, "claims:        %d\n", stats.Claims)
	fmt.Fprintf(os.Stdout, "scored claims: %d\n", stats.ScoredClaims)
	fmt.Fprintf(os.Stdout, "studies:       %d\n", stats.Studies)
	fmt.Fprintf(os.Stdout, "links:         %d\n", stats.Links)
	return nil
}

// --- shared helpers ---

func formatTrends(trends []types.Trend, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trends)
	}

	if len(trends) == 0 {
		fmt.Println("No trends found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-14s  %-6s  %-5s  %s\n",
		"Slug", "Category", "Score", "Grade", "Name")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))

	for _, t := range trends {
		score := "-"
		if t.Grade != "" {
			score = fmt.Sprintf("%.1f", t.OverallScore)
		}
		fmt.Fprintf(os.Stdout, "%-24s  %-14s  %-6s  %-5s  %s\n",
			t.Slug, t.Category, score, t.Grade, t.Name)
	}

	fmt.Fprintf(os.Stdout, "\n%d trends\n", len(trends))
	return nil
}

func init() {
	trendsListCmd.Flags().Bool("json", false, "output as JSON")
	trendsSearchCmd.Flags().Bool("json", false, "output as JSON")
	trendsShowCmd.Flags().Bool("studies", false, "list the studies linked to each claim")
	trendsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	trendsCmd.AddCommand(trendsListCmd)
	trendsCmd.AddCommand(trendsShowCmd)
	trendsCmd.AddCommand(trendsSearchCmd)
	trendsCmd.AddCommand(trendsExportCmd)
	trendsCmd.AddCommand(trendsStatusCmd)

	rootCmd.AddCommand(trendsCmd)
}
