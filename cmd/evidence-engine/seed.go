// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/seed"
	"github.com/pdiddy/evidence-engine/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <seed file>",
	Short: "Load the trend and claim catalog from a YAML file",
	Long: `Seed reads a YAML catalog of categories, trends, and claims and upserts
it into the store. Seeding is idempotent: rerunning updates names, aliases,
and descriptions without touching existing scores.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one seed file, e.g. seed/trends.yaml")
	}

	f, err := seed.Load(args[0])
	if err != nil {
		return err
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = seed.Apply(context.Background(), f, s, os.Stdout)
	return err
}
