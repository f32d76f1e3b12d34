// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/scoring"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score evidence from study counts or a study file",
	Long: `Score runs the evidence engine on pre-tallied study counts supplied via
flags, or on a YAML/JSON file of study records supplied via --studies.
The report shows the component breakdown and every adjustment applied.

Examples:
  evidence-engine score --rcts 5 --meta 1 --other 3 --avg-sample 60 --supporting 9 --years-since 2
  evidence-engine score --studies studies.yaml --json`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("studies", "", "YAML or JSON file of study records to aggregate and score")
	scoreCmd.Flags().Int("rcts", 0, "number of human randomized controlled trials")
	scoreCmd.Flags().Int("meta", 0, "number of meta-analyses and systematic reviews")
	scoreCmd.Flags().Int("other", 0, "number of other human studies")
	scoreCmd.Flags().Int("animal", 0, "number of animal studies")
	scoreCmd.Flags().Int("in-vitro", 0, "number of in vitro studies")
	scoreCmd.Flags().Float64("avg-sample", 0, "average human sample size (0 = unknown)")
	scoreCmd.Flags().Int("supporting", 0, "studies whose findings support the claim")
	scoreCmd.Flags().Int("contradicting", 0, "studies whose findings contradict the claim")
	scoreCmd.Flags().Int("mixed", 0, "studies with mixed findings")
	scoreCmd.Flags().Int("years-since", -1, "years since the most recent study (-1 = no dated studies)")
	scoreCmd.Flags().Float64("replication", 0, "replication strength signal on a 0-3 scale")
	scoreCmd.Flags().Int("current-year", 0, "reference year for recency (default: wall clock)")
	scoreCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	studiesFile, _ := cmd.Flags().GetString("studies")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var (
		report scoring.Report
		err    error
	)
	if studiesFile != "" {
		report, err = scoreStudiesFile(cmd, studiesFile)
	} else {
		report, err = scoreCounts(cmd)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return scoring.FormatJSON(report, os.Stdout)
	}
	scoring.FormatReport(report, os.Stdout)
	return nil
}

func scoreStudiesFile(cmd *cobra.Command, path string) (scoring.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("reading study file: %w", err)
	}

	var studies []types.Study
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &studies)
	} else {
		err = yaml.Unmarshal(data, &studies)
	}
	if err != nil {
		return scoring.Report{}, fmt.Errorf("parsing study file: %w", err)
	}

	currentYear, _ := cmd.Flags().GetInt("current-year")
	return scoring.ScoreStudies(studies, currentYear)
}

func scoreCounts(cmd *cobra.Command) (scoring.Report, error) {
	flags := cmd.Flags()

	rcts, _ := flags.GetInt("rcts")
	meta, _ := flags.GetInt("meta")
	other, _ := flags.GetInt("other")
	animal, _ := flags.GetInt("animal")
	inVitro, _ := flags.GetInt("in-vitro")
	avgSample, _ := flags.GetFloat64("avg-sample")
	supporting, _ := flags.GetInt("supporting")
	contradicting, _ := flags.GetInt("contradicting")
	mixed, _ := flags.GetInt("mixed")
	yearsSince, _ := flags.GetInt("years-since")
	replication, _ := flags.GetFloat64("replication")

	in := scoring.Inputs{
		HumanRCTs:     rcts,
		MetaAnalyses:  meta,
		HumanOther:    other,
		AnimalStudies: animal,
		InVitro:       inVitro,
		AvgSampleSize: avgSample,
		Supporting:    supporting,
		Contradicting: contradicting,
		Mixed:         mixed,
		Replication:   replication,
	}
	if yearsSince >= 0 {
		in.HasRecency = true
		in.YearsSinceLast = yearsSince
	}
	return scoring.Score(in)
}
