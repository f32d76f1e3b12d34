// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatReport writes a human-readable score report to w.
func FormatReport(r Report, w io.Writer) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "EVIDENCE SCORE: %.1f/10 (%s)\n", r.Total, r.Grade)
	fmt.Fprintln(w, rule)

	in := r.Inputs
	fmt.Fprintln(w, "\nStudy counts:")
	fmt.Fprintf(w, "  total studies:       %d\n", in.TotalStudies())
	fmt.Fprintf(w, "  meta-analyses:       %d\n", in.MetaAnalyses)
	fmt.Fprintf(w, "  human RCTs:          %d\n", in.HumanRCTs)
	fmt.Fprintf(w, "  other human studies: %d\n", in.HumanOther)
	fmt.Fprintf(w, "  animal studies:      %d\n", in.AnimalStudies)
	fmt.Fprintf(w, "  in vitro:            %d\n", in.InVitro)
	if in.AvgSampleSize > 0 {
		fmt.Fprintf(w, "  avg sample size:     %.0f\n", in.AvgSampleSize)
	}
	if in.HasRecency {
		fmt.Fprintf(w, "  years since last:    %d\n", in.YearsSinceLast)
	}

	fmt.Fprintln(w, "\nComponents (weighted contribution / ceiling):")
	fmt.Fprintf(w, "  quantity:    %.2f / %.1f\n", r.Quantity, weightQuantity*10)
	fmt.Fprintf(w, "  quality:     %.2f / %.1f\n", r.Quality, weightQuality*10)
	fmt.Fprintf(w, "  consistency: %.2f / %.1f\n", r.Consistency, weightConsistency*10)
	fmt.Fprintf(w, "  recency:     %.2f / %.1f\n", r.Recency, weightRecency*10)
	fmt.Fprintf(w, "  raw score:   %.2f\n", r.RawScore)

	if len(r.Adjustments) > 0 {
		fmt.Fprintln(w, "\nAdjustments:")
		for _, a := range r.Adjustments {
			fmt.Fprintf(w, "  %+.2f  %-13s %s\n", a.Delta, a.Name, a.Reason)
		}
	}

	if r.SkippedRecords > 0 {
		fmt.Fprintf(w, "\nwarning: %d malformed study record(s) skipped during aggregation\n", r.SkippedRecords)
	}

	fmt.Fprintln(w, rule)
}

// FormatJSON writes the report as indented JSON to w.
func FormatJSON(r Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
