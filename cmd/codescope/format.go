package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/codescope/codescope"
	"github.com/codescope/codescope/internal/jobstore"
)

// outputResult prints the analysis report in the requested format.
func outputResult(w io.Writer, format string, res *codescope.Result, top int, recs []codescope.Recommendation) error {
	if format == "json" {
		payload := struct {
			*codescope.Result
			Recommendations []codescope.Recommendation `json:"recommendations,omitempty"`
		}{res, recs}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}
	formatResultText(w, res, top, recs)
	return nil
}

func formatResultText(w io.Writer, res *codescope.Result, top int, recs []codescope.Recommendation) {
	m := res.Metrics
	fmt.Fprintf(w, "Project %s\n", res.ProjectID)
	fmt.Fprintf(w, "  Files: %d  Lines: %d\n", m.TotalFiles, m.TotalLines)
	fmt.Fprintf(w, "  Mean complexity: %.2f  Mean maintainability: %.1f\n",
		m.MeanComplexity, m.MeanMaintainability)
	if len(m.Languages) > 0 {
		names := make([]string, 0, len(m.Languages))
		for name := range m.Languages {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "  Languages:")
		for _, name := range names {
			fmt.Fprintf(w, " %s(%d)", name, m.Languages[name])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	if risks := res.Query().TopRisks(top); len(risks) > 0 {
		fmt.Fprintln(w, "Highest risk files:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tRISK\tSEVERITY\tCOMPLEXITY\tMAINTAINABILITY")
		for _, n := range risks {
			fmt.Fprintf(tw, "%s\t%.3f\t%s\t%.1f\t%.1f\n",
				n.Path, *n.Risk, n.Severity, n.Complexity, n.Maintainability)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(m.ImportCycles) > 0 {
		fmt.Fprintln(w, "Import cycles:")
		for _, cycle := range m.ImportCycles {
			fmt.Fprintf(w, "  %v\n", cycle)
		}
		fmt.Fprintln(w)
	}

	if len(res.Diagnostics) > 0 {
		fmt.Fprintf(w, "Diagnostics (%d):\n", len(res.Diagnostics))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Code, d.Path, d.Message)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(recs) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range recs {
			fmt.Fprintf(w, "  [%s] %s\n", r.Category, r.Title)
			if r.Description != "" {
				fmt.Fprintf(w, "      %s\n", r.Description)
			}
		}
	}
}

// outputJobs prints job history records.
func outputJobs(w io.Writer, format string, recs []*jobstore.Record) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT\tSTATE\tFILES\tDIAGS\tSTARTED\tDURATION")
	for _, r := range recs {
		duration := ""
		if !r.CompletedAt.IsZero() {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.ProjectID, r.State, r.TotalFiles, r.Diagnostics,
			r.StartedAt.Format(time.RFC3339), duration)
	}
	return tw.Flush()
}
