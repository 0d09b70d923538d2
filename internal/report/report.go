// Package report computes coverage statistics over the enriched table and
// renders the end-of-run summary.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/flicklab/tmdb-enricher/internal/dataset"
)

// maxSamples bounds the example rows shown in the summary.
const maxSamples = 3

// synopsisPreview truncates sampled synopses for display.
const synopsisPreview = 150

// FieldCoverage is the populated-value count for one enrichment field.
type FieldCoverage struct {
	Field   string
	Count   int
	Percent float64
}

// Summary is the end-of-run report: per-field coverage plus a few example
// rows with a populated synopsis.
type Summary struct {
	TotalRows int
	Coverage  []FieldCoverage
	Samples   []dataset.Row
}

// populated reports whether a field holds a non-default value: non-empty
// for text, non-nil for numerics, true for the adult flag.
var populated = map[string]func(dataset.Row) bool{
	"synopsis":             func(r dataset.Row) bool { return r.Synopsis != "" },
	"tagline":              func(r dataset.Row) bool { return r.Tagline != "" },
	"release_date":         func(r dataset.Row) bool { return r.ReleaseDate != "" },
	"runtime":              func(r dataset.Row) bool { return r.Runtime != nil },
	"original_language":    func(r dataset.Row) bool { return r.OriginalLanguage != "" },
	"original_title":       func(r dataset.Row) bool { return r.OriginalTitle != "" },
	"status":               func(r dataset.Row) bool { return r.Status != "" },
	"budget":               func(r dataset.Row) bool { return r.Budget != nil },
	"revenue":              func(r dataset.Row) bool { return r.Revenue != nil },
	"vote_average":         func(r dataset.Row) bool { return r.VoteAverage != nil },
	"vote_count":           func(r dataset.Row) bool { return r.VoteCount != nil },
	"popularity":           func(r dataset.Row) bool { return r.Popularity != nil },
	"cast":                 func(r dataset.Row) bool { return r.Cast != "" },
	"director":             func(r dataset.Row) bool { return r.Director != "" },
	"keywords":             func(r dataset.Row) bool { return r.Keywords != "" },
	"production_companies": func(r dataset.Row) bool { return r.ProductionCompanies != "" },
	"production_countries": func(r dataset.Row) bool { return r.ProductionCountries != "" },
	"adult":                func(r dataset.Row) bool { return r.Adult },
	"homepage":             func(r dataset.Row) bool { return r.Homepage != "" },
}

// Summarize computes coverage for the given fields. An unknown field name
// is a configuration error and fails immediately.
func Summarize(t *dataset.Table, fields []string) (Summary, error) {
	if len(fields) == 0 {
		fields = dataset.EnrichmentColumns()
	}
	for _, field := range fields {
		if _, ok := populated[field]; !ok {
			return Summary{}, fmt.Errorf("unknown enrichment field %q", field)
		}
	}

	summary := Summary{TotalRows: t.Len()}
	for _, field := range fields {
		check := populated[field]
		count := 0
		for _, row := range t.Rows {
			if check(row) {
				count++
			}
		}
		cov := FieldCoverage{Field: field, Count: count}
		if t.Len() > 0 {
			cov.Percent = float64(count) / float64(t.Len()) * 100
		}
		summary.Coverage = append(summary.Coverage, cov)
	}

	for _, row := range t.Rows {
		if row.Synopsis == "" {
			continue
		}
		summary.Samples = append(summary.Samples, row)
		if len(summary.Samples) == maxSamples {
			break
		}
	}
	return summary, nil
}

// Render writes the summary as a coverage table followed by sample rows.
func Render(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Dataset enrichment complete: %d rows\n\n", s.TotalRows)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Field", "Populated", "Coverage"})
	for _, cov := range s.Coverage {
		tw.AppendRow(table.Row{cov.Field, cov.Count, fmt.Sprintf("%.1f%%", cov.Percent)})
	}
	tw.Render()

	if len(s.Samples) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSample enriched movies:\n")
	for _, row := range s.Samples {
		fmt.Fprintf(w, "\n%s\n", row.Title)
		fmt.Fprintf(w, "  Synopsis: %s\n", truncate(row.Synopsis, synopsisPreview))
		if row.Tagline != "" {
			fmt.Fprintf(w, "  Tagline: %s\n", row.Tagline)
		}
		if row.Director != "" {
			fmt.Fprintf(w, "  Director: %s\n", row.Director)
		}
		if row.Cast != "" {
			fmt.Fprintf(w, "  Cast: %s\n", row.Cast)
		}
		if row.Runtime != nil {
			fmt.Fprintf(w, "  Runtime: %d min\n", *row.Runtime)
		}
		if row.VoteAverage != nil && row.VoteCount != nil {
			fmt.Fprintf(w, "  Rating: %.1f/10 (%d votes)\n", *row.VoteAverage, *row.VoteCount)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
