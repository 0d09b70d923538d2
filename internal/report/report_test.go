package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklab/tmdb-enricher/internal/dataset"
	"github.com/flicklab/tmdb-enricher/internal/report"
)

func testTable() *dataset.Table {
	runtime := int64(139)
	budget := int64(63000000)
	return &dataset.Table{Rows: []dataset.Row{
		{
			Index: 0, MovieID: 2959, Title: "Fight Club (1999)",
			Enrichment: dataset.Enrichment{
				Synopsis: "A man meets a soap maker.",
				Director: "David Fincher",
				Runtime:  &runtime,
				Budget:   &budget,
			},
		},
		{Index: 1, MovieID: 7, Title: "Sabrina (1995)"},
		{
			Index: 2, MovieID: 296, Title: "Pulp Fiction (1994)",
			Enrichment: dataset.Enrichment{Synopsis: "Hitmen talk.", Adult: false},
		},
		{Index: 3, MovieID: 1, Title: "Toy Story (1995)"},
	}}
}

func TestSummarizeCoverage(t *testing.T) {
	t.Parallel()

	summary, err := report.Summarize(testTable(), []string{"synopsis", "director", "budget", "adult"})
	require.NoError(t, err)
	require.Equal(t, 4, summary.TotalRows)

	byField := map[string]report.FieldCoverage{}
	for _, cov := range summary.Coverage {
		byField[cov.Field] = cov
	}
	assert.Equal(t, 2, byField["synopsis"].Count)
	assert.InDelta(t, 50.0, byField["synopsis"].Percent, 1e-9)
	assert.Equal(t, 1, byField["director"].Count)
	assert.Equal(t, 1, byField["budget"].Count)
	assert.Equal(t, 0, byField["adult"].Count)
}

func TestSummarizeDefaultsToAllFields(t *testing.T) {
	t.Parallel()

	summary, err := report.Summarize(testTable(), nil)
	require.NoError(t, err)
	assert.Len(t, summary.Coverage, len(dataset.EnrichmentColumns()))
}

func TestSummarizeUnknownFieldFails(t *testing.T) {
	t.Parallel()

	_, err := report.Summarize(testTable(), []string{"synopsis", "bogus"})
	require.ErrorContains(t, err, "bogus")
}

func TestSummarizeSamples(t *testing.T) {
	t.Parallel()

	summary, err := report.Summarize(testTable(), nil)
	require.NoError(t, err)
	require.Len(t, summary.Samples, 2)
	assert.Equal(t, "Fight Club (1999)", summary.Samples[0].Title)
	assert.Equal(t, "Pulp Fiction (1994)", summary.Samples[1].Title)
}

func TestSummarizeEmptyTable(t *testing.T) {
	t.Parallel()

	summary, err := report.Summarize(&dataset.Table{}, []string{"synopsis"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalRows)
	assert.Equal(t, 0.0, summary.Coverage[0].Percent)
	assert.Empty(t, summary.Samples)
}

func TestRender(t *testing.T) {
	t.Parallel()

	summary, err := report.Summarize(testTable(), []string{"synopsis", "director"})
	require.NoError(t, err)

	var sb strings.Builder
	report.Render(&sb, summary)
	out := sb.String()

	assert.Contains(t, out, "4 rows")
	assert.Contains(t, out, "synopsis")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Fight Club (1999)")
	assert.Contains(t, out, "David Fincher")
}
