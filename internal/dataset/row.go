// Package dataset loads the MovieLens tables, joins them against the TMDB
// cross-reference, and persists the enriched output table.
package dataset

import "strconv"

// Enrichment holds the TMDB-derived columns for one movie. String fields
// default to the empty string, numeric fields to nil (an empty CSV cell),
// and Adult to false. List-valued fields are pipe-joined.
type Enrichment struct {
	Synopsis            string
	Tagline             string
	ReleaseDate         string
	Runtime             *int64
	OriginalLanguage    string
	OriginalTitle       string
	Status              string
	Budget              *int64
	Revenue             *int64
	VoteAverage         *float64
	VoteCount           *int64
	Popularity          *float64
	Cast                string
	Director            string
	Keywords            string
	ProductionCompanies string
	ProductionCountries string
	Adult               bool
	Homepage            string
}

// ListDelimiter joins multi-valued fields (cast, director, keywords,
// production companies/countries). TMDB names do not contain it.
const ListDelimiter = "|"

// EnrichmentColumns returns the enrichment column names in canonical order.
func EnrichmentColumns() []string {
	return []string{
		"synopsis", "tagline", "release_date", "runtime", "original_language",
		"original_title", "status", "budget", "revenue", "vote_average",
		"vote_count", "popularity", "cast", "director", "keywords",
		"production_companies", "production_countries", "adult", "homepage",
	}
}

// Row is one movie in load order. Index is the row's position in the
// canonical load order and is the identity used for checkpointing; TMDBID
// is nil when links.csv carries no mapping for the movie.
type Row struct {
	Index   int
	MovieID int64
	Title   string
	Genres  string
	IMDBID  string
	TMDBID  *int64

	Enrichment
}

// Table is the full row set. It is owned and mutated by the enrichment
// driver only.
type Table struct {
	Rows []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// SetEnrichment replaces the enrichment fields of the row at index.
func (t *Table) SetEnrichment(index int, e Enrichment) {
	t.Rows[index].Enrichment = e
}

func (e Enrichment) record() []string {
	return []string{
		e.Synopsis,
		e.Tagline,
		e.ReleaseDate,
		formatInt(e.Runtime),
		e.OriginalLanguage,
		e.OriginalTitle,
		e.Status,
		formatInt(e.Budget),
		formatInt(e.Revenue),
		formatFloat(e.VoteAverage),
		formatInt(e.VoteCount),
		formatFloat(e.Popularity),
		e.Cast,
		e.Director,
		e.Keywords,
		e.ProductionCompanies,
		e.ProductionCountries,
		strconv.FormatBool(e.Adult),
		e.Homepage,
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseIntCell(cell string) (*int64, error) {
	if cell == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFloatCell(cell string) (*float64, error) {
	if cell == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
