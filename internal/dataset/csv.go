package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var baseColumns = []string{"movieId", "title", "genres", "imdbId", "tmdbId"}

// OutputColumns returns the full output header: the original columns
// followed by the enrichment columns.
func OutputColumns() []string {
	return append(append([]string(nil), baseColumns...), EnrichmentColumns()...)
}

// Write overwrites path with the full table. The file is written to a
// temporary sibling and renamed into place so a crash mid-flush cannot
// leave a truncated table behind.
func (t *Table) Write(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(OutputColumns()); err != nil {
		tmp.Close()
		return fmt.Errorf("write output header: %w", err)
	}
	for _, row := range t.Rows {
		rec := []string{
			strconv.FormatInt(row.MovieID, 10),
			row.Title,
			row.Genres,
			row.IMDBID,
			formatInt(row.TMDBID),
		}
		rec = append(rec, row.Enrichment.record()...)
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write output row %d: %w", row.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace output %s: %w", path, err)
	}
	return nil
}

// ReadEnriched loads a previously written output table so an interrupted
// run can resume with the values it already fetched.
func ReadEnriched(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open enriched table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read enriched header: %w", err)
	}
	want := OutputColumns()
	if len(header) != len(want) {
		return nil, fmt.Errorf("enriched table has %d columns, want %d", len(header), len(want))
	}
	for i, col := range want {
		if header[i] != col {
			return nil, fmt.Errorf("enriched table column %d is %q, want %q", i, header[i], col)
		}
	}

	table := &Table{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read enriched row: %w", err)
		}
		row, err := parseEnrichedRecord(len(table.Rows), rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(table.Rows), err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func parseEnrichedRecord(index int, rec []string) (Row, error) {
	movieID, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse movieId: %w", err)
	}
	tmdbID, err := parseIntCell(rec[4])
	if err != nil {
		return Row{}, fmt.Errorf("parse tmdbId: %w", err)
	}
	e, err := parseEnrichmentCells(rec[len(baseColumns):])
	if err != nil {
		return Row{}, err
	}
	return Row{
		Index:      index,
		MovieID:    movieID,
		Title:      rec[1],
		Genres:     rec[2],
		IMDBID:     rec[3],
		TMDBID:     tmdbID,
		Enrichment: e,
	}, nil
}

func parseEnrichmentCells(cells []string) (Enrichment, error) {
	e := Enrichment{
		Synopsis:            cells[0],
		Tagline:             cells[1],
		ReleaseDate:         cells[2],
		OriginalLanguage:    cells[4],
		OriginalTitle:       cells[5],
		Status:              cells[6],
		Cast:                cells[12],
		Director:            cells[13],
		Keywords:            cells[14],
		ProductionCompanies: cells[15],
		ProductionCountries: cells[16],
		Homepage:            cells[18],
	}
	var err error
	if e.Runtime, err = parseIntCell(cells[3]); err != nil {
		return Enrichment{}, fmt.Errorf("parse runtime: %w", err)
	}
	if e.Budget, err = parseIntCell(cells[7]); err != nil {
		return Enrichment{}, fmt.Errorf("parse budget: %w", err)
	}
	if e.Revenue, err = parseIntCell(cells[8]); err != nil {
		return Enrichment{}, fmt.Errorf("parse revenue: %w", err)
	}
	if e.VoteAverage, err = parseFloatCell(cells[9]); err != nil {
		return Enrichment{}, fmt.Errorf("parse vote_average: %w", err)
	}
	if e.VoteCount, err = parseIntCell(cells[10]); err != nil {
		return Enrichment{}, fmt.Errorf("parse vote_count: %w", err)
	}
	if e.Popularity, err = parseFloatCell(cells[11]); err != nil {
		return Enrichment{}, fmt.Errorf("parse popularity: %w", err)
	}
	if cells[17] != "" {
		if e.Adult, err = strconv.ParseBool(cells[17]); err != nil {
			return Enrichment{}, fmt.Errorf("parse adult: %w", err)
		}
	}
	return e, nil
}
