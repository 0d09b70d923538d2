package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type link struct {
	imdbID string
	tmdbID *int64
}

// Load reads movies.csv and links.csv and left-joins them on movieId.
// Rows without a links entry survive with a nil TMDBID. Row order follows
// movies.csv and must stay stable for the lifetime of a checkpoint.
func Load(moviesPath, linksPath string) (*Table, error) {
	links, err := loadLinks(linksPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(moviesPath)
	if err != nil {
		return nil, fmt.Errorf("open movies table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read movies header: %w", err)
	}
	idx, err := columnIndex(header, "movieId", "title", "genres")
	if err != nil {
		return nil, fmt.Errorf("movies table: %w", err)
	}

	table := &Table{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read movies row: %w", err)
		}
		movieID, err := strconv.ParseInt(rec[idx["movieId"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse movieId %q: %w", rec[idx["movieId"]], err)
		}
		row := Row{
			Index:   len(table.Rows),
			MovieID: movieID,
			Title:   rec[idx["title"]],
			Genres:  rec[idx["genres"]],
		}
		if l, ok := links[movieID]; ok {
			row.IMDBID = l.imdbID
			row.TMDBID = l.tmdbID
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func loadLinks(path string) (map[int64]link, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read links header: %w", err)
	}
	idx, err := columnIndex(header, "movieId", "imdbId", "tmdbId")
	if err != nil {
		return nil, fmt.Errorf("links table: %w", err)
	}

	links := make(map[int64]link)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read links row: %w", err)
		}
		movieID, err := strconv.ParseInt(rec[idx["movieId"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse links movieId %q: %w", rec[idx["movieId"]], err)
		}
		tmdbID, err := parseIntCell(strings.TrimSpace(rec[idx["tmdbId"]]))
		if err != nil {
			return nil, fmt.Errorf("parse tmdbId for movie %d: %w", movieID, err)
		}
		links[movieID] = link{
			imdbID: rec[idx["imdbId"]],
			tmdbID: tmdbID,
		}
	}
	return links, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for _, want := range required {
		found := -1
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), want) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("missing required column %q", want)
		}
		idx[want] = found
	}
	return idx, nil
}
