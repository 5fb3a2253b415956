// Package dataset loads the CMU movie metadata and reshapes the enriched
// tables between stages.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"soundtrack/internal/models"
)

// RawMovie is one line of movie.metadata.tsv, unparsed except for the ids.
type RawMovie struct {
	WikiID      int
	FreebaseID  string
	Name        string
	ReleaseDate string
	Revenue     string
	Runtime     string
	Languages   string
	Countries   string
	Genres      string
}

// LoadMovies reads the CMU movie metadata TSV at path.
func LoadMovies(path string) ([]RawMovie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open movies: %w", err)
	}
	defer f.Close()
	return ReadMovies(f)
}

// ReadMovies parses the nine tab-separated CMU columns. The file has no
// header.
func ReadMovies(r io.Reader) ([]RawMovie, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var out []RawMovie
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("movies line %d: %w", line, err)
		}
		if len(rec) < 9 {
			return nil, fmt.Errorf("movies line %d: expected 9 columns, got %d", line, len(rec))
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("movies line %d: wiki id %q: %w", line, rec[0], err)
		}
		out = append(out, RawMovie{
			WikiID:      id,
			FreebaseID:  rec[1],
			Name:        rec[2],
			ReleaseDate: rec[3],
			Revenue:     rec[4],
			Runtime:     rec[5],
			Languages:   rec[6],
			Countries:   rec[7],
			Genres:      rec[8],
		})
	}
}

var releaseDate = regexp.MustCompile(`^(\d{4})(-\d{2}(-\d{2})?)?$`)

// CleanMovies keeps the rows that have a name, a parsable release year,
// countries and genres, reduces the release date to its year and dedupes on
// (name, year). Revenue may be missing.
func CleanMovies(raw []RawMovie) []models.Movie {
	movies := make([]models.Movie, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" || r.Countries == "" || r.Genres == "" {
			continue
		}
		m := releaseDate.FindStringSubmatch(strings.TrimSpace(r.ReleaseDate))
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])

		countries, err := freebaseValues(r.Countries)
		if err != nil {
			continue
		}
		genres, err := freebaseValues(r.Genres)
		if err != nil {
			continue
		}

		movie := models.Movie{
			WikiID:     r.WikiID,
			FreebaseID: r.FreebaseID,
			Name:       r.Name,
			Year:       year,
			Countries:  countries,
			Genres:     genres,
		}
		if rev, err := strconv.ParseFloat(strings.TrimSpace(r.Revenue), 64); err == nil {
			movie.Revenue = models.Int64(int64(rev))
		}
		movies = append(movies, movie)
	}
	return DedupeByNameYear(movies)
}

// freebaseValues turns {"/m/09c7w0": "United States of America"} into its
// values, sorted.
func freebaseValues(s string) ([]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
