package match

import (
	"strconv"
	"strings"
)

// MovieCandidate is one hit of a movie search page.
type MovieCandidate struct {
	ID            int
	Title         string
	OriginalTitle string
	ReleaseDate   string
}

// MovieMatch is the resolved candidate and the title variant that matched.
type MovieMatch struct {
	Index int
	ID    int
	Title string
}

// BestMovie compares the expected title against every candidate's title and
// then every original title. A unique best ratio wins outright. Several
// equal best ratios are broken by the first one whose release date contains
// year; when none does the movie is reported as not found rather than
// guessed. Year 0 takes the first of the tied candidates.
func BestMovie(cands []MovieCandidate, title string, year int) (MovieMatch, bool) {
	if len(cands) == 0 {
		return MovieMatch{}, false
	}
	want := strings.ToLower(title)

	n := len(cands)
	titles := make([]string, 0, 2*n)
	for _, c := range cands {
		titles = append(titles, c.Title)
	}
	for _, c := range cands {
		titles = append(titles, c.OriginalTitle)
	}

	ratios := make([]float64, len(titles))
	best := 0
	for i, t := range titles {
		ratios[i] = Ratio(strings.ToLower(t), want)
		if ratios[i] > ratios[best] {
			best = i
		}
	}

	var tied []int
	for i, r := range ratios {
		if r == ratios[best] {
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return movieMatch(cands, titles, best), true
	}

	if year == 0 {
		return movieMatch(cands, titles, tied[0]), true
	}
	y := strconv.Itoa(year)
	for _, i := range tied {
		if strings.Contains(cands[i%n].ReleaseDate, y) {
			return movieMatch(cands, titles, i), true
		}
	}
	return MovieMatch{}, false
}

func movieMatch(cands []MovieCandidate, titles []string, i int) MovieMatch {
	c := cands[i%len(cands)]
	return MovieMatch{Index: i % len(cands), ID: c.ID, Title: titles[i]}
}
