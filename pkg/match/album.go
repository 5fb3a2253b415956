package match

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Keywords drives album scoring. Lists are matched against lowercased,
// whitespace-split words.
type Keywords struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Neutral  []string `yaml:"neutral"`

	PositiveInfluence float64 `yaml:"positive_influence"`
	NegativeInfluence float64 `yaml:"negative_influence"`

	// ArtistThreshold is the minimum Ratio between the expected artist and
	// one of the album artists.
	ArtistThreshold float64 `yaml:"artist_threshold"`
	// VariousArtists always passes the artist filter.
	VariousArtists string `yaml:"various_artists"`
}

// DefaultKeywords returns the vocabulary tuned on the CMU/Spotify data.
func DefaultKeywords() Keywords {
	return Keywords{
		Positive: []string{"original", "motion", "picture", "soundtrack", "music", "band", "score", "theme",
			"ost", "ost.", "album", "composed", "conducted"},
		Negative: []string{"game", "video", "television", "series", "show", "episode", "season", "seasons",
			"remastered", "remaster", "live", "bonus"},
		Neutral: []string{"the", "of", "from", "in", "on", "at", "for", "a", "an", "and", "or", "with", "by",
			"to", "version", "vol", "vol.", "pt", "pt.", "part", "part.", "ver", "ver.", "&"},
		PositiveInfluence: 1.1,
		NegativeInfluence: 0.9,
		ArtistThreshold:   85,
		VariousArtists:    "Various Artists",
	}
}

// Album is the subset of a search hit the matcher needs.
type Album struct {
	Name        string
	ReleaseDate string
	Artists     []string
}

// Target describes what we are looking for. Year 0 and an empty Artist
// disable the corresponding filter.
type Target struct {
	Name   string
	Year   int
	Artist string
}

// Candidate is a surviving album and its score.
type Candidate struct {
	Index int
	Score float64
}

// Matcher scores albums with a fixed keyword configuration.
type Matcher struct {
	kw Keywords
}

// NewMatcher builds a Matcher. Zero influences and threshold fall back to
// the defaults; keyword lists are taken as given.
func NewMatcher(kw Keywords) *Matcher {
	def := DefaultKeywords()
	if kw.PositiveInfluence == 0 {
		kw.PositiveInfluence = def.PositiveInfluence
	}
	if kw.NegativeInfluence == 0 {
		kw.NegativeInfluence = def.NegativeInfluence
	}
	if kw.ArtistThreshold == 0 {
		kw.ArtistThreshold = def.ArtistThreshold
	}
	if kw.VariousArtists == "" {
		kw.VariousArtists = def.VariousArtists
	}
	return &Matcher{kw: kw}
}

// Score returns every album that passes the artist, year and longest-word
// filters, in input order.
func (m *Matcher) Score(albums []Album, t Target) []Candidate {
	var out []Candidate
	target := strings.ToLower(t.Name)
	targetWords := strings.Fields(target)
	if len(targetWords) == 0 {
		return nil
	}
	longest := longestWord(targetWords)
	keepParens := strings.ContainsAny(target, "()")

	for i, a := range albums {
		if t.Artist != "" && !m.artistMatches(t.Artist, a.Artists) {
			continue
		}
		if t.Year != 0 && !yearMatches(t.Year, a.ReleaseDate) {
			continue
		}

		name := strings.ToLower(a.Name)
		if !keepParens {
			name = strings.NewReplacer("(", "", ")", "").Replace(name)
		}
		words := strings.Fields(name)

		pos, posDrop := countAndDrop(targetWords, words, m.kw.Positive)
		neg, negDrop := countAndDrop(targetWords, words, m.kw.Negative)
		_, neuDrop := countAndDrop(targetWords, words, m.kw.Neutral)

		kept := words[:0:0]
		for _, w := range words {
			if posDrop[w] || negDrop[w] || neuDrop[w] {
				continue
			}
			kept = append(kept, w)
		}
		stripped := strings.Join(kept, " ")

		if !strings.Contains(stripped, longest) {
			continue
		}

		modifier := math.Pow(m.kw.PositiveInfluence, float64(pos)) * math.Pow(m.kw.NegativeInfluence, float64(neg))
		out = append(out, Candidate{Index: i, Score: modifier * Ratio(target, stripped)})
	}
	return out
}

// Best returns the highest scoring album. Ties go to the earliest album.
func (m *Matcher) Best(albums []Album, t Target) (Candidate, bool) {
	scores := m.Score(albums, t)
	if len(scores) == 0 {
		return Candidate{}, false
	}
	best := scores[0]
	for _, c := range scores[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

func (m *Matcher) artistMatches(expected string, artists []string) bool {
	want := strings.ToLower(expected)
	for _, a := range artists {
		if a == m.kw.VariousArtists {
			return true
		}
		if Ratio(want, strings.ToLower(a)) >= m.kw.ArtistThreshold {
			return true
		}
	}
	return false
}

func yearMatches(year int, releaseDate string) bool {
	for _, y := range []int{year, year - 1, year + 1} {
		if strings.Contains(releaseDate, strconv.Itoa(y)) {
			return true
		}
	}
	return false
}

// countAndDrop returns the keywords that do not occur in the target (they
// get stripped from the candidate) and how many of them the candidate has.
func countAndDrop(targetWords, candidateWords, keywords []string) (int, map[string]bool) {
	drop := make(map[string]bool, len(keywords))
	count := 0
	for _, k := range keywords {
		if slices.Contains(targetWords, k) || drop[k] {
			continue
		}
		drop[k] = true
		if slices.Contains(candidateWords, k) {
			count++
		}
	}
	return count, drop
}

func longestWord(words []string) string {
	longest := words[0]
	for _, w := range words[1:] {
		if utf8.RuneCountInString(w) > utf8.RuneCountInString(longest) {
			longest = w
		}
	}
	return longest
}
