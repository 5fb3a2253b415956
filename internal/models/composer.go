package models

// Gender as reported by TMDB.
const (
	GenderUndefined = 0
	GenderFemale    = 1
	GenderMale      = 2
)

// Composer is a TMDB person credited as composer. Identity is the TMDB id.
type Composer struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Birthday     string `json:"birthday,omitempty"`
	Gender       int    `json:"gender"`
	Homepage     string `json:"homepage,omitempty"`
	PlaceOfBirth string `json:"place_of_birth,omitempty"`
	Country      string `json:"country,omitempty"`
	// FirstCredit is the release date (YYYY-MM-DD) of the earliest movie
	// the person composed for, empty when unknown.
	FirstCredit string `json:"date_first_appearance,omitempty"`
}

func (c Composer) SameAs(o Composer) bool { return c.ID == o.ID }

// SpotifyComposer is a composer's Spotify artist profile.
type SpotifyComposer struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
}

func (c SpotifyComposer) SameAs(o SpotifyComposer) bool { return c.ID == o.ID }

// Music is a Spotify track that belongs to a movie soundtrack.
type Music struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genre"`
	ComposerID string   `json:"composer_id"`
	Popularity int      `json:"popularity"`
}

func (m Music) SameAs(o Music) bool { return m.ID == o.ID }

// Identified is implemented by records whose identity is an external id.
type Identified[K comparable] interface {
	Key() K
}

func (c Composer) Key() int           { return c.ID }
func (c SpotifyComposer) Key() string { return c.ID }
func (m Music) Key() string           { return m.ID }

// Unique drops records whose id was already seen, keeping the first.
func Unique[K comparable, T Identified[K]](in []T) []T {
	seen := make(map[K]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out
}
