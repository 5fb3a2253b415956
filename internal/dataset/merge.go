package dataset

import (
	"slices"
	"sort"
	"strings"

	"soundtrack/internal/models"
	"soundtrack/pkg/match"
)

type nameYear struct {
	name string
	year int
}

// sortByRevenue orders movies by revenue, largest first, unknown revenue
// last. Equal revenues keep their input order.
func sortByRevenue(movies []models.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].RevenueValue() > movies[j].RevenueValue()
	})
}

// DedupeByNameYear keeps one movie per (name, year): the one with the larger
// revenue. The result is sorted by revenue.
func DedupeByNameYear(movies []models.Movie) []models.Movie {
	out := slices.Clone(movies)
	sortByRevenue(out)

	seen := make(map[nameYear]struct{}, len(out))
	kept := out[:0]
	for _, m := range out {
		k := nameYear{m.Name, m.Year}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, m)
	}
	return kept
}

// CoalesceRevenue takes the CMU revenue when present and the TMDB one
// otherwise, drops movies with neither and sorts by revenue.
func CoalesceRevenue(movies []models.Movie) []models.Movie {
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.Revenue == nil {
			m.Revenue = m.TMDBRevenue
		}
		m.TMDBRevenue = nil
		if m.Revenue == nil {
			continue
		}
		out = append(out, m)
	}
	sortByRevenue(out)
	return out
}

// FilterResolved drops movies without a TMDB id. When several movies
// resolved to the same id only the one whose name is closest to the TMDB
// title survives; the first wins a tie.
func FilterResolved(movies []models.Movie) []models.Movie {
	best := map[int]int{}
	score := map[int]float64{}
	for i, m := range movies {
		if m.TMDBID == 0 {
			continue
		}
		r := match.Ratio(strings.ToLower(m.Name), strings.ToLower(m.TMDBTitle))
		if _, ok := best[m.TMDBID]; !ok || r > score[m.TMDBID] {
			best[m.TMDBID] = i
			score[m.TMDBID] = r
		}
	}

	out := make([]models.Movie, 0, len(best))
	for i, m := range movies {
		if m.TMDBID != 0 && best[m.TMDBID] == i {
			out = append(out, m)
		}
	}
	return out
}

// ComposerLinks flattens movies into unique (movie, composer) rows.
func ComposerLinks(movies []models.Movie) []models.ComposerLink {
	type pair struct{ movie, composer int }
	seen := map[pair]struct{}{}
	var out []models.ComposerLink
	for _, m := range movies {
		for _, c := range m.Composers {
			k := pair{m.TMDBID, c.ID}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, models.ComposerLink{
				MovieID:      m.TMDBID,
				ComposerID:   c.ID,
				MovieName:    m.Name,
				Revenue:      m.RevenueValue(),
				ComposerName: c.Name,
				Year:         m.Year,
				PlaceOfBirth: c.PlaceOfBirth,
				Country:      c.Country,
			})
		}
	}
	return out
}

// ComposerNames returns one composer per distinct name across movies,
// sorted by name. When TMDB lists several people under the same name the
// smallest id represents them, so the row key stays stable between runs.
func ComposerNames(movies []models.Movie) []models.Composer {
	byName := map[string]models.Composer{}
	for _, m := range movies {
		for _, c := range m.Composers {
			if prev, ok := byName[c.Name]; !ok || c.ID < prev.ID {
				byName[c.Name] = c
			}
		}
	}
	out := make([]models.Composer, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LinksOnSpotify keeps the links whose composer name has a Spotify profile.
func LinksOnSpotify(links []models.ComposerLink, composers []models.SpotifyComposer) []models.ComposerLink {
	known := make(map[string]struct{}, len(composers))
	for _, c := range composers {
		known[c.Name] = struct{}{}
	}
	var out []models.ComposerLink
	for _, l := range links {
		if _, ok := known[l.ComposerName]; ok {
			out = append(out, l)
		}
	}
	return out
}

// DedupeByMovie keeps the first soundtrack per movie name.
func DedupeByMovie(soundtracks []models.Soundtrack) []models.Soundtrack {
	seen := map[string]struct{}{}
	var out []models.Soundtrack
	for _, s := range soundtracks {
		if _, ok := seen[s.MovieName]; ok {
			continue
		}
		seen[s.MovieName] = struct{}{}
		out = append(out, s)
	}
	return out
}

// spotifyIDLen is the length of a base62 Spotify id.
const spotifyIDLen = 22

// ExplodeTracks turns soundtracks into one row per (album, track), dropping
// malformed track ids and repeated pairs.
func ExplodeTracks(soundtracks []models.Soundtrack) []models.AlbumTrack {
	type pair struct{ album, track string }
	seen := map[pair]struct{}{}
	var out []models.AlbumTrack
	for _, s := range soundtracks {
		for _, id := range s.TrackIDs {
			if len(id) != spotifyIDLen {
				continue
			}
			k := pair{s.AlbumID, id}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, models.AlbumTrack{AlbumID: s.AlbumID, TrackID: id})
		}
	}
	return out
}
