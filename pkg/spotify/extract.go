package spotify

import (
	"strings"

	"soundtrack/internal/models"
	"soundtrack/pkg/match"
)

// bannedTrackWords mark alternate takes that are not part of the original
// soundtrack. Matching is case sensitive: "Live" and "live" are
// listed, "LIVE" is not.
var bannedTrackWords = []string{"Remastered", "Remaster", "remaster", "live", "Live", "Bonus"}

func ComposerFromArtist(a Artist) models.SpotifyComposer {
	return models.SpotifyComposer{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     a.Genres,
		Followers:  a.Followers.Total,
		Popularity: a.Popularity,
	}
}

// MusicFromTrack builds a music record; the composer is the first credited
// artist.
func MusicFromTrack(t Track, genres []string) models.Music {
	m := models.Music{
		ID:         t.ID,
		Name:       t.Name,
		Genres:     genres,
		Popularity: t.Popularity,
	}
	if len(t.Artists) > 0 {
		m.ComposerID = t.Artists[0].ID
	}
	return m
}

// PlayableTrackIDs returns the ids of album tracks whose names carry none of
// the banned words.
func PlayableTrackIDs(at AlbumTracks) []string {
	var ids []string
	for _, t := range at.Items {
		if containsAny(t.Name, bannedTrackWords) {
			continue
		}
		ids = append(ids, t.ID)
	}
	return ids
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// toMatchAlbums converts search hits for the album matcher.
func toMatchAlbums(items []Album) []match.Album {
	out := make([]match.Album, len(items))
	for i, a := range items {
		artists := make([]string, len(a.Artists))
		for j, ar := range a.Artists {
			artists[j] = ar.Name
		}
		out[i] = match.Album{Name: a.Name, ReleaseDate: a.ReleaseDate, Artists: artists}
	}
	return out
}
