package models

// ComposerLink ties one resolved movie to one of its composers. It is the
// input row of the Spotify soundtrack stages.
type ComposerLink struct {
	MovieID      int    `json:"tmdb_id"`
	ComposerID   int    `json:"comp_id"`
	MovieName    string `json:"movie_name"`
	Revenue      int64  `json:"movie_revenue"`
	ComposerName string `json:"composer_name"`
	Year         int    `json:"release_date"`
	PlaceOfBirth string `json:"composer_place_of_birth,omitempty"`
	Country      string `json:"composer_country,omitempty"`
}

// Soundtrack is the album matched for a movie together with its playable
// tracks.
type Soundtrack struct {
	ComposerLink
	AlbumID  string   `json:"album_id"`
	TrackIDs []string `json:"track_ids,omitempty"`
}

// AlbumTrack is one exploded (album, track) row, filled with the track's
// music record by the last stage.
type AlbumTrack struct {
	AlbumID string `json:"album_id"`
	TrackID string `json:"track_id"`
	Music   *Music `json:"track,omitempty"`
}
