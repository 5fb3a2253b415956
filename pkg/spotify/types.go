package spotify

// Artist is both a search hit and a full /artists entry; search hits leave
// the counters empty.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Followers  Followers `json:"followers"`
	Popularity int       `json:"popularity"`
}

type Followers struct {
	Total int `json:"total"`
}

type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date"`
	Artists     []Artist `json:"artists"`
}

type AlbumSearch struct {
	Albums struct {
		Items []Album `json:"items"`
	} `json:"albums"`
}

type ArtistSearch struct {
	Artists struct {
		Items []Artist `json:"items"`
	} `json:"artists"`
}

// ArtistsResponse is /artists?ids=. Unknown ids come back as null.
type ArtistsResponse struct {
	Artists []*Artist `json:"artists"`
}

// AlbumTracks is the first page of /albums/{id}/tracks.
type AlbumTracks struct {
	Items []SimpleTrack `json:"items"`
}

type SimpleTrack struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Artists    []Artist `json:"artists"`
}

// TracksResponse is /tracks?ids=. Unknown ids come back as null.
type TracksResponse struct {
	Tracks []*Track `json:"tracks"`
}
