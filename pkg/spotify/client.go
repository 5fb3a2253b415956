// Package spotify searches Spotify for composer profiles and movie
// soundtracks and pulls their tracks.
package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"soundtrack/internal/models"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/match"
)

const (
	DefaultBaseURL = "https://api.spotify.com/v1"

	// MaxIDs is the number of ids joined into one /tracks or /artists call.
	MaxIDs = 49

	DefaultSearchBatchSize = 49
	DefaultCourtesy        = 2 * time.Second
)

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client

	// Fetch applies to every call. A zero Courtesy means DefaultCourtesy,
	// a negative one disables it.
	Fetch fetch.Options

	SearchBatchSize int
}

// Client holds one engine for searches and one for id lookups; both send
// the same bearer token.
type Client struct {
	baseURL string
	search  *fetch.Engine
	get     *fetch.Engine
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Fetch.Name == "" {
		cfg.Fetch.Name = "spotify"
	}
	if cfg.Fetch.Courtesy == 0 {
		cfg.Fetch.Courtesy = DefaultCourtesy
	}
	if cfg.SearchBatchSize <= 0 {
		cfg.SearchBatchSize = DefaultSearchBatchSize
	}

	searchOpts := cfg.Fetch
	searchOpts.BatchSize = cfg.SearchBatchSize

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		search:  fetch.New(cfg.HTTPClient, searchOpts).WithHeader("Content-Type", "application/json"),
		get:     fetch.New(cfg.HTTPClient, cfg.Fetch).WithHeader("Content-Type", "application/json"),
	}
	return c.WithToken(cfg.Token)
}

// WithToken returns a client that authenticates with token. The receiver
// keeps its old token.
func (c *Client) WithToken(token string) *Client {
	return &Client{
		baseURL: c.baseURL,
		search:  c.search.WithHeader("Authorization", "Bearer "+token),
		get:     c.get.WithHeader("Authorization", "Bearer "+token),
	}
}

func (c *Client) Close() {
	c.search.Close()
	c.get.Close()
}

func (c *Client) searchURL(query, kind, limit string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", kind)
	q.Set("limit", limit)
	return c.baseURL + "/search?" + q.Encode()
}

func (c *Client) AlbumSearchURL(name string) string  { return c.searchURL(name, "album", "50") }
func (c *Client) ArtistSearchURL(name string) string { return c.searchURL(name, "artist", "1") }

func (c *Client) AlbumTracksURL(albumID string) string {
	return c.baseURL + "/albums/" + url.PathEscape(albumID) + "/tracks"
}

func (c *Client) TracksURL(ids []string) string {
	return c.baseURL + "/tracks?ids=" + strings.Join(ids, ",")
}

func (c *Client) ArtistsURL(ids []string) string {
	return c.baseURL + "/artists?ids=" + strings.Join(ids, ",")
}

// SearchAlbums returns the first result page of an album search per name.
func (c *Client) SearchAlbums(ctx context.Context, names []string) ([]fetch.Result[[]Album], error) {
	urls := make([]string, len(names))
	for i, n := range names {
		urls[i] = c.AlbumSearchURL(n)
	}
	pages, err := fetch.Fetch[AlbumSearch](ctx, c.search, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[[]Album], len(pages))
	for i, p := range pages {
		if p.Found && len(p.Value.Albums.Items) > 0 {
			out[i] = fetch.Result[[]Album]{Value: p.Value.Albums.Items, Found: true}
		}
	}
	return out, nil
}

// MatchAlbums searches each target's name and returns the id of the best
// scoring album.
func (c *Client) MatchAlbums(ctx context.Context, m *match.Matcher, targets []match.Target) ([]fetch.Result[string], error) {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	pages, err := c.SearchAlbums(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[string], len(targets))
	for i, p := range pages {
		if !p.Found {
			continue
		}
		if best, ok := m.Best(toMatchAlbums(p.Value), targets[i]); ok {
			out[i] = fetch.Result[string]{Value: p.Value[best.Index].ID, Found: true}
		}
	}
	return out, nil
}

// SearchArtistIDs returns the id of the top artist hit per name.
func (c *Client) SearchArtistIDs(ctx context.Context, names []string) ([]fetch.Result[string], error) {
	urls := make([]string, len(names))
	for i, n := range names {
		urls[i] = c.ArtistSearchURL(n)
	}
	pages, err := fetch.Fetch[ArtistSearch](ctx, c.search, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[string], len(pages))
	for i, p := range pages {
		if p.Found && len(p.Value.Artists.Items) > 0 {
			out[i] = fetch.Result[string]{Value: p.Value.Artists.Items[0].ID, Found: true}
		}
	}
	return out, nil
}

// Artists looks up artist profiles, MaxIDs per request.
func (c *Client) Artists(ctx context.Context, ids []string) ([]fetch.Result[models.SpotifyComposer], error) {
	chunks := chunk(ids, MaxIDs)
	urls := make([]string, len(chunks))
	for i, ch := range chunks {
		urls[i] = c.ArtistsURL(ch)
	}
	pages, err := fetch.Fetch[ArtistsResponse](ctx, c.get, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[models.SpotifyComposer], 0, len(ids))
	for i, p := range pages {
		for j := range chunks[i] {
			var r fetch.Result[models.SpotifyComposer]
			if p.Found && j < len(p.Value.Artists) && p.Value.Artists[j] != nil {
				r = fetch.Result[models.SpotifyComposer]{Value: ComposerFromArtist(*p.Value.Artists[j]), Found: true}
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// AlbumTracks returns the playable track ids of every album. Albums without
// tracks yield Found=false.
func (c *Client) AlbumTracks(ctx context.Context, albumIDs []string) ([]fetch.Result[[]string], error) {
	urls := make([]string, len(albumIDs))
	for i, id := range albumIDs {
		urls[i] = c.AlbumTracksURL(id)
	}
	pages, err := fetch.Fetch[AlbumTracks](ctx, c.get, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[[]string], len(pages))
	for i, p := range pages {
		if p.Found && len(p.Value.Items) > 0 {
			out[i] = fetch.Result[[]string]{Value: PlayableTrackIDs(p.Value), Found: true}
		}
	}
	return out, nil
}

// Tracks looks up tracks, MaxIDs per request, and converts them to music
// records without genres.
func (c *Client) Tracks(ctx context.Context, ids []string) ([]fetch.Result[models.Music], error) {
	chunks := chunk(ids, MaxIDs)
	urls := make([]string, len(chunks))
	for i, ch := range chunks {
		urls[i] = c.TracksURL(ch)
	}
	pages, err := fetch.Fetch[TracksResponse](ctx, c.get, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[models.Music], 0, len(ids))
	for i, p := range pages {
		for j := range chunks[i] {
			var r fetch.Result[models.Music]
			if p.Found && j < len(p.Value.Tracks) && p.Value.Tracks[j] != nil {
				r = fetch.Result[models.Music]{Value: MusicFromTrack(*p.Value.Tracks[j], nil), Found: true}
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}
