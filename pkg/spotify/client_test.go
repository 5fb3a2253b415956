package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"soundtrack/internal/models"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/match"
)

type fakeSpotify struct {
	mu   sync.Mutex
	auth map[string]int
	ids  []string
}

func (f *fakeSpotify) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	track := func(r *http.Request) {
		f.mu.Lock()
		f.auth[r.Header.Get("Authorization")]++
		f.mu.Unlock()
	}

	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		q := r.URL.Query()
		switch q.Get("type") {
		case "album":
			var res AlbumSearch
			if q.Get("q") == "Gladiator" {
				res.Albums.Items = []Album{
					{ID: "live", Name: "Gladiator Live", ReleaseDate: "2000-04-25", Artists: []Artist{{Name: "Hans Zimmer"}}},
					{ID: "ost", Name: "Gladiator (Original Motion Picture Soundtrack)", ReleaseDate: "2000-04-25", Artists: []Artist{{Name: "Hans Zimmer"}}},
					{ID: "other", Name: "Gladiator", ReleaseDate: "1992-01-01", Artists: []Artist{{Name: "Someone Else"}}},
				}
			}
			write(w, res)
		case "artist":
			var res ArtistSearch
			if q.Get("q") == "Hans Zimmer" {
				res.Artists.Items = []Artist{{ID: "hz", Name: "Hans Zimmer"}}
			}
			write(w, res)
		default:
			http.Error(w, "bad type", http.StatusBadRequest)
		}
	})
	mux.HandleFunc("GET /albums/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		if r.PathValue("id") != "ost" {
			write(w, AlbumTracks{})
			return
		}
		write(w, AlbumTracks{Items: []SimpleTrack{
			{ID: "t1", Name: "Progeny"},
			{ID: "t2", Name: "Now We Are Free - Live"},
			{ID: "t3", Name: "The Battle (Remastered 2020)"},
			{ID: "t4", Name: "Earth"},
		}})
	})
	mux.HandleFunc("GET /tracks", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		f.mu.Lock()
		f.ids = append(f.ids, r.URL.Query().Get("ids"))
		f.mu.Unlock()
		var res TracksResponse
		for _, id := range ids {
			if strings.HasPrefix(id, "missing") {
				res.Tracks = append(res.Tracks, nil)
				continue
			}
			res.Tracks = append(res.Tracks, &Track{ID: id, Name: "Track " + id, Popularity: 50, Artists: []Artist{{ID: "hz"}, {ID: "lg"}}})
		}
		write(w, res)
	})
	mux.HandleFunc("GET /artists", func(w http.ResponseWriter, r *http.Request) {
		track(r)
		var res ArtistsResponse
		for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
			if id == "nobody" {
				res.Artists = append(res.Artists, nil)
				continue
			}
			res.Artists = append(res.Artists, &Artist{ID: id, Name: "Artist " + id, Genres: []string{"soundtrack"},
				Followers: Followers{Total: 1000}, Popularity: 70})
		}
		write(w, res)
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeSpotify) {
	t.Helper()
	fake := &fakeSpotify{auth: map[string]int{}}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "tok-1",
		HTTPClient: srv.Client(),
		Fetch:      fetch.Options{Courtesy: -1},
	})
	t.Cleanup(c.Close)
	return c, fake
}

func TestURLs(t *testing.T) {
	c := NewClient(Config{Token: "x"})
	require.Equal(t, DefaultBaseURL+"/search?limit=50&q=Star+Wars&type=album", c.AlbumSearchURL("Star Wars"))
	require.Equal(t, DefaultBaseURL+"/search?limit=1&q=John+Williams&type=artist", c.ArtistSearchURL("John Williams"))
	require.Equal(t, DefaultBaseURL+"/albums/abc/tracks", c.AlbumTracksURL("abc"))
	require.Equal(t, DefaultBaseURL+"/tracks?ids=a,b", c.TracksURL([]string{"a", "b"}))
	require.Equal(t, DefaultBaseURL+"/artists?ids=a", c.ArtistsURL([]string{"a"}))
}

func TestMatchAlbums(t *testing.T) {
	c, _ := newTestClient(t)
	m := match.NewMatcher(match.DefaultKeywords())

	got, err := c.MatchAlbums(context.Background(), m, []match.Target{
		{Name: "Gladiator", Year: 2000, Artist: "Hans Zimmer"},
		{Name: "Unknown Movie", Year: 2000, Artist: "Nobody"},
	})
	require.NoError(t, err)
	require.Equal(t, []fetch.Result[string]{{Value: "ost", Found: true}, {}}, got)
}

func TestSearchArtistIDsAndArtists(t *testing.T) {
	c, _ := newTestClient(t)
	ids, err := c.SearchArtistIDs(context.Background(), []string{"Hans Zimmer", "Nobody Known"})
	require.NoError(t, err)
	require.Equal(t, []fetch.Result[string]{{Value: "hz", Found: true}, {}}, ids)

	artists, err := c.Artists(context.Background(), []string{"hz", "nobody", "jw"})
	require.NoError(t, err)
	require.Len(t, artists, 3)
	require.Equal(t, models.SpotifyComposer{ID: "hz", Name: "Artist hz", Genres: []string{"soundtrack"}, Followers: 1000, Popularity: 70}, artists[0].Value)
	require.False(t, artists[1].Found)
	require.True(t, artists[2].Found)
}

func TestAlbumTracks(t *testing.T) {
	c, _ := newTestClient(t)
	got, err := c.AlbumTracks(context.Background(), []string{"ost", "empty"})
	require.NoError(t, err)
	require.Equal(t, []fetch.Result[[]string]{{Value: []string{"t1", "t4"}, Found: true}, {}}, got)
}

func TestTracksChunksIDs(t *testing.T) {
	c, fake := newTestClient(t)
	ids := make([]string, 0, 100)
	for i := range 100 {
		ids = append(ids, fmt.Sprintf("id%03d", i))
	}
	ids[50] = "missing-1"

	got, err := c.Tracks(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, got, 100)
	require.Len(t, fake.ids, 3, "100 ids at 49 per call")

	for i, r := range got {
		if i == 50 {
			require.False(t, r.Found)
			continue
		}
		require.True(t, r.Found)
		require.Equal(t, ids[i], r.Value.ID)
		require.Equal(t, "hz", r.Value.ComposerID)
	}
}

func TestWithTokenSwapsAuthorization(t *testing.T) {
	c, fake := newTestClient(t)
	_, err := c.SearchArtistIDs(context.Background(), []string{"Hans Zimmer"})
	require.NoError(t, err)

	c2 := c.WithToken("tok-2")
	_, err = c2.AlbumTracks(context.Background(), []string{"ost"})
	require.NoError(t, err)
	_, err = c.AlbumTracks(context.Background(), []string{"ost"})
	require.NoError(t, err)

	require.Equal(t, map[string]int{"Bearer tok-1": 2, "Bearer tok-2": 1}, fake.auth)
}

func TestPlayableTrackIDs(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Main Title", true},
		{"Main Title (Remastered)", false},
		{"Main Title - 2004 Remaster", false},
		{"remastered cut", false},
		{"Live at the Hollywood Bowl", false},
		{"Alive", false},
		{"Bonus Track", false},
		{"LIVE", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlayableTrackIDs(AlbumTracks{Items: []SimpleTrack{{ID: "x", Name: tt.name}}})
			require.Equal(t, tt.want, len(got) == 1)
		})
	}
}

func TestMusicFromTrack(t *testing.T) {
	m := MusicFromTrack(Track{ID: "t", Name: "Theme", Popularity: 3}, []string{"score"})
	require.Equal(t, models.Music{ID: "t", Name: "Theme", Genres: []string{"score"}, Popularity: 3}, m)
}

func TestAuthenticator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Method != http.MethodPost || r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_secret") != "s3cret" {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	a := Authenticator{TokenURL: srv.URL, ClientID: "id", ClientSecret: "s3cret", HTTPClient: srv.Client()}
	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh", tok.AccessToken)
	require.Equal(t, 3600, int(tok.Lifetime().Seconds()))

	a.ClientSecret = "wrong"
	_, err = a.Token(context.Background())
	require.ErrorContains(t, err, "401")

	_, err = Authenticator{}.Token(context.Background())
	require.Error(t, err)
}
