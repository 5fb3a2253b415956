package enrich

import (
	"context"
	"fmt"
	"log"
	"time"

	"soundtrack/internal/checkpoint"
	"soundtrack/internal/env"
	"soundtrack/internal/models"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/match"
	"soundtrack/pkg/spotify"
)

// SpotifySession owns the Spotify client of a run and swaps its token on
// Refresh. The checkpoint driver only refreshes outside of a batch, so no
// request is in flight while the client changes.
//
// A token handed to NewSpotifySession has an unknown age and is replaced
// before the first batch of the first Spotify stage.
type SpotifySession struct {
	client  *spotify.Client
	auth    spotify.Authenticator
	env     *env.Config
	matcher *match.Matcher
	issued  time.Time
	now     func() time.Time
}

// NewSpotifySession wraps client. When store is not nil refreshed tokens are
// written back to it so the next run starts with a valid one.
func NewSpotifySession(client *spotify.Client, auth spotify.Authenticator, store *env.Config, matcher *match.Matcher) *SpotifySession {
	return &SpotifySession{client: client, auth: auth, env: store, matcher: matcher, now: time.Now}
}

// Refresh requests a new access token and installs it.
func (s *SpotifySession) Refresh(ctx context.Context) error {
	requested := s.now()
	tok, err := s.auth.Token(ctx)
	if err != nil {
		return err
	}
	if s.env != nil {
		updated, err := s.env.SetValue(env.SpotifyAccessToken, tok.AccessToken)
		if err != nil {
			return fmt.Errorf("store token: %w", err)
		}
		s.env = updated
	}
	s.client = s.client.WithToken(tok.AccessToken)
	s.issued = requested
	log.Printf("🔑 spotify token refreshed, valid for %s", tok.Lifetime())
	return nil
}

// Stale reports whether the token is at least maxAge old or of unknown age.
func (s *SpotifySession) Stale(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = checkpoint.DefaultRefreshAfter
	}
	return s.issued.IsZero() || s.now().Sub(s.issued) >= maxAge
}

func (s *SpotifySession) Close() { s.client.Close() }

// Composers resolves each name to the profile of its top artist hit.
func (s *SpotifySession) Composers(ctx context.Context, names []string) ([]fetch.Result[models.SpotifyComposer], error) {
	ids, err := s.client.SearchArtistIDs(ctx, names)
	if err != nil {
		return nil, err
	}
	var found []string
	var at []int
	for i, r := range ids {
		if r.Found {
			found = append(found, r.Value)
			at = append(at, i)
		}
	}

	out := make([]fetch.Result[models.SpotifyComposer], len(names))
	if len(found) == 0 {
		return out, nil
	}
	artists, err := s.client.Artists(ctx, found)
	if err != nil {
		return nil, err
	}
	for j, a := range artists {
		out[at[j]] = a
	}
	return out, nil
}

func (s *SpotifySession) MatchAlbums(ctx context.Context, targets []match.Target) ([]fetch.Result[string], error) {
	return s.client.MatchAlbums(ctx, s.matcher, targets)
}

func (s *SpotifySession) AlbumTracks(ctx context.Context, albumIDs []string) ([]fetch.Result[[]string], error) {
	return s.client.AlbumTracks(ctx, albumIDs)
}

func (s *SpotifySession) Tracks(ctx context.Context, ids []string) ([]fetch.Result[models.Music], error) {
	return s.client.Tracks(ctx, ids)
}
