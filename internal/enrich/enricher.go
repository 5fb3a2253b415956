package enrich

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"

	"soundtrack/internal/checkpoint"
	"soundtrack/internal/config"
	"soundtrack/internal/export"
	"soundtrack/internal/keys"
	"soundtrack/internal/models"
	"soundtrack/internal/storage"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/location"
	"soundtrack/pkg/tmdb"
)

// Final table names under tables/.
const (
	MoviesTable           = "movies"
	SpotifyComposersTable = "spotify_composers"
	MusicTable            = "music"
)

// Enricher holds what the stages share: checkpoint storage, tunables and the
// API clients. TMDB is only needed by the movies pipeline and Spotify by the
// other two. Geocoder, Exporter and OnEvent are optional.
type Enricher struct {
	Store    storage.Store
	Config   config.Config
	TMDB     *tmdb.Client
	Spotify  *SpotifySession
	Geocoder *location.Geocoder
	Exporter *export.Exporter
	OnEvent  func(checkpoint.Event)
}

type stageSpec[In, V any] struct {
	name    string
	process func(ctx context.Context, values []In) ([]fetch.Result[V], error)
	session *SpotifySession
	columns []string
	render  func(V) []string
}

func runStage[In, V any](ctx context.Context, e *Enricher, s stageSpec[In, V], inputs []checkpoint.Input[In]) (*checkpoint.Table[V], error) {
	tun := e.Config.Stage(s.name)
	stage := checkpoint.Stage[In, V]{
		Name:       s.name,
		BatchSize:  tun.BatchSize,
		FlushEvery: tun.FlushEvery,
		Process: func(ctx context.Context, batch []checkpoint.Input[In]) ([]fetch.Result[V], error) {
			values := make([]In, len(batch))
			for i, in := range batch {
				values[i] = in.Value
			}
			return s.process(ctx, values)
		},
		RefreshAfter: e.Config.RefreshAfter,
		Columns:      s.columns,
		Render:       s.render,
		OnEvent:      e.OnEvent,
	}
	if s.session != nil {
		stage.Refresh = s.session.Refresh
		stage.Stale = func() bool { return s.session.Stale(e.Config.RefreshAfter) }
	}
	return checkpoint.NewDriver[In, V](e.Store, stage).Run(ctx, inputs)
}

// filled returns the value of key when the stage found one.
func filled[V any](t *checkpoint.Table[V], key int) (V, bool) {
	v, state, ok := t.Get(key)
	return v, ok && state == checkpoint.Filled
}

func (e *Enricher) spotify() (*SpotifySession, error) {
	if e.Spotify == nil {
		return nil, fmt.Errorf("spotify session is not configured")
	}
	return e.Spotify, nil
}

// linkKey packs a (movie, composer) pair into one row key. TMDB ids fit in
// 32 bits.
func linkKey(l models.ComposerLink) int {
	return l.MovieID<<32 | l.ComposerID
}

// trackKey derives a non-negative row key from a Spotify track id.
func trackKey(id string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum64() >> 1)
}

func (e *Enricher) writeTable(ctx context.Context, name string, v any) error {
	key := keys.Table(name, "json")
	if err := storage.WriteJSON(ctx, e.Store, key, v); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	log.Printf("💾 wrote %s", key)
	return nil
}

func (e *Enricher) readTable(ctx context.Context, name string, v any) error {
	key := keys.Table(name, "json")
	if err := storage.ReadJSON(ctx, e.Store, key, v); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

func logExport(table string, n int, err error) error {
	if err != nil {
		return fmt.Errorf("export %s: %w", table, err)
	}
	log.Printf("🐘 exported %d %s statements", n, table)
	return nil
}
