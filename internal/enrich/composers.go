package enrich

import (
	"context"
	"log"
	"strconv"
	"strings"

	"soundtrack/internal/checkpoint"
	"soundtrack/internal/config"
	"soundtrack/internal/dataset"
	"soundtrack/internal/models"
)

// ComposerRun is the state of the composers pipeline.
type ComposerRun struct {
	Movies    []models.Movie
	Composers []models.SpotifyComposer
}

// ComposersPipeline looks up a Spotify profile for every composer of the
// movies table and writes tables/spotify_composers.json.
func (e *Enricher) ComposersPipeline() *Pipeline[ComposerRun] {
	return NewPipeline("composers",
		NewStage("read movies", func(ctx context.Context, r *ComposerRun) error {
			return e.readTable(ctx, MoviesTable, &r.Movies)
		}),
		NewStage(config.StageSpotifyComposers, e.fetchSpotifyComposers),
		NewStage("write composers", e.writeSpotifyComposers, e.exportSpotifyComposers),
	)
}

func (e *Enricher) fetchSpotifyComposers(ctx context.Context, r *ComposerRun) error {
	sp, err := e.spotify()
	if err != nil {
		return err
	}
	composers := dataset.ComposerNames(r.Movies)
	inputs := make([]checkpoint.Input[string], len(composers))
	for i, c := range composers {
		inputs[i] = checkpoint.Input[string]{Key: c.ID, Value: c.Name}
	}
	t, err := runStage(ctx, e, stageSpec[string, models.SpotifyComposer]{
		name:    config.StageSpotifyComposers,
		process: sp.Composers,
		session: sp,
		columns: []string{"spotify_id", "name", "genres", "followers", "popularity"},
		render: func(c models.SpotifyComposer) []string {
			return []string{c.ID, c.Name, strings.Join(c.Genres, ","), strconv.Itoa(c.Followers), strconv.Itoa(c.Popularity)}
		},
	}, inputs)
	if err != nil {
		return err
	}

	found := make([]models.SpotifyComposer, 0, len(composers))
	for _, c := range composers {
		if v, ok := filled(t, c.ID); ok {
			found = append(found, v)
		}
	}
	r.Composers = models.Unique[string](found)
	log.Printf("🎼 %d of %d composers found on Spotify", len(r.Composers), len(composers))
	return nil
}

func (e *Enricher) writeSpotifyComposers(ctx context.Context, r *ComposerRun) error {
	return e.writeTable(ctx, SpotifyComposersTable, r.Composers)
}

func (e *Enricher) exportSpotifyComposers(ctx context.Context, r *ComposerRun) error {
	if e.Exporter == nil {
		return nil
	}
	n, err := e.Exporter.SpotifyComposers(ctx, r.Composers)
	return logExport(SpotifyComposersTable, n, err)
}
