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
	"soundtrack/pkg/geo"
	"soundtrack/pkg/match"
	"soundtrack/pkg/tmdb"
)

// MovieRun is the state of the movies pipeline.
type MovieRun struct {
	Movies []models.Movie
}

// MoviesPipeline loads the CMU movies, resolves them on TMDB, fills missing
// revenue and attaches composers, then writes tables/movies.json.
func (e *Enricher) MoviesPipeline() *Pipeline[MovieRun] {
	return NewPipeline("movies",
		NewStage("load CMU movies", e.loadMovies),
		NewStage(config.StageTMDBIDs, e.resolveMovieIDs),
		NewStage(config.StageTMDBRevenue, e.fetchRevenues),
		NewStage("merge revenue", mergeRevenue),
		NewStage(config.StageTMDBComposers, e.fetchComposers),
		NewStage(config.StageGeoCountries, e.geocodeComposers),
		NewStage("write movies", e.writeMovies, e.exportMovies),
	)
}

func (e *Enricher) loadMovies(_ context.Context, r *MovieRun) error {
	raw, err := dataset.LoadMovies(e.Config.MoviesTSV)
	if err != nil {
		return err
	}
	r.Movies = dataset.CleanMovies(raw)
	log.Printf("📽️  %d movies after cleaning (%d raw)", len(r.Movies), len(raw))
	return nil
}

func (e *Enricher) resolveMovieIDs(ctx context.Context, r *MovieRun) error {
	inputs := make([]checkpoint.Input[tmdb.MovieQuery], len(r.Movies))
	for i, m := range r.Movies {
		inputs[i] = checkpoint.Input[tmdb.MovieQuery]{Key: m.WikiID, Value: tmdb.MovieQuery{Title: m.Name, Year: m.Year}}
	}
	t, err := runStage(ctx, e, stageSpec[tmdb.MovieQuery, match.MovieMatch]{
		name:    config.StageTMDBIDs,
		process: e.TMDB.ResolveMovies,
		columns: []string{"tmdb_id", "tmdb_title"},
		render:  func(m match.MovieMatch) []string { return []string{strconv.Itoa(m.ID), m.Title} },
	}, inputs)
	if err != nil {
		return err
	}
	for i := range r.Movies {
		if v, ok := filled(t, r.Movies[i].WikiID); ok {
			r.Movies[i].TMDBID = v.ID
			r.Movies[i].TMDBTitle = v.Title
		}
	}
	return nil
}

// resolvedInputs keys every resolved movie by its wiki id.
func resolvedInputs(movies []models.Movie) []checkpoint.Input[int] {
	var inputs []checkpoint.Input[int]
	for _, m := range movies {
		if m.TMDBID != 0 {
			inputs = append(inputs, checkpoint.Input[int]{Key: m.WikiID, Value: m.TMDBID})
		}
	}
	return inputs
}

func (e *Enricher) fetchRevenues(ctx context.Context, r *MovieRun) error {
	t, err := runStage(ctx, e, stageSpec[int, int64]{
		name:    config.StageTMDBRevenue,
		process: e.TMDB.Revenues,
		columns: []string{"revenue"},
		render:  func(v int64) []string { return []string{strconv.FormatInt(v, 10)} },
	}, resolvedInputs(r.Movies))
	if err != nil {
		return err
	}
	for i := range r.Movies {
		if v, ok := filled(t, r.Movies[i].WikiID); ok {
			r.Movies[i].TMDBRevenue = models.Int64(v)
		}
	}
	return nil
}

func mergeRevenue(_ context.Context, r *MovieRun) error {
	before := len(r.Movies)
	r.Movies = dataset.FilterResolved(dataset.CoalesceRevenue(r.Movies))
	log.Printf("📽️  %d of %d movies have a TMDB id and a revenue", len(r.Movies), before)
	return nil
}

func (e *Enricher) fetchComposers(ctx context.Context, r *MovieRun) error {
	t, err := runStage(ctx, e, stageSpec[int, []models.Composer]{
		name:    config.StageTMDBComposers,
		process: e.TMDB.Composers,
		columns: []string{"composer_ids", "composers"},
		render: func(cs []models.Composer) []string {
			ids := make([]string, len(cs))
			names := make([]string, len(cs))
			for i, c := range cs {
				ids[i] = strconv.Itoa(c.ID)
				names[i] = c.Name
			}
			return []string{strings.Join(ids, ","), strings.Join(names, ", ")}
		},
	}, resolvedInputs(r.Movies))
	if err != nil {
		return err
	}
	for i := range r.Movies {
		if v, ok := filled(t, r.Movies[i].WikiID); ok {
			r.Movies[i].Composers = v
		}
	}
	return nil
}

// geocodeComposers fills the country of composers whose birth place did not
// end in a known country. It is a no-op without a Geocoder.
func (e *Enricher) geocodeComposers(ctx context.Context, r *MovieRun) error {
	if e.Geocoder == nil {
		return nil
	}
	var inputs []checkpoint.Input[string]
	seen := map[int]bool{}
	for _, m := range r.Movies {
		for _, c := range m.Composers {
			if seen[c.ID] || c.PlaceOfBirth == "" || geo.IsCountry(c.Country) {
				continue
			}
			seen[c.ID] = true
			inputs = append(inputs, checkpoint.Input[string]{Key: c.ID, Value: c.PlaceOfBirth})
		}
	}
	t, err := runStage(ctx, e, stageSpec[string, string]{
		name:    config.StageGeoCountries,
		process: e.Geocoder.Countries,
		columns: []string{"country"},
		render:  func(c string) []string { return []string{c} },
	}, inputs)
	if err != nil {
		return err
	}
	for i := range r.Movies {
		for j, c := range r.Movies[i].Composers {
			if v, ok := filled(t, c.ID); ok {
				r.Movies[i].Composers[j].Country = geo.Country(v)
			}
		}
	}
	return nil
}

func (e *Enricher) writeMovies(ctx context.Context, r *MovieRun) error {
	return e.writeTable(ctx, MoviesTable, r.Movies)
}

func (e *Enricher) exportMovies(ctx context.Context, r *MovieRun) error {
	if e.Exporter == nil {
		return nil
	}
	n, err := e.Exporter.Movies(ctx, r.Movies)
	return logExport(MoviesTable, n, err)
}
