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
	"soundtrack/pkg/match"
)

// SoundtrackRun is the state of the soundtracks pipeline.
type SoundtrackRun struct {
	Movies      []models.Movie
	Composers   []models.SpotifyComposer
	Links       []models.ComposerLink
	Soundtracks []models.Soundtrack
	Tracks      []models.AlbumTrack
}

// SoundtracksPipeline matches a Spotify album to every (movie, composer)
// pair, lists its playable tracks and looks them up, then writes
// tables/music.json.
func (e *Enricher) SoundtracksPipeline() *Pipeline[SoundtrackRun] {
	return NewPipeline("soundtracks",
		NewStage("read tables",
			func(ctx context.Context, r *SoundtrackRun) error {
				return e.readTable(ctx, MoviesTable, &r.Movies)
			},
			func(ctx context.Context, r *SoundtrackRun) error {
				return e.readTable(ctx, SpotifyComposersTable, &r.Composers)
			},
		),
		NewStage("link composers", linkComposers),
		NewStage(config.StageSpotifyAlbums, e.matchAlbums),
		NewStage(config.StageSpotifyTracks, e.fetchAlbumTracks),
		NewStage(config.StageSpotifyMusic, e.fetchMusic),
		NewStage("write music", e.writeMusic, e.exportMusic),
	)
}

func linkComposers(_ context.Context, r *SoundtrackRun) error {
	all := dataset.ComposerLinks(r.Movies)
	r.Links = dataset.LinksOnSpotify(all, r.Composers)
	log.Printf("🔗 %d of %d movie/composer links have a Spotify composer", len(r.Links), len(all))
	return nil
}

func (e *Enricher) matchAlbums(ctx context.Context, r *SoundtrackRun) error {
	sp, err := e.spotify()
	if err != nil {
		return err
	}
	inputs := make([]checkpoint.Input[match.Target], len(r.Links))
	for i, l := range r.Links {
		inputs[i] = checkpoint.Input[match.Target]{
			Key:   linkKey(l),
			Value: match.Target{Name: l.MovieName, Year: l.Year, Artist: l.ComposerName},
		}
	}
	t, err := runStage(ctx, e, stageSpec[match.Target, string]{
		name:    config.StageSpotifyAlbums,
		process: sp.MatchAlbums,
		session: sp,
		columns: []string{"album_id"},
		render:  func(id string) []string { return []string{id} },
	}, inputs)
	if err != nil {
		return err
	}

	var matched []models.Soundtrack
	for _, l := range r.Links {
		if id, ok := filled(t, linkKey(l)); ok {
			matched = append(matched, models.Soundtrack{ComposerLink: l, AlbumID: id})
		}
	}
	r.Soundtracks = dataset.DedupeByMovie(matched)
	log.Printf("💿 %d soundtracks matched (%d before dedupe)", len(r.Soundtracks), len(matched))
	return nil
}

func (e *Enricher) fetchAlbumTracks(ctx context.Context, r *SoundtrackRun) error {
	sp, err := e.spotify()
	if err != nil {
		return err
	}
	inputs := make([]checkpoint.Input[string], len(r.Soundtracks))
	for i, s := range r.Soundtracks {
		inputs[i] = checkpoint.Input[string]{Key: linkKey(s.ComposerLink), Value: s.AlbumID}
	}
	t, err := runStage(ctx, e, stageSpec[string, []string]{
		name:    config.StageSpotifyTracks,
		process: sp.AlbumTracks,
		session: sp,
		columns: []string{"track_ids"},
		render:  func(ids []string) []string { return []string{strings.Join(ids, ",")} },
	}, inputs)
	if err != nil {
		return err
	}
	for i := range r.Soundtracks {
		if ids, ok := filled(t, linkKey(r.Soundtracks[i].ComposerLink)); ok {
			r.Soundtracks[i].TrackIDs = ids
		}
	}
	return nil
}

func (e *Enricher) fetchMusic(ctx context.Context, r *SoundtrackRun) error {
	sp, err := e.spotify()
	if err != nil {
		return err
	}
	tracks := dataset.ExplodeTracks(r.Soundtracks)
	inputs := make([]checkpoint.Input[string], len(tracks))
	for i, tr := range tracks {
		inputs[i] = checkpoint.Input[string]{Key: trackKey(tr.TrackID), Value: tr.TrackID}
	}
	t, err := runStage(ctx, e, stageSpec[string, models.Music]{
		name:    config.StageSpotifyMusic,
		process: sp.Tracks,
		session: sp,
		columns: []string{"track_id", "name", "composer_id", "popularity"},
		render: func(m models.Music) []string {
			return []string{m.ID, m.Name, m.ComposerID, strconv.Itoa(m.Popularity)}
		},
	}, inputs)
	if err != nil {
		return err
	}

	genres := make(map[string][]string, len(r.Composers))
	for _, c := range r.Composers {
		genres[c.ID] = c.Genres
	}
	r.Tracks = tracks[:0]
	for _, tr := range tracks {
		m, ok := filled(t, trackKey(tr.TrackID))
		if !ok {
			continue
		}
		if len(m.Genres) == 0 {
			m.Genres = genres[m.ComposerID]
		}
		tr.Music = &m
		r.Tracks = append(r.Tracks, tr)
	}
	log.Printf("🎵 %d of %d tracks resolved", len(r.Tracks), len(inputs))
	return nil
}

func (e *Enricher) writeMusic(ctx context.Context, r *SoundtrackRun) error {
	return e.writeTable(ctx, MusicTable, r.Tracks)
}

func (e *Enricher) exportMusic(ctx context.Context, r *SoundtrackRun) error {
	if e.Exporter == nil {
		return nil
	}
	n, err := e.Exporter.Music(ctx, r.Tracks)
	return logExport(MusicTable, n, err)
}
