// Package export upserts the final tables into Postgres.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"soundtrack/internal/models"
)

const DefaultBatch = 200

// Sender is the part of *pgxpool.Pool the exporter needs.
type Sender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Exporter struct {
	db     Sender
	schema string
	batch  int
}

// OpenPool connects to dsn. viaBouncer switches to the simple protocol for
// transaction-pooling proxies.
func OpenPool(ctx context.Context, dsn string, maxConns int, viaBouncer bool) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("PG_DSN parse: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	if viaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("PG connect: %w", err)
	}
	return pool, nil
}

func New(db Sender, schema string, batch int) *Exporter {
	if schema == "" {
		schema = "public"
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Exporter{db: db, schema: schema, batch: batch}
}

func (e *Exporter) table(name string) string {
	return fmt.Sprintf(`"%s".%s`, e.schema, name)
}

// EnsureSchema creates the target tables when they do not exist.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS "` + e.schema + `"`,
		`CREATE TABLE IF NOT EXISTS ` + e.table("movies") + ` (
			wiki_movie_id  integer PRIMARY KEY,
			tmdb_id        integer,
			name           text NOT NULL,
			release_year   integer,
			box_office     bigint,
			countries      text[],
			genres         text[])`,
		`CREATE TABLE IF NOT EXISTS ` + e.table("composers") + ` (
			id              integer PRIMARY KEY,
			name            text NOT NULL,
			birthday        text,
			gender          integer,
			homepage        text,
			place_of_birth  text,
			country         text,
			first_credit    text)`,
		`CREATE TABLE IF NOT EXISTS ` + e.table("movie_composers") + ` (
			tmdb_id      integer NOT NULL,
			composer_id  integer NOT NULL,
			PRIMARY KEY (tmdb_id, composer_id))`,
		`CREATE TABLE IF NOT EXISTS ` + e.table("spotify_composers") + ` (
			id          text PRIMARY KEY,
			name        text NOT NULL,
			genres      text[],
			followers   integer,
			popularity  integer)`,
		`CREATE TABLE IF NOT EXISTS ` + e.table("music") + ` (
			album_id     text NOT NULL,
			track_id     text NOT NULL,
			name         text,
			composer_id  text,
			popularity   integer,
			genres       text[],
			PRIMARY KEY (album_id, track_id))`,
	}
	for _, s := range stmts {
		if _, err := e.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// send queues rows in chunks of e.batch and returns the affected row count.
func send[T any](ctx context.Context, e *Exporter, rows []T, queue func(b *pgx.Batch, r T) int) (int, error) {
	total := 0
	for i := 0; i < len(rows); i += e.batch {
		j := min(i+e.batch, len(rows))
		b := &pgx.Batch{}
		count := 0
		for _, r := range rows[i:j] {
			count += queue(b, r)
		}
		if count == 0 {
			continue
		}
		br := e.db.SendBatch(ctx, b)
		for k := 0; k < count; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, err
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Movies upserts movies with their composers and the link rows.
func (e *Exporter) Movies(ctx context.Context, movies []models.Movie) (int, error) {
	movieSQL := `INSERT INTO ` + e.table("movies") + `
		(wiki_movie_id, tmdb_id, name, release_year, box_office, countries, genres)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (wiki_movie_id) DO UPDATE SET
		tmdb_id = EXCLUDED.tmdb_id, box_office = EXCLUDED.box_office`
	composerSQL := `INSERT INTO ` + e.table("composers") + `
		(id, name, birthday, gender, homepage, place_of_birth, country, first_credit)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`
	linkSQL := `INSERT INTO ` + e.table("movie_composers") + ` (tmdb_id, composer_id)
		VALUES ($1,$2) ON CONFLICT DO NOTHING`

	return send(ctx, e, movies, func(b *pgx.Batch, m models.Movie) int {
		if strings.TrimSpace(m.Name) == "" {
			return 0
		}
		b.Queue(movieSQL, m.WikiID, nullInt(m.TMDBID), m.Name, m.Year, m.Revenue, m.Countries, m.Genres)
		n := 1
		for _, c := range m.Composers {
			b.Queue(composerSQL, c.ID, c.Name, nullText(c.Birthday), c.Gender, nullText(c.Homepage),
				nullText(c.PlaceOfBirth), nullText(c.Country), nullText(c.FirstCredit))
			b.Queue(linkSQL, m.TMDBID, c.ID)
			n += 2
		}
		return n
	})
}

func (e *Exporter) SpotifyComposers(ctx context.Context, composers []models.SpotifyComposer) (int, error) {
	q := `INSERT INTO ` + e.table("spotify_composers") + `
		(id, name, genres, followers, popularity)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
		followers = EXCLUDED.followers, popularity = EXCLUDED.popularity`
	return send(ctx, e, composers, func(b *pgx.Batch, c models.SpotifyComposer) int {
		b.Queue(q, c.ID, c.Name, c.Genres, c.Followers, c.Popularity)
		return 1
	})
}

// Music upserts album tracks that carry a music record.
func (e *Exporter) Music(ctx context.Context, rows []models.AlbumTrack) (int, error) {
	q := `INSERT INTO ` + e.table("music") + `
		(album_id, track_id, name, composer_id, popularity, genres)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (album_id, track_id) DO UPDATE SET popularity = EXCLUDED.popularity`
	return send(ctx, e, rows, func(b *pgx.Batch, r models.AlbumTrack) int {
		if r.Music == nil {
			return 0
		}
		b.Queue(q, r.AlbumID, r.TrackID, r.Music.Name, r.Music.ComposerID, r.Music.Popularity, r.Music.Genres)
		return 1
	})
}

func nullInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}

func nullText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
