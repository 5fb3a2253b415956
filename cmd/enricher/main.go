package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"soundtrack/internal/checkpoint"
	"soundtrack/internal/config"
	"soundtrack/internal/enrich"
	"soundtrack/internal/env"
	"soundtrack/internal/export"
	"soundtrack/internal/metrics"
	"soundtrack/internal/service"
	"soundtrack/internal/storage"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/graceful"
	"soundtrack/pkg/kafkaclient"
	"soundtrack/pkg/location"
	"soundtrack/pkg/match"
	"soundtrack/pkg/spotify"
	"soundtrack/pkg/tmdb"
)

func main() {
	pipeline := flag.String("pipeline", "movies", "pipeline to run: movies, composers or soundtracks")
	envPath := flag.String("env", env.DefaultPath, "file holding API credentials")
	cfgPath := flag.String("config", "pipeline.yaml", "pipeline tunables")
	flag.Parse()

	// MinIO, Kafka and Postgres settings are read from the process environment.
	env.LoadEnv()

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	start := time.Now()
	if err := run(ctx, *pipeline, *envPath, *cfgPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("🏁 %s pipeline finished in %s", *pipeline, time.Since(start).Round(time.Second))
}

func run(ctx context.Context, pipeline, envPath, cfgPath string) error {
	creds, err := env.Load(envPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.CheckpointDir)
	if err != nil {
		return err
	}

	m := metrics.New()
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				log.Printf("⚠️ metrics server: %v", err)
			}
		}()
	}
	hooks := []func(checkpoint.Event){m.OnEvent}

	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		topic := os.Getenv("KAFKA_TOPIC")
		if topic == "" {
			topic = "soundtrack-stage-events"
		}
		producer := kafkaclient.NewKafkaProducer(topic, broker)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Printf("Failed to close Kafka producer: %v", err)
			}
		}()
		hooks = append(hooks, service.EventPublisher(producer))
		log.Printf("Publishing stage events to %s on %s", topic, broker)
	}

	e := &enrich.Enricher{Store: store, Config: cfg, OnEvent: service.Fanout(hooks...)}

	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		pool, err := export.OpenPool(ctx, dsn, 4, os.Getenv("PG_VIA_BOUNCER") == "true")
		if err != nil {
			return err
		}
		defer pool.Close()
		e.Exporter = export.New(pool, os.Getenv("PG_SCHEMA"), 0)
		if err := e.Exporter.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	switch pipeline {
	case "movies":
		token, err := creds.Require(env.TMDBBearerToken)
		if err != nil {
			return err
		}
		e.TMDB = tmdb.NewClient(tmdb.Config{
			Token: token,
			Fetch: cfg.TMDB.FetchOptions("tmdb", m.ObserveStatus("tmdb")),
		})
		defer e.TMDB.Close()
		if cfg.Geocode {
			e.Geocoder = location.NewGeocoder(location.Config{
				UserAgent: os.Getenv("NOMINATIM_USER_AGENT"),
				Fetch:     fetch.Options{Observe: m.ObserveStatus("nominatim")},
			})
			defer e.Geocoder.Close()
		}
		return e.MoviesPipeline().Run(ctx, &enrich.MovieRun{})

	case "composers", "soundtracks":
		session := spotifySession(creds, cfg, m)
		defer session.Close()
		e.Spotify = session
		if pipeline == "composers" {
			return e.ComposersPipeline().Run(ctx, &enrich.ComposerRun{})
		}
		return e.SoundtracksPipeline().Run(ctx, &enrich.SoundtrackRun{})

	default:
		return fmt.Errorf("unknown pipeline %q", pipeline)
	}
}

// spotifySession builds the Spotify client from the stored access token. Its
// age is unknown, so the first Spotify stage exchanges it for a new one.
func spotifySession(creds *env.Config, cfg config.Config, m *metrics.Metrics) *enrich.SpotifySession {
	auth := spotify.Authenticator{
		ClientID:     creds.Get(env.SpotifyClientID),
		ClientSecret: creds.Get(env.SpotifyClientSecret),
	}
	client := spotify.NewClient(spotify.Config{
		Token:           creds.Get(env.SpotifyAccessToken),
		Fetch:           cfg.Spotify.FetchOptions("spotify", m.ObserveStatus("spotify")),
		SearchBatchSize: cfg.Spotify.SearchBatchSize,
	})
	return enrich.NewSpotifySession(client, auth, creds, match.NewMatcher(cfg.Keywords))
}
