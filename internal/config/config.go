// Package config loads pipeline tunables from pipeline.yaml. Credentials and
// endpoints live in .env (see internal/env); this file only holds knobs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"soundtrack/pkg/fetch"
	"soundtrack/pkg/match"
)

// Stage names, also used as checkpoint names.
const (
	StageTMDBIDs          = "tmdb-ids"
	StageTMDBRevenue      = "tmdb-revenue"
	StageTMDBComposers    = "tmdb-composers"
	StageGeoCountries     = "geo-countries"
	StageSpotifyComposers = "spotify-composers"
	StageSpotifyAlbums    = "spotify-albums"
	StageSpotifyTracks    = "spotify-tracks"
	StageSpotifyMusic     = "spotify-music"
)

// API tunes the request engine of one API.
type API struct {
	BatchSize        int           `yaml:"batch_size"`
	SearchBatchSize  int           `yaml:"search_batch_size"`
	Courtesy         time.Duration `yaml:"courtesy"`
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	RateLimitRPS     float64       `yaml:"rate_limit_rps"`
	Timeout          time.Duration `yaml:"timeout"`
}

// FetchOptions turns the API tunables into request engine options.
func (a API) FetchOptions(name string, observe func(int)) fetch.Options {
	return fetch.Options{
		Name:             name,
		BatchSize:        a.BatchSize,
		Courtesy:         a.Courtesy,
		RateLimitBackoff: a.RateLimitBackoff,
		RateLimitRPS:     a.RateLimitRPS,
		Timeout:          a.Timeout,
		Observe:          observe,
	}
}

// Stage tunes one checkpointed stage.
type Stage struct {
	BatchSize  int `yaml:"batch_size"`
	FlushEvery int `yaml:"flush_every"`
}

type Config struct {
	TMDB    API `yaml:"tmdb"`
	Spotify API `yaml:"spotify"`

	Stages       map[string]Stage `yaml:"stages"`
	RefreshAfter time.Duration    `yaml:"refresh_after"`

	Keywords match.Keywords `yaml:"keywords"`

	// Geocode looks up birth places that are not a known country on
	// Nominatim.
	Geocode bool `yaml:"geocode"`

	// CheckpointDir is used when no S3 endpoint is configured.
	CheckpointDir string `yaml:"checkpoint_dir"`
	MoviesTSV     string `yaml:"movies_tsv"`
}

// Default returns the tunables the pipeline was calibrated with.
func Default() Config {
	return Config{
		TMDB: API{
			BatchSize:        100,
			RateLimitBackoff: 30 * time.Second,
		},
		Spotify: API{
			BatchSize:        100,
			SearchBatchSize:  49,
			Courtesy:         2 * time.Second,
			RateLimitBackoff: 30 * time.Second,
		},
		Stages: map[string]Stage{
			StageTMDBIDs:          {BatchSize: 15000, FlushEvery: 1},
			StageTMDBRevenue:      {BatchSize: 15000, FlushEvery: 1},
			StageTMDBComposers:    {BatchSize: 5000, FlushEvery: 1},
			StageGeoCountries:     {BatchSize: 50, FlushEvery: 1},
			StageSpotifyComposers: {BatchSize: 100, FlushEvery: 1},
			StageSpotifyAlbums:    {BatchSize: 100, FlushEvery: 1},
			StageSpotifyTracks:    {BatchSize: 100, FlushEvery: 1},
			StageSpotifyMusic:     {BatchSize: 250, FlushEvery: 1},
		},
		RefreshAfter:  3000 * time.Second,
		Keywords:      match.DefaultKeywords(),
		CheckpointDir: "dataset",
		MoviesTSV:     "dataset/MovieSummaries/movie.metadata.tsv",
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults. Stage entries are merged one by one
// so a file may tune a single stage.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	defaults := cfg.Stages
	cfg.Stages = nil
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parse pipeline config: %w", err)
	}

	merged := defaults
	for name, s := range cfg.Stages {
		d := merged[name]
		if s.BatchSize > 0 {
			d.BatchSize = s.BatchSize
		}
		if s.FlushEvery > 0 {
			d.FlushEvery = s.FlushEvery
		}
		merged[name] = d
	}
	cfg.Stages = merged
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Spotify.SearchBatchSize > 50 {
		return fmt.Errorf("spotify.search_batch_size %d exceeds 50", c.Spotify.SearchBatchSize)
	}
	if c.RefreshAfter >= time.Hour {
		return fmt.Errorf("refresh_after %s must be below the one hour token lifetime", c.RefreshAfter)
	}
	if c.Keywords.PositiveInfluence < 0 || c.Keywords.NegativeInfluence < 0 {
		return errors.New("keyword influences must not be negative")
	}
	return nil
}

// Stage returns the tunables of the named stage.
func (c Config) Stage(name string) Stage {
	return c.Stages[name]
}
