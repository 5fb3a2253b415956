// Package env reads credentials and endpoints from a .env file. A Config is
// an immutable snapshot; Reload returns a new one so a token rotated on disk
// is picked up without restarting.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const DefaultPath = ".env"

// Keys read by the binaries.
const (
	TMDBBearerToken     = "TMDB_BEARER_TOKEN"
	SpotifyClientID     = "SPOTIFY_CLIENT_ID"
	SpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	SpotifyAccessToken  = "SPOTIFY_ACCESS_TOKEN"
)

type Config struct {
	path   string
	values map[string]string
}

// LoadEnv loads .env into the process environment, as the MinIO and Kafka
// settings are read from there.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
}

func MustGetEnv(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		log.Fatalf("Environment variable %s not set", key)
	}
	return val
}

// Load reads path. A missing file gives an empty config backed by the
// process environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		values = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Config{path: path, values: values}, nil
}

// Reload re-reads the file the config came from.
func (c *Config) Reload() (*Config, error) {
	return Load(c.path)
}

// Get returns the file value, falling back to the process environment.
func (c *Config) Get(key string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return os.Getenv(key)
}

// Require is Get for values that must be set.
func (c *Config) Require(key string) (string, error) {
	v := c.Get(key)
	if v == "" {
		return "", fmt.Errorf("%s is not set in %s or the environment", key, c.path)
	}
	return v, nil
}

func (c *Config) Path() string { return c.path }

// SetValue rewrites key in the file, keeping every other entry, and returns
// the reloaded config.
func (c *Config) SetValue(key, value string) (*Config, error) {
	current, err := godotenv.Read(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		current = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	current[key] = value
	if err := godotenv.Write(current, c.path); err != nil {
		return nil, fmt.Errorf("write %s: %w", c.path, err)
	}
	return c.Reload()
}
