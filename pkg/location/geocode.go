// Package location geocodes free-text places with Nominatim. It backs up
// pkg/geo for birth places whose last segment is not a known country.
package location

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"soundtrack/pkg/fetch"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "soundtrack-enricher/1.0"

	// DefaultCourtesy keeps to the public instance's one request per second.
	DefaultCourtesy = time.Second
)

// SearchResponse is the shape of /search with addressdetails=1.
type SearchResponse []struct {
	PlaceID     int64  `json:"place_id"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

type Config struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Fetch      fetch.Options
}

// Geocoder resolves places to the country Nominatim puts them in.
type Geocoder struct {
	baseURL string
	engine  *fetch.Engine
}

func NewGeocoder(cfg Config) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Fetch.Name == "" {
		cfg.Fetch.Name = "nominatim"
	}
	if cfg.Fetch.Courtesy == 0 {
		cfg.Fetch.Courtesy = DefaultCourtesy
	}
	if cfg.Fetch.BatchSize == 0 {
		cfg.Fetch.BatchSize = 1
	}
	e := fetch.New(cfg.HTTPClient, cfg.Fetch).
		WithHeader("User-Agent", cfg.UserAgent).
		WithHeader("Accept", "application/json")
	return &Geocoder{baseURL: strings.TrimRight(cfg.BaseURL, "/"), engine: e}
}

func (g *Geocoder) Close() { g.engine.Close() }

func (g *Geocoder) SearchURL(place string) string {
	params := url.Values{}
	params.Set("q", place)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")
	return g.baseURL + "/search?" + params.Encode()
}

// Countries returns the country of the first hit for every place. Places
// without a hit, or whose hit has no country, yield Found=false.
func (g *Geocoder) Countries(ctx context.Context, places []string) ([]fetch.Result[string], error) {
	urls := make([]string, len(places))
	for i, p := range places {
		urls[i] = g.SearchURL(p)
	}
	pages, err := fetch.Fetch[SearchResponse](ctx, g.engine, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[string], len(pages))
	for i, p := range pages {
		if !p.Found || len(p.Value) == 0 || p.Value[0].Address.Country == "" {
			continue
		}
		out[i] = fetch.Result[string]{Value: p.Value[0].Address.Country, Found: true}
	}
	return out, nil
}
