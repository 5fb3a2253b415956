// Package tmdb resolves movies against The Movie Database and pulls revenue
// and composer details for them.
package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"soundtrack/internal/models"
	"soundtrack/pkg/fetch"
	"soundtrack/pkg/match"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Fetch      fetch.Options
}

type Client struct {
	baseURL string
	engine  *fetch.Engine
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Fetch.Name == "" {
		cfg.Fetch.Name = "tmdb"
	}
	e := fetch.New(cfg.HTTPClient, cfg.Fetch).
		WithHeader("Accept", "application/json").
		WithHeader("Authorization", "Bearer "+cfg.Token)
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), engine: e}
}

// Close releases pooled connections.
func (c *Client) Close() { c.engine.Close() }

// BatchSize is the number of requests sent together.
func (c *Client) BatchSize() int { return c.engine.BatchSize() }

func (c *Client) SearchMovieURL(title string, year int) string {
	q := url.Values{}
	q.Set("query", title)
	q.Set("include_adult", "true")
	q.Set("language", "en-US")
	q.Set("page", "1")
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	return c.baseURL + "/search/movie?" + q.Encode()
}

func (c *Client) CreditsURL(movieID int) string {
	return fmt.Sprintf("%s/movie/%d/credits?language=en-US", c.baseURL, movieID)
}

func (c *Client) PersonURL(personID int) string {
	return fmt.Sprintf("%s/person/%d?append_to_response=movie_credits&language=en-US", c.baseURL, personID)
}

func (c *Client) MovieURL(movieID int) string {
	return fmt.Sprintf("%s/movie/%d?language=en-US", c.baseURL, movieID)
}

// MovieQuery is a title to resolve. Year 0 searches without a year filter.
type MovieQuery struct {
	Title string
	Year  int
}

// ResolveMovies searches every query and keeps the best match of the first
// result page. An empty page or an unbreakable tie yields Found=false.
func (c *Client) ResolveMovies(ctx context.Context, queries []MovieQuery) ([]fetch.Result[match.MovieMatch], error) {
	urls := make([]string, len(queries))
	for i, q := range queries {
		urls[i] = c.SearchMovieURL(q.Title, q.Year)
	}
	pages, err := fetch.Fetch[SearchResponse](ctx, c.engine, urls)
	if err != nil {
		return nil, err
	}

	out := make([]fetch.Result[match.MovieMatch], len(queries))
	for i, p := range pages {
		if !p.Found {
			continue
		}
		cands := make([]match.MovieCandidate, len(p.Value.Results))
		for j, r := range p.Value.Results {
			cands[j] = match.MovieCandidate{ID: r.ID, Title: r.Title, OriginalTitle: r.OriginalTitle, ReleaseDate: r.ReleaseDate}
		}
		if m, ok := match.BestMovie(cands, queries[i].Title, queries[i].Year); ok {
			out[i] = fetch.Result[match.MovieMatch]{Value: m, Found: true}
		}
	}
	return out, nil
}

// Revenues looks up the box-office revenue of every movie id.
func (c *Client) Revenues(ctx context.Context, movieIDs []int) ([]fetch.Result[int64], error) {
	urls := make([]string, len(movieIDs))
	for i, id := range movieIDs {
		urls[i] = c.MovieURL(id)
	}
	details, err := fetch.Fetch[MovieDetails](ctx, c.engine, urls)
	if err != nil {
		return nil, err
	}
	out := make([]fetch.Result[int64], len(details))
	for i, d := range details {
		if !d.Found {
			continue
		}
		if rev, ok := RevenueOf(d.Value); ok {
			out[i] = fetch.Result[int64]{Value: rev, Found: true}
		}
	}
	return out, nil
}

// Composers returns the composers credited on every movie id. Movies without
// credits or without a composer yield Found=false.
func (c *Client) Composers(ctx context.Context, movieIDs []int) ([]fetch.Result[[]models.Composer], error) {
	urls := make([]string, len(movieIDs))
	for i, id := range movieIDs {
		urls[i] = c.CreditsURL(id)
	}
	credits, err := fetch.Fetch[Credits](ctx, c.engine, urls)
	if err != nil {
		return nil, err
	}

	groups := make([][]string, len(credits))
	for i, cr := range credits {
		if !cr.Found {
			continue
		}
		for _, pid := range ComposerIDs(cr.Value) {
			groups[i] = append(groups[i], c.PersonURL(pid))
		}
	}
	people, err := fetch.FetchGrouped[Person](ctx, c.engine, groups)
	if err != nil {
		return nil, err
	}

	out := make([]fetch.Result[[]models.Composer], len(movieIDs))
	for i, group := range people {
		var composers []models.Composer
		for _, p := range group {
			if p.Found {
				composers = append(composers, ComposerFromPerson(p.Value))
			}
		}
		if len(composers) > 0 {
			out[i] = fetch.Result[[]models.Composer]{Value: models.Unique[int](composers), Found: true}
		}
	}
	return out, nil
}
