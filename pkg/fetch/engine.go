// Package fetch issues GET requests against JSON APIs in fixed-size batches.
//
// Requests inside a batch run concurrently; batches run strictly one after
// another, which caps in-flight requests at the batch size. A 429 anywhere in
// a batch throws the whole batch away and replays it after a flat backoff.
// Retries are unbounded and already-successful requests of that batch are
// issued again, which suits offline bulk jobs and nothing latency sensitive.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize        = 100
	DefaultRateLimitBackoff = 30 * time.Second
)

// Options tunes an Engine. The zero value is usable.
type Options struct {
	// Name prefixes log lines, e.g. "tmdb" or "spotify".
	Name string

	// BatchSize is the number of requests dispatched together.
	BatchSize int

	// Courtesy is slept after every successful response to stay under
	// informal request-rate limits. Zero disables it.
	Courtesy time.Duration

	// RateLimitBackoff is the flat delay before a rate-limited batch is replayed.
	RateLimitBackoff time.Duration

	// RateLimitRPS is a global request rate across the engine. <=0 disables it.
	RateLimitRPS float64

	// Timeout bounds a single request. Zero waits indefinitely.
	Timeout time.Duration

	// Header is sent with every request (authorization, accept).
	Header http.Header

	// Observe is called with the status code of every response.
	Observe func(status int)
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.RateLimitBackoff <= 0 {
		o.RateLimitBackoff = DefaultRateLimitBackoff
	}
	if o.Name == "" {
		o.Name = "fetch"
	}
	if o.Header == nil {
		o.Header = http.Header{}
	}
	return o
}

// Engine is a session handle around a shared *http.Client. Close releases the
// pooled connections; callers defer it right after construction.
type Engine struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// New builds an Engine. A nil client gets a fresh *http.Client without timeout.
func New(client *http.Client, opts Options) *Engine {
	if client == nil {
		client = &http.Client{}
	}
	opts = opts.withDefaults()
	e := &Engine{client: client, opts: opts, sleep: sleepCtx}
	if opts.RateLimitRPS > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return e
}

// WithHeader returns a copy of the engine that sends key: value on every
// request. The receiver is left untouched so a token can be swapped between
// batches without racing requests that still use the old one.
func (e *Engine) WithHeader(key, value string) *Engine {
	c := *e
	c.opts.Header = e.opts.Header.Clone()
	c.opts.Header.Set(key, value)
	return &c
}

// BatchSize reports the effective batch size.
func (e *Engine) BatchSize() int { return e.opts.BatchSize }

// Close releases idle connections held by the underlying client.
func (e *Engine) Close() {
	e.client.CloseIdleConnections()
}

// Result is the outcome of one request. Found is false when the API answered
// with a client error other than 401/403/429; Value is then the zero value.
type Result[T any] struct {
	Value T
	Found bool
}

// Fetch GETs every URL and decodes the JSON body into T. The returned slice
// has the same length as urls and result[i] belongs to urls[i].
func Fetch[T any](ctx context.Context, e *Engine, urls []string) ([]Result[T], error) {
	out := make([]Result[T], len(urls))
	size := e.opts.BatchSize
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		if err := fetchBatch(ctx, e, urls[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FetchGrouped is Fetch for inputs that each expand to several URLs. The
// groups are flattened for batching and re-split afterwards, so out[i] has
// len(groups[i]) results.
func FetchGrouped[T any](ctx context.Context, e *Engine, groups [][]string) ([][]Result[T], error) {
	var flat []string
	for _, g := range groups {
		flat = append(flat, g...)
	}
	res, err := Fetch[T](ctx, e, flat)
	if err != nil {
		return nil, err
	}
	out := make([][]Result[T], len(groups))
	off := 0
	for i, g := range groups {
		out[i] = res[off : off+len(g) : off+len(g)]
		off += len(g)
	}
	return out, nil
}

func fetchBatch[T any](ctx context.Context, e *Engine, urls []string, dst []Result[T]) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Printf("%s: performing %d requests", e.opts.Name, len(urls))

		results := make([]Result[T], len(urls))
		// No shared context: a failing request does not cancel its siblings,
		// the batch always resolves as a whole.
		var g errgroup.Group
		for i, u := range urls {
			g.Go(func() error {
				r, err := get[T](ctx, e, u)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		err := g.Wait()
		if err == nil {
			copy(dst, results)
			return nil
		}

		var rl *RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}
		log.Printf("%s: API threshold reached, sleeping %s before replaying batch (attempt %d)",
			e.opts.Name, e.opts.RateLimitBackoff, attempt)
		if err := e.sleep(ctx, e.opts.RateLimitBackoff); err != nil {
			return err
		}
	}
}

func get[T any](ctx context.Context, e *Engine, url string) (Result[T], error) {
	var zero Result[T]
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return zero, err
		}
	}

	reqCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return zero, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header = e.opts.Header.Clone()

	resp, err := e.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if e.opts.Observe != nil {
		e.opts.Observe(resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var v T
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			return zero, fmt.Errorf("decode %s: %w", url, err)
		}
		if e.opts.Courtesy > 0 {
			if err := e.sleep(ctx, e.opts.Courtesy); err != nil {
				return zero, err
			}
		}
		return Result[T]{Value: v, Found: true}, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	log.Printf("%s: error while performing request %s: %s", e.opts.Name, url, resp.Status)

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	if retryAfter > 0 {
		log.Printf("%s: sleeping for %s (Retry-After)", e.opts.Name, retryAfter)
		if err := e.sleep(ctx, retryAfter); err != nil {
			return zero, err
		}
	}

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return zero, &RateLimitedError{URL: url, RetryAfter: retryAfter}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return zero, &StatusError{URL: url, StatusCode: code, Status: resp.Status}
	case code >= 400 && code < 500:
		return zero, nil
	case code >= 500:
		return zero, &ServerError{URL: url, StatusCode: code, Status: resp.Status, RetryAfter: retryAfter}
	default:
		return zero, &StatusError{URL: url, StatusCode: code, Status: resp.Status}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
