package fetch

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RateLimitedError is returned for HTTP 429 responses. The engine reacts to it
// by discarding the current batch and replaying it after the flat backoff.
type RateLimitedError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited on %s (retry after %s)", e.URL, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited on %s", e.URL)
}

// ServerError is a 5xx response. It is not retried by the engine and aborts
// the batch; the caller resumes from its last checkpoint.
type ServerError struct {
	URL        string
	StatusCode int
	Status     string
	RetryAfter time.Duration
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error on %s: %s", e.URL, strings.TrimSpace(e.Status))
}

// StatusError covers every other non-2xx response that must not be recorded
// as a missing value, most notably 401/403 from an expired token.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status on %s: %s", e.URL, strings.TrimSpace(e.Status))
}

// parseRetryAfter understands the delay-seconds form of the header. The
// HTTP-date form is not sent by either API and yields zero.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
