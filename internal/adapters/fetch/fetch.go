// Package fetch provides the outbound HTTP client used by the scraping pipeline.
// All retry policy and HTTP error classification lives here so services never
// inspect status codes themselves.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"causelist/internal/platform/logger"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 * 1024 * 1024
)

// backoffSchedule is fixed: one base attempt plus up to three retries
var backoffSchedule = [...]time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d for %s", e.Code, e.URL)
}

// Retryable reports whether the status is worth another attempt.
// Only 5xx qualifies; any 4xx (404 included) is final.
func (e *StatusError) Retryable() bool { return e.Code >= 500 }

// Options configures a Client
type Options struct {
	UserAgent string
	Timeout   time.Duration // per attempt; <=0 -> 30s
}

// Client fetches HTML documents with a per-attempt timeout and fixed backoff
type Client struct {
	http      *http.Client
	userAgent string
	timeout   time.Duration

	// sleep is a seam so tests can observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Client
func New(opt Options) *Client {
	to := opt.Timeout
	if to <= 0 {
		to = defaultTimeout
	}
	return &Client{
		http:      &http.Client{},
		userAgent: opt.UserAgent,
		timeout:   to,
		sleep:     sleepCtx,
	}
}

// Fetch GETs url and returns the body.
// Timeouts and 5xx responses are retried up to three times with backoff
// 5s, 10s, 20s; any other failure returns immediately.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	l := logger.C(ctx).With().Str("component", "fetch").Str("url", url).Logger()

	var lastErr error
	for attempt := 0; attempt <= len(backoffSchedule); attempt++ {
		if attempt > 0 {
			l.Warn().Int("attempt", attempt).Err(lastErr).
				Dur("backoff", backoffSchedule[attempt-1]).Msg("retrying fetch")
			if err := c.sleep(ctx, backoffSchedule[attempt-1]); err != nil {
				return nil, err
			}
		}

		body, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// parent canceled; a per-attempt timeout keeps retrying, a dead
			// parent does not
			return nil, err
		}
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs a single GET bounded by the per-attempt timeout
func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// drain a little so the connection can be reused, then classify
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// retryable classifies transport errors: per-attempt timeouts and 5xx retry,
// everything else is final
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
