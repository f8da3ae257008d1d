package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/cs2-cal/internal/logger"
	"github.com/pfrederiksen/cs2-cal/internal/metrics"
)

const (
	BaseURL        = "https://www.hltv.org"
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	AcceptLanguage = "pt-BR,pt;q=0.9,en;q=0.8"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	Timeout        = 25 * time.Second
	MaxAttempts    = 5
	BackoffBase    = 2 * time.Second
)

// DefaultHeaders returns the header profile sent with every request.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", UserAgent)
	h.Set("Accept-Language", AcceptLanguage)
	h.Set("Accept", Accept)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	return h
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// FetchError is returned once every attempt for URL has failed.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: giving up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches pages with retries. Use New for the default profile.
type Client struct {
	HTTP    *http.Client
	Headers http.Header
	// MaxAttempts bounds the number of requests per Fetch, first try included.
	MaxAttempts int
	// Backoff is the base delay; the wait after attempt n is Backoff*n.
	Backoff time.Duration
	Metrics *metrics.Run
}

// New creates a Client with the default headers, timeout and retry policy.
func New() *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: Timeout},
		Headers:     DefaultHeaders(),
		MaxAttempts: MaxAttempts,
		Backoff:     BackoffBase,
	}
}

// Fetch returns the body of rawURL. Transport errors and non-2xx statuses are
// retried; a request that cannot be built fails immediately. The returned
// error is a *FetchError in both cases.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	endpoint := endpointOf(rawURL)
	attempts := 0

	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		for k, v := range c.Headers {
			req.Header[k] = v
		}

		attempts++
		c.Metrics.FetchAttempt(endpoint)

		resp, err := c.httpClient().Do(req)
		if err != nil {
			return "", fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return "", &StatusError{Code: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("reading body: %w", err)
		}
		return string(body), nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Fetch attempt failed, retrying", logger.Fields{
			"url":     rawURL,
			"attempt": attempts,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	body, err := backoff.RetryNotifyWithData(operation, c.policy(ctx), notify)
	if err != nil {
		c.Metrics.FetchFailure(endpoint)
		return "", &FetchError{URL: rawURL, Attempts: attempts, Err: err}
	}
	return body, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff = &linearBackOff{base: c.Backoff}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// endpointOf labels a URL by the first segment of its path.
func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "root"
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(path.Clean(u.Path), "/"), "/")
	return first
}

// IsStatus reports whether err was caused by an HTTP status equal to code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// SearchURL returns the team search URL for name.
func SearchURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/search?query=" + url.QueryEscape(name)
}

// UpcomingURL returns the upcoming matches listing for a team id.
func UpcomingURL(base, teamID string) string {
	return strings.TrimRight(base, "/") + "/matches?team=" + url.QueryEscape(teamID)
}

// ResultsURL returns the recent results listing for a team id.
func ResultsURL(base, teamID string) string {
	return strings.TrimRight(base, "/") + "/results?team=" + url.QueryEscape(teamID)
}
