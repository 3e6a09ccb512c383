// Package tmdb is a rate-limited client for The Movie Database API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/listenupapp/watchlist-server/internal/metrics"
	"github.com/listenupapp/watchlist-server/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// TMDB allows roughly 50 requests per second; stay well under it.
	defaultRPS     = 20.0
	defaultBurst   = 10
	defaultTimeout = 30 * time.Second

	limiterKey = "tmdb"
	userAgent  = "Watchlist/1.0"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
	// maxErrorBodyBytes caps how much of an unexpected body lands in an error.
	maxErrorBodyBytes = 512
)

// Options configures a Client.
type Options struct {
	APIKey       string
	BaseURL      string
	RPS          float64
	Burst        int
	Timeout      time.Duration
	IncludeAdult bool
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// Client is a rate-limited TMDB API client.
type Client struct {
	http         *http.Client
	limiter      *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
	metrics      *metrics.Metrics
	apiKey       string
	baseURL      string
	includeAdult bool
}

// New creates a new TMDB client. Zero-valued options fall back to defaults.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		http:         &http.Client{Timeout: opts.Timeout},
		limiter:      ratelimit.New(opts.RPS, opts.Burst),
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		includeAdult: opts.IncludeAdult,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doRequest executes a GET against path with rate limiting.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) (body []byte, err error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	defer func() {
		c.metrics.ObserveTMDBRequest(outcome(err), time.Since(start))
	}()

	query.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", c.redact(err, path))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("tmdb request", "path", path, "query", query.Get("query"), "page", query.Get("page"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", c.redact(err, path))
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", c.redact(err, path))
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, maxErrorBodyBytes))
	}
}

// redact strips the query string, which carries the API key, from URL errors.
func (c *Client) redact(err error, path string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = c.baseURL + path
	}
	if c.apiKey != "" && strings.Contains(err.Error(), c.apiKey) {
		return errors.New(strings.ReplaceAll(err.Error(), c.apiKey, "REDACTED"))
	}
	return err
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
