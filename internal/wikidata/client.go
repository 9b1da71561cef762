// Package wikidata is the HTTP lookup client for the Wikidata and Wikipedia
// APIs. It implements resolve.Lookup and owns rate limiting, retries and
// response caching.
package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/infobox2wd/internal/cache"
	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/worker"
)

const (
	DefaultAPIURL          = "https://www.wikidata.org/w/api.php"
	DefaultWikipediaAPIURL = "https://%s.wikipedia.org/w/api.php" // %s is the language code
)

// retrySleepFunc waits between attempts; tests replace it
var retrySleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Config holds client settings
type Config struct {
	APIURL          string // Wikidata action API
	WikipediaAPIURL string // Format string taking the language code
	UserAgent       string
	Timeout         time.Duration
	MaxRetries      int
	CacheTTL        time.Duration
	Cache           cache.Cache                           // Optional
	Limiter         *worker.Limiter                       // Optional
	Proxy           func(*http.Request) (*url.URL, error) // Optional
	Logger          *slog.Logger                          // Optional, uses slog.Default() if nil
}

// Client talks to the Wikibase action API
type Client struct {
	apiURL          string
	wikipediaAPIURL string
	userAgent       string
	maxRetries      int
	cacheTTL        time.Duration
	httpClient      *http.Client
	cache           cache.Cache
	limiter         *worker.Limiter
	logger          *slog.Logger
}

// NewClient creates a new lookup client
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.WikipediaAPIURL == "" {
		cfg.WikipediaAPIURL = DefaultWikipediaAPIURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = model.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != nil {
		transport.Proxy = cfg.Proxy
	}

	return &Client{
		apiURL:          cfg.APIURL,
		wikipediaAPIURL: cfg.WikipediaAPIURL,
		userAgent:       cfg.UserAgent,
		maxRetries:      cfg.MaxRetries,
		cacheTTL:        cfg.CacheTTL,
		httpClient:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		cache:           cfg.Cache,
		limiter:         cfg.Limiter,
		logger:          cfg.Logger,
	}
}

// apiError is the error object of the action API
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// statusError is a non-2xx HTTP response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, http.StatusText(e.code))
}

// get performs a cached, rate limited GET with retries and returns the body.
// Every failure wraps model.ErrLookupUnavailable.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	requestURL := endpoint + "?" + params.Encode()

	key := cache.Key("api", requestURL)
	if body, ok := c.cache.Get(key); ok {
		return body, nil
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Debug("retrying lookup", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			if err := retrySleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrLookupUnavailable, err)
			}
		}

		body, err := c.do(ctx, requestURL)
		if err == nil {
			if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
				c.logger.Debug("cache write failed", "error", err)
			}
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", model.ErrLookupUnavailable, lastErr)
}

func (c *Client) do(ctx context.Context, requestURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, requestURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", envelope.Error.Code, envelope.Error.Info)
	}
	return body, nil
}

// isRetryable reports whether an attempt may succeed when repeated: server
// errors, throttling and transport failures
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *statusError
	if errors.As(err, &status) {
		return status.code == http.StatusTooManyRequests || status.code >= 500
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "fetch:") || strings.Contains(msg, "api error maxlag")
}

// siteAPI returns the action API of a Wikipedia site id ("enwiki")
func (c *Client) siteAPI(site string) (string, error) {
	lang, ok := strings.CutSuffix(site, "wiki")
	if !ok || lang == "" {
		return "", fmt.Errorf("%w: unsupported site %q", model.ErrLookupUnavailable, site)
	}
	return fmt.Sprintf(c.wikipediaAPIURL, strings.ReplaceAll(lang, "_", "-")), nil
}
