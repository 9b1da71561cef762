package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/util"
	"github.com/ppiankov/infobox2wd/internal/worker"
)

// ErrRobotsDisallowed means robots.txt forbids fetching the article
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc waits between fetch attempts; tests replace it
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// Fetcher downloads article HTML
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter     // Optional
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	proxy := util.NewProxyFunc(httpProxy, httpsProxy, noProxy)
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout, proxy)
	}
	return f
}

// WithLimiter makes the fetcher wait for per-host clearance and honor
// robots.txt crawl delays
func (f *Fetcher) WithLimiter(l *worker.Limiter) *Fetcher {
	f.limiter = l
	return f
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML     string
	Meta     model.FetchMeta
	Subject  string
	FinalURL string
}

// FetchWithRetry fetches the URL, retrying transient failures with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(1<<(attempt-1)) * time.Second)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// Fetch retrieves HTML content from the given URL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		if f.limiter != nil {
			f.limiter.ApplyCrawlDelay(rawURL, delay)
		}
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Headers:      make(map[string]string),
	}
	for _, key := range []string{"Content-Language", "Content-Length", "Cache-Control"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		HTML:     string(body),
		Meta:     meta,
		Subject:  SubjectFromURL(finalURL),
		FinalURL: finalURL,
	}, nil
}

// isRetryableFetchError reports whether a fetch error is transient: 5xx,
// 429 or a transport failure
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if status, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		return strings.HasPrefix(status, "5") || strings.HasPrefix(status, "429")
	}
	return strings.HasPrefix(msg, "fetch: ")
}

// SubjectFromURL returns the article title of a /wiki/ URL
func SubjectFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}
	if title := parsed.Query().Get("title"); title != "" {
		path = title
	}
	segments := strings.Split(path, "/")
	if len(segments) > 1 && segments[0] == "wiki" {
		path = strings.Join(segments[1:], "/")
	} else {
		path = segments[len(segments)-1]
	}
	return strings.ReplaceAll(path, "_", " ")
}

// ArticleURL turns a title into an article URL of the language edition.
// Values that already are http(s) URLs are returned unchanged.
func ArticleURL(lang, titleOrURL string) string {
	if strings.HasPrefix(titleOrURL, "http://") || strings.HasPrefix(titleOrURL, "https://") {
		return titleOrURL
	}
	if lang == "" {
		lang = "en"
	}
	title := strings.ReplaceAll(strings.TrimSpace(titleOrURL), " ", "_")
	return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, url.PathEscape(title))
}
