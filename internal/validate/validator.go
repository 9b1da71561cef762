// Package validate checks that the URLs cited by generated references are
// still reachable and classifies their authority.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/util"
	"github.com/ppiankov/infobox2wd/internal/worker"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Target is a cited URL with the archive copy cited next to it, if any
type Target struct {
	URL        string
	ArchiveURL string
}

// Validator checks reference URLs concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int, authConfig *model.AuthorityConfig, userAgent, httpProxy, httpsProxy, noProxy string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}
	if userAgent == "" {
		userAgent = model.DefaultUserAgent
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		authority:  NewAuthorityClassifier(authConfig),
	}
}

// Targets collects the distinct reference URLs of the statements in order
// of first appearance
func Targets(statements []model.Statement) []Target {
	var out []Target
	index := make(map[string]int)
	for _, st := range statements {
		for _, ref := range st.References {
			u := firstText(ref, model.PropReferenceURL)
			if u == "" {
				continue
			}
			archive := firstText(ref, model.PropArchiveURL)
			if i, seen := index[u]; seen {
				if out[i].ArchiveURL == "" {
					out[i].ArchiveURL = archive
				}
				continue
			}
			index[u] = len(out)
			out = append(out, Target{URL: u, ArchiveURL: archive})
		}
	}
	return out
}

func firstText(ref model.Reference, property string) string {
	for _, snak := range ref.Snaks[property] {
		if s, ok := snak.DataValue.Text(); ok {
			return s
		}
	}
	return ""
}

// Validate checks all targets concurrently. Results keep the input order.
func (v *Validator) Validate(ctx context.Context, targets []Target) ([]model.ReferenceCheck, error) {
	if len(targets) == 0 {
		return []model.ReferenceCheck{}, nil
	}

	return worker.Run(ctx, worker.NewPool(v.maxWorkers), len(targets), func(ctx context.Context, i int) model.ReferenceCheck {
		t := targets[i]
		if ctx.Err() != nil {
			return model.ReferenceCheck{
				URL:        t.URL,
				HasArchive: t.ArchiveURL != "",
				Authority:  v.authority.Classify(t.URL),
				Error:      "context cancelled",
			}
		}
		return v.validateSingleWithRetry(ctx, t)
	}), nil
}

// validateSingle checks one URL with HEAD, falling back to GET for servers
// that refuse HEAD
func (v *Validator) validateSingle(ctx context.Context, target Target) model.ReferenceCheck {
	result := model.ReferenceCheck{
		URL:        target.URL,
		HasArchive: target.ArchiveURL != "",
		Authority:  v.authority.Classify(target.URL),
	}

	resp, err := v.request(ctx, http.MethodHead, target.URL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		_ = resp.Body.Close()
		resp, err = v.request(ctx, http.MethodGet, target.URL)
	}
	if err != nil {
		result.Error = err.Error()
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.IsDead = true
	}

	if final := resp.Request.URL.String(); final != target.URL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := http.ParseTime(lastModified); err == nil {
			result.LastModified = &t
		}
	}

	return result
}

func (v *Validator) request(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// validateSingleWithRetry retries 5xx, 429 and transient network errors,
// waiting 1s then 2s
func (v *Validator) validateSingleWithRetry(ctx context.Context, target Target) model.ReferenceCheck {
	result := v.validateSingle(ctx, target)
	for attempt := 1; attempt < validateMaxRetries && isRetryableCheck(result) && ctx.Err() == nil; attempt++ {
		validateSleepFunc(time.Second << (attempt - 1))
		result = v.validateSingle(ctx, target)
	}
	return result
}

// isRetryableCheck returns true for results that indicate transient failures
func isRetryableCheck(result model.ReferenceCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		return isRetryableNetworkError(result.Error)
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
