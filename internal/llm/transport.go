package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/infobox2wd/internal/util"
)

// apiEndpoint talks JSON to a provider without an SDK
type apiEndpoint struct {
	baseURL string
	client  *http.Client
	headers map[string]string

	// errorText extracts the provider's message from a non-200 body
	errorText func(body []byte) string
}

func newAPIEndpoint(config Config, defaultBaseURL string, defaultTimeout time.Duration) *apiEndpoint {
	base := config.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &apiEndpoint{
		baseURL: strings.TrimSuffix(base, "/"),
		client:  newProviderHTTPClient(config, defaultTimeout),
		headers: map[string]string{"Content-Type": "application/json"},
	}
}

// newProviderHTTPClient honours the configured timeout and proxies
func newProviderHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := defaultTimeout
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}
}

// postJSON sends in to path and decodes a 200 answer into out
func (e *apiEndpoint) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	status, body, err := e.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		msg := ""
		if e.errorText != nil {
			msg = e.errorText(body)
		}
		if msg == "" {
			msg = string(body)
		}
		return fmt.Errorf("API error (%d): %s", status, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// ping reports whether GET path answers 200
func (e *apiEndpoint) ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return err
	}
	status, _, err := e.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

func (e *apiEndpoint) do(req *http.Request) (int, []byte, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// promptFor returns the caller's prompt or the default review prompt
func promptFor(req SummarizeRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.Report, req.EvidenceURLs)
}

// finishSummary trims the model output and enforces the citation allowlist
func finishSummary(config Config, req SummarizeRequest, text, model string, tokens int) (*SummarizeResponse, error) {
	summary := strings.TrimSpace(text)
	cited := extractURLs(summary)
	if err := checkCitations(config.StrictEvidence, req.EvidenceURLs, cited); err != nil {
		return nil, err
	}
	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  cited,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
