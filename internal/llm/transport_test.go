package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIEndpoint_PostJSON(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		errorText func([]byte) string
		want      string
	}{
		{"ok", http.StatusOK, `{"value": 7}`, nil, ""},
		{"provider message", http.StatusBadRequest, `{"message": "bad"}`, func([]byte) string { return "parsed bad" }, "API error (400): parsed bad"},
		{"raw body fallback", http.StatusBadGateway, `upstream down`, func([]byte) string { return "" }, "API error (502): upstream down"},
		{"malformed", http.StatusOK, `{`, nil, "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Test") != "1" {
					t.Errorf("missing headers: %v", r.Header)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			api := newAPIEndpoint(Config{BaseURL: server.URL + "/"}, "http://unused", time.Second)
			api.headers["X-Test"] = "1"
			api.errorText = tt.errorText

			var out struct {
				Value int `json:"value"`
			}
			err := api.postJSON(context.Background(), "/call", map[string]string{"q": "x"}, &out)
			if tt.want == "" {
				if err != nil || out.Value != 7 {
					t.Fatalf("postJSON() = %v, value %d", err, out.Value)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("postJSON() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestNewProviderHTTPClient_Timeout(t *testing.T) {
	if got := newProviderHTTPClient(Config{}, 45*time.Second).Timeout; got != 45*time.Second {
		t.Errorf("default timeout = %v", got)
	}
	if got := newProviderHTTPClient(Config{Timeout: 5}, 45*time.Second).Timeout; got != 5*time.Second {
		t.Errorf("configured timeout = %v", got)
	}
}

func TestFinishSummary(t *testing.T) {
	req := SummarizeRequest{EvidenceURLs: []string{"https://a.example/1"}}

	resp, err := finishSummary(Config{StrictEvidence: true}, req, "  See https://a.example/1.  ", "m", 12)
	if err != nil {
		t.Fatalf("finishSummary() error = %v", err)
	}
	if resp.Summary != "See https://a.example/1." || len(resp.CitedURLs) != 1 || resp.TokensUsed != 12 {
		t.Errorf("finishSummary() = %+v", resp)
	}

	if _, err := finishSummary(Config{StrictEvidence: true}, req, "See https://b.example/", "m", 1); err == nil {
		t.Error("expected citation leak")
	}
	if _, err := finishSummary(Config{}, req, "See https://b.example/", "m", 1); err != nil {
		t.Errorf("non-strict summary rejected: %v", err)
	}
}
