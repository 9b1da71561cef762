package wikidata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/infobox2wd/internal/cache"
	"github.com/ppiankov/infobox2wd/internal/model"
)

const entitiesJSON = `{
  "entities": {
    "Q649": {
      "id": "Q649",
      "labels": {"en": {"language": "en", "value": "Moscow"}},
      "sitelinks": {"enwiki": {"site": "enwiki", "title": "Moscow"}},
      "claims": {
        "P31": [{
          "id": "Q649$1",
          "type": "statement",
          "rank": "normal",
          "mainsnak": {
            "snaktype": "value",
            "property": "P31",
            "datatype": "wikibase-item",
            "datavalue": {"type": "wikibase-entityid", "value": {"entity-type": "item", "numeric-id": 515, "id": "Q515"}}
          }
        }],
        "P1082": [{
          "id": "Q649$2",
          "type": "statement",
          "rank": "preferred",
          "mainsnak": {
            "snaktype": "value",
            "property": "P1082",
            "datatype": "quantity",
            "datavalue": {"type": "quantity", "value": {"amount": "+13010112", "unit": "1"}}
          }
        }]
      }
    },
    "Q159": {
      "id": "Q159",
      "labels": {"en": {"language": "en", "value": "Russia"}},
      "sitelinks": {"enwiki": {"site": "enwiki", "title": "Russia"}},
      "claims": {}
    },
    "-1": {"site": "enwiki", "title": "Nowhere", "missing": true}
  }
}`

func noSleep(t *testing.T) {
	t.Helper()
	orig := retrySleepFunc
	retrySleepFunc = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { retrySleepFunc = orig })
}

func newTestClient(server *httptest.Server, c cache.Cache) *Client {
	return NewClient(Config{
		APIURL:          server.URL + "/w/api.php",
		WikipediaAPIURL: server.URL + "/%s/api.php",
		UserAgent:       "infobox2wd-test",
		Timeout:         5 * time.Second,
		Cache:           c,
	})
}

func TestEntitiesByTitles(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		if ua := r.Header.Get("User-Agent"); ua != "infobox2wd-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = fmt.Fprint(w, entitiesJSON)
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	entities, err := client.EntitiesByTitles(context.Background(), "enwiki", []string{"Russia", "Moscow", "Nowhere"}, []string{"en"})
	if err != nil {
		t.Fatalf("EntitiesByTitles() error = %v", err)
	}

	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	if entities[0].ID != "Q159" || entities[1].ID != "Q649" {
		t.Errorf("order = %s, %s, want request order", entities[0].ID, entities[1].ID)
	}

	moscow := entities[1]
	if moscow.Label([]string{"en"}) != "Moscow" {
		t.Errorf("label = %q", moscow.Label([]string{"en"}))
	}
	if moscow.SiteLinks["enwiki"] != "Moscow" {
		t.Errorf("sitelink = %q", moscow.SiteLinks["enwiki"])
	}
	if !moscow.HasItemValue("P31", "Q515") {
		t.Error("P31 claim not decoded")
	}
	q, ok := moscow.Claims["P1082"][0].MainSnak.DataValue.Quantity()
	if !ok || q.Amount != "13010112" {
		t.Errorf("population = %+v, %v", q, ok)
	}

	for _, want := range []string{"action=wbgetentities", "sites=enwiki", "formatversion=2", "props=labels%7Csitelinks%7Cclaims"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestEntitiesByIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "Q649|Q159" {
			t.Errorf("ids = %q", got)
		}
		_, _ = fmt.Fprint(w, entitiesJSON)
	}))
	defer server.Close()

	entities, err := newTestClient(server, nil).EntitiesByIDs(context.Background(), []string{"Q649", "Q159"}, nil)
	if err != nil {
		t.Fatalf("EntitiesByIDs() error = %v", err)
	}
	if len(entities) != 2 || entities[0].ID != "Q649" {
		t.Errorf("entities = %+v", entities)
	}
}

func TestRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/en/api.php" {
			t.Errorf("path = %q, want the enwiki API", r.URL.Path)
		}
		if r.URL.Query().Get("redirects") != "1" {
			t.Error("redirects not requested")
		}
		_, _ = fmt.Fprint(w, `{"query": {
			"normalized": [{"from": "united_States", "to": "United States"}],
			"redirects": [{"from": "United States", "to": "United States of America"}, {"from": "USA", "to": "United States of America"}]
		}}`)
	}))
	defer server.Close()

	got, err := newTestClient(server, nil).Redirects(context.Background(), "enwiki", []string{"united_States", "USA", "Paris"})
	if err != nil {
		t.Fatalf("Redirects() error = %v", err)
	}

	want := map[string]string{
		"united_States": "United States of America",
		"USA":           "United States of America",
	}
	if len(got) != len(want) {
		t.Fatalf("Redirects() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Redirects()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestRedirectsUnsupportedSite(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Redirects(context.Background(), "commons", []string{"X"})
	if !errors.Is(err, model.ErrLookupUnavailable) {
		t.Errorf("error = %v, want ErrLookupUnavailable", err)
	}
}

func TestRetryTransient(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, entitiesJSON)
	}))
	defer server.Close()

	_, err := newTestClient(server, nil).EntitiesByIDs(context.Background(), []string{"Q649"}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestRetryExhausted(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server, nil).EntitiesByIDs(context.Background(), []string{"Q649"}, nil)
	if !errors.Is(err, model.ErrLookupUnavailable) {
		t.Fatalf("error = %v, want ErrLookupUnavailable", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server, nil).EntitiesByIDs(context.Background(), []string{"Q649"}, nil)
	if !errors.Is(err, model.ErrLookupUnavailable) {
		t.Fatalf("error = %v, want ErrLookupUnavailable", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestAPIErrorAndMalformed(t *testing.T) {
	noSleep(t)

	tests := []struct {
		name string
		body string
	}{
		{"api error", `{"error": {"code": "no-such-entity", "info": "Could not find an entity"}}`},
		{"malformed", `<html>not json</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server, nil).EntitiesByIDs(context.Background(), []string{"Q0"}, nil)
			if !errors.Is(err, model.ErrLookupUnavailable) {
				t.Errorf("error = %v, want ErrLookupUnavailable", err)
			}
		})
	}
}

func TestResponsesAreCached(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = fmt.Fprint(w, entitiesJSON)
	}))
	defer server.Close()

	client := newTestClient(server, cache.NewMemoryCache(time.Minute, time.Minute))
	for i := 0; i < 3; i++ {
		if _, err := client.EntitiesByTitles(context.Background(), "enwiki", []string{"Moscow"}, []string{"en"}); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if attempts.Load() != 1 {
		t.Errorf("server hit %d times, want 1", attempts.Load())
	}
}

func TestContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, entitiesJSON)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server, nil).EntitiesByIDs(ctx, []string{"Q649"}, nil)
	if !errors.Is(err, model.ErrLookupUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want lookup unavailable wrapping context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&statusError{code: 503}, true},
		{&statusError{code: 500}, true},
		{&statusError{code: 429}, true},
		{&statusError{code: 404}, false},
		{errors.New("fetch: connection refused"), true},
		{errors.New("api error maxlag: Waiting for db"), true},
		{errors.New("api error badvalue: bad"), false},
		{errors.New("decode response: invalid character"), false},
		{fmt.Errorf("fetch: %w", context.Canceled), false},
	}
	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
