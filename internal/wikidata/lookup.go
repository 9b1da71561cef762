package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
)

type redirectsResponse struct {
	Query struct {
		Normalized []titleMapping `json:"normalized"`
		Redirects  []titleMapping `json:"redirects"`
	} `json:"query"`
}

type titleMapping struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Redirects maps each title that is normalized or redirected by the site to
// its final title. Titles that stay unchanged are omitted.
func (c *Client) Redirects(ctx context.Context, site string, titles []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(titles) == 0 {
		return out, nil
	}

	endpoint, err := c.siteAPI(site)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("redirects", "1")
	params.Set("titles", strings.Join(titles, "|"))

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp redirectsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode redirects: %w", model.ErrLookupUnavailable, err)
	}

	normalized := make(map[string]string)
	for _, m := range resp.Query.Normalized {
		normalized[m.From] = m.To
	}
	redirected := make(map[string]string)
	for _, m := range resp.Query.Redirects {
		redirected[m.From] = m.To
	}

	for _, title := range titles {
		final := title
		if to, ok := normalized[final]; ok {
			final = to
		}
		if to, ok := redirected[final]; ok {
			final = to
		}
		if final != title {
			out[title] = final
		}
	}
	return out, nil
}

type entitiesResponse struct {
	Entities map[string]entityWire `json:"entities"`
}

type entityWire struct {
	ID      string `json:"id"`
	Missing *any   `json:"missing"`
	Labels  map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
	SiteLinks map[string]struct {
		Title string `json:"title"`
	} `json:"sitelinks"`
	Claims map[string][]model.Statement `json:"claims"`
}

// EntitiesByTitles returns the items whose sitelink on site is one of titles.
// Titles without an item are skipped.
func (c *Client) EntitiesByTitles(ctx context.Context, site string, titles []string, languages []string) ([]model.Entity, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("sites", site)
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("props", "labels|sitelinks|claims")
	params.Set("sitefilter", site)
	if len(languages) > 0 {
		params.Set("languages", strings.Join(languages, "|"))
	}

	entities, err := c.entities(ctx, params)
	if err != nil {
		return nil, err
	}

	// Keep the order of the requested titles
	byTitle := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byTitle[e.SiteLinks[site]] = e
	}
	out := make([]model.Entity, 0, len(entities))
	seen := make(map[string]bool)
	for _, title := range titles {
		if e, ok := byTitle[title]; ok && !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	for _, e := range entities {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

// EntitiesByIDs returns the items with the given ids in request order
func (c *Client) EntitiesByIDs(ctx context.Context, ids []string, languages []string) ([]model.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("ids", strings.Join(ids, "|"))
	params.Set("props", "labels|sitelinks|claims")
	if len(languages) > 0 {
		params.Set("languages", strings.Join(languages, "|"))
	}

	entities, err := c.entities(ctx, params)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	out := make([]model.Entity, 0, len(entities))
	for _, id := range ids {
		if e, ok := byID[strings.ToUpper(id)]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Client) entities(ctx context.Context, params url.Values) ([]model.Entity, error) {
	body, err := c.get(ctx, c.apiURL, params)
	if err != nil {
		return nil, err
	}

	var resp entitiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode entities: %w", model.ErrLookupUnavailable, err)
	}

	out := make([]model.Entity, 0, len(resp.Entities))
	for _, w := range resp.Entities {
		if w.Missing != nil || w.ID == "" {
			continue
		}
		e := model.Entity{
			ID:        w.ID,
			Labels:    make(map[string]string, len(w.Labels)),
			SiteLinks: make(map[string]string, len(w.SiteLinks)),
			Claims:    w.Claims,
		}
		for lang, l := range w.Labels {
			e.Labels[lang] = l.Value
		}
		for site, s := range w.SiteLinks {
			e.SiteLinks[site] = s.Title
		}
		out = append(out, e)
	}
	return out, nil
}
