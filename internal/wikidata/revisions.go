package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// Revision is one entry of an article's edit history
type Revision struct {
	ID        int       `json:"revid"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Comment   string    `json:"comment"`
	Size      int       `json:"size"`
}

type revisionsResponse struct {
	Query struct {
		Pages []struct {
			Missing   bool       `json:"missing"`
			Revisions []Revision `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// Revisions returns up to limit of the newest revisions of a Wikipedia
// article, newest first. A missing page has no revisions.
func (c *Client) Revisions(ctx context.Context, site, title string, limit int) ([]Revision, error) {
	endpoint, err := c.siteAPI(site)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("rvlimit", strconv.Itoa(limit))
	params.Set("rvprop", "ids|timestamp|user|comment|size")

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp revisionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode revisions: %w", model.ErrLookupUnavailable, err)
	}
	for _, page := range resp.Query.Pages {
		if !page.Missing {
			return page.Revisions, nil
		}
	}
	return nil, nil
}
