package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/infobox2wd/internal/model"
)

var (
	retrievedOn = regexp.MustCompile(`(?i)(?:retrieved(?: on)?|accessed(?: on)?|проверено)\s+([^.]+?\d{4})`)
	archivedOn  = regexp.MustCompile(`(?i)(?:archived from the original on|архивировано)\s+([^.]+?\d{4})`)
	archiveHost = regexp.MustCompile(`(?i)^(?:web\.)?archive\.(?:org|today|ph|is)$|^webcitation\.org$`)
)

// indexCitations maps footnote anchors to the citation they point to
func indexCitations(doc *goquery.Document, base *url.URL) map[string]model.ReferenceFragment {
	out := make(map[string]model.ReferenceFragment)

	doc.Find("ol.references > li[id]").Each(func(_ int, li *goquery.Selection) {
		id, _ := li.Attr("id")
		if ref, ok := readCitation(li, base); ok {
			out[id] = ref
		}
	})
	return out
}

// readCitation extracts the cited URL, title, access date and archive copy
// of a footnote
func readCitation(li *goquery.Selection, base *url.URL) (model.ReferenceFragment, bool) {
	var ref model.ReferenceFragment

	li.Find("a.external").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target, err := base.Parse(href)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			return
		}
		if archiveHost.MatchString(target.Hostname()) {
			if ref.ArchiveURL == "" {
				ref.ArchiveURL = target.String()
			}
			return
		}
		if ref.URL == "" {
			ref.URL = target.String()
			ref.Title = strings.Trim(collapse(a.Text()), `"“”«»`)
		}
	})
	if ref.URL == "" && ref.ArchiveURL == "" {
		return ref, false
	}

	text := collapse(li.Text())
	if m := retrievedOn.FindStringSubmatch(text); m != nil {
		ref.AccessDate = strings.TrimSpace(m[1])
	}
	if m := archivedOn.FindStringSubmatch(text); m != nil {
		ref.ArchiveDate = strings.TrimSpace(m[1])
	}
	return ref, true
}
