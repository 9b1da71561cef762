// Package scrape reads the infobox of a rendered Wikipedia article and turns
// its rows into field contexts for the statement builder.
package scrape

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/infobox2wd/internal/model"
)

var labelYear = regexp.MustCompile(`\((\d{4})\)`)

// LabelMapper maps an infobox row header to a property id
type LabelMapper interface {
	PropertyForLabel(lang, label string) (string, bool)
}

// Article is the scraped infobox of one page
type Article struct {
	Title    string
	Language string
	URL      string
	Fields   []model.FieldContext
	Unmapped []string // Row labels that map to no property
}

// Extractor scrapes infobox rows
type Extractor struct {
	labels LabelMapper
	logger *slog.Logger
}

// NewExtractor creates a new infobox extractor
func NewExtractor(labels LabelMapper, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{labels: labels, logger: logger}
}

// Extract parses an article page. A page without an infobox yields an
// article with no fields.
func (e *Extractor) Extract(htmlContent string, sourceURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	article := &Article{
		Title:    titleOf(doc, base),
		Language: languageOf(doc, base),
		URL:      sourceURL,
	}

	infobox := doc.Find("table.infobox").First()
	if infobox.Length() == 0 {
		e.logger.Debug("no infobox", "url", sourceURL)
		return article, nil
	}

	citations := indexCitations(doc, base)

	var section string
	rows := infobox.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Closest("table").IsSelection(infobox)
	})
	rows.Each(func(_ int, row *goquery.Selection) {
		header := row.ChildrenFiltered("th").First()
		cell := row.ChildrenFiltered("td").First()

		if cell.Length() == 0 {
			if header.Length() > 0 {
				section = cleanLabel(plainText(header))
			}
			return
		}
		if header.Length() == 0 {
			return
		}

		label := cleanLabel(plainText(header))
		if label == "" {
			return
		}

		property, ok := e.mapLabel(article.Language, section, label)
		if !ok {
			article.Unmapped = append(article.Unmapped, label)
			return
		}

		content := readCell(cell, base)
		if content.text == "" {
			return
		}

		field := model.FieldContext{
			PropertyID: property,
			Label:      label,
			RawText:    content.text,
			Links:      content.links,
			Handles:    content.handles,
		}
		if year := headerYear(label, section); year != "" {
			field.Qualifiers = append(field.Qualifiers, model.QualifierFragment{
				PropertyID: model.PropPointInTime,
				Text:       year,
			})
		}
		for _, id := range content.notes {
			if ref, ok := citations[id]; ok {
				field.References = append(field.References, ref)
			}
		}
		article.Fields = append(article.Fields, field)
	})

	e.logger.Debug("infobox scraped", "title", article.Title, "fields", len(article.Fields), "unmapped", len(article.Unmapped))
	return article, nil
}

// mapLabel tries the row label alone, then prefixed by its section header
func (e *Extractor) mapLabel(lang, section, label string) (string, bool) {
	if id, ok := e.labels.PropertyForLabel(lang, label); ok {
		return id, true
	}
	if section == "" {
		return "", false
	}
	if id, ok := e.labels.PropertyForLabel(lang, stripAsides(section)+" "+label); ok {
		return id, true
	}
	return "", false
}

// headerYear returns the year aside of a row label or of its section
// header, e.g. "Population (2021)"
func headerYear(label, section string) string {
	if m := labelYear.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	if m := labelYear.FindStringSubmatch(section); m != nil {
		return m[1]
	}
	return ""
}

func titleOf(doc *goquery.Document, base *url.URL) string {
	if title := collapse(doc.Find("#firstHeading").First().Text()); title != "" {
		return title
	}
	path := strings.TrimPrefix(base.Path, "/wiki/")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return strings.ReplaceAll(path, "_", " ")
}

// languageOf takes the edition from the host ("ru.wikipedia.org") and falls
// back to the document language
func languageOf(doc *goquery.Document, base *url.URL) string {
	if host := base.Hostname(); strings.HasSuffix(host, ".wikipedia.org") {
		if lang, _, ok := strings.Cut(host, "."); ok && lang != "" && lang != "www" {
			return lang
		}
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok && lang != "" {
		lang, _, _ = strings.Cut(lang, "-")
		return strings.ToLower(lang)
	}
	return "en"
}

func cleanLabel(s string) string {
	s = collapse(s)
	return strings.TrimSpace(strings.TrimLeft(s, "•·–- "))
}

func stripAsides(s string) string {
	if i := strings.IndexAny(s, "(["); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
