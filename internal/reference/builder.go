// Package reference turns citations found next to an infobox field into
// Wikibase references.
package reference

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/timeval"
)

// Builder creates references for fields of one article edition
type Builder struct {
	language string
	baseline []model.Snak
	times    *timeval.Parser
}

// NewBuilder creates a reference builder. Every reference it returns starts
// with the "imported from" snak of the language edition, when one is known,
// followed by any extra baseline snaks. An edition without a known item and
// without extra snaks has an empty baseline, so uncited fields get no
// reference at all.
func NewBuilder(language string, times *timeval.Parser, baseline ...model.Snak) *Builder {
	var snaks []model.Snak
	if item, ok := model.WikipediaItems[model.SiteID(language)]; ok {
		snaks = append(snaks, model.ItemSnak(model.PropImportedFrom, item))
	} else {
		slog.Debug("no imported-from item for Wikipedia edition", "language", language, "site", model.SiteID(language))
	}
	snaks = append(snaks, baseline...)

	return &Builder{
		language: language,
		baseline: snaks,
		times:    times,
	}
}

// Build returns one reference per cited URL, or a single baseline reference
// when the field cites nothing usable
func (b *Builder) Build(field model.FieldContext) []model.Reference {
	var refs []model.Reference
	for _, fragment := range field.References {
		if ref, ok := b.fromFragment(fragment); ok {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		refs = append(refs, b.baselineReference())
	}
	return refs
}

// HasBaseline reports whether uncited fields still get a reference
func (b *Builder) HasBaseline() bool {
	return len(b.baseline) > 0
}

func (b *Builder) baselineReference() model.Reference {
	var ref model.Reference
	for _, snak := range b.baseline {
		ref.Add(snak)
	}
	return ref
}

func (b *Builder) fromFragment(f model.ReferenceFragment) (model.Reference, bool) {
	link, ok := WebURL(f.URL)
	if !ok {
		return model.Reference{}, false
	}

	ref := b.baselineReference()
	ref.Add(model.StringSnak(model.PropReferenceURL, model.DatatypeURL, link))

	if title := strings.TrimSpace(f.Title); title != "" {
		ref.Add(model.MonolingualSnak(model.PropTitle, title, b.language))
	}
	if snak, ok := b.dateSnak(model.PropRetrieved, f.AccessDate); ok {
		ref.Add(snak)
	}
	if archive, ok := WebURL(f.ArchiveURL); ok {
		ref.Add(model.StringSnak(model.PropArchiveURL, model.DatatypeURL, archive))
		if snak, ok := b.dateSnak(model.PropArchiveDate, f.ArchiveDate); ok {
			ref.Add(snak)
		}
	}
	return ref, true
}

func (b *Builder) dateSnak(property, text string) (model.Snak, bool) {
	text = strings.TrimSpace(text)
	if text == "" || b.times == nil {
		return model.Snak{}, false
	}
	result, err := b.times.Parse(text, false)
	if err != nil || result.Kind != timeval.KindValue {
		return model.Snak{}, false
	}
	return model.TimeSnak(property, result.Value), true
}

// WebURL returns the normalized http(s) URL in s. Protocol-relative links
// become https.
func WebURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}
