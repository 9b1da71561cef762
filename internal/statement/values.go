package statement

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/reference"
	"github.com/ppiankov/infobox2wd/internal/timeval"
)

var (
	aside       = regexp.MustCompile(`\(([^()]*)\)`)
	asideYear   = regexp.MustCompile(`^\s*(\d{4})\s*$`)
	linkYear    = regexp.MustCompile(`^\s*\((\d{4})\)`)
	fileMarkers = []string{"File:", "Image:", "Файл:", "Изображение:", "Datei:", "Fichier:"}
)

// secondaryQuantityProperties may carry the quantity found in a
// parenthesized aside, e.g. the pressure of a boiling point
var secondaryQuantityProperties = []string{model.PropTemperature, model.PropPressure}

func (b *Builder) quantityStatements(subject string, field model.FieldContext, meta model.PropertyMetadata) ([]model.Statement, model.FieldStatus) {
	text := field.RawText

	var circa *model.Snak
	if b.circa {
		text, circa = b.quantities.Circa(text)
	}

	asides := aside.FindAllStringSubmatch(text, -1)
	text = strings.TrimSpace(aside.ReplaceAllString(text, " "))

	q, status := b.parseQuantity(text, meta, field.Label)
	if status != model.FieldParsed {
		return nil, status
	}

	st := model.NewStatement(subject, model.QuantitySnak(meta.ID, q))
	if circa != nil {
		st.AddQualifier(*circa)
	}
	for _, m := range asides {
		if snak, ok := b.asideQualifier(m[1], meta); ok {
			st.AddQualifier(snak)
		}
	}
	return []model.Statement{st}, model.FieldParsed
}

// parseQuantity parses text as a quantity in exactly one of the property's units
func (b *Builder) parseQuantity(text string, meta model.PropertyMetadata, label string) (model.Quantity, model.FieldStatus) {
	candidates, err := b.unitCandidates(meta)
	if err != nil {
		b.logger.Debug("unit metadata unavailable", "property", meta.ID, "error", err)
		return model.Quantity{}, model.FieldAmbiguousUnit
	}

	matches := b.units.Find(text, candidates, label)
	if len(matches) != 1 {
		return model.Quantity{}, model.FieldAmbiguousUnit
	}
	match := matches[0]

	number := text
	if match.Index > 0 {
		number = text[:match.Index]
	}
	q, err := b.quantities.Parse(number, meta.Constraints.Integer)
	if err != nil {
		b.logger.Debug("quantity not recognized", "property", meta.ID, "text", text, "error", err)
		return model.Quantity{}, model.FieldUnparsed
	}
	return q.WithUnit(model.UnitFromID(match.UnitID)), model.FieldParsed
}

func (b *Builder) unitCandidates(meta model.PropertyMetadata) ([]model.UnitMetadata, error) {
	if meta.UnitIDs == nil {
		return nil, nil
	}
	if len(meta.UnitIDs) == 0 {
		return []model.UnitMetadata{}, nil
	}
	return b.metadata.Units(meta.UnitIDs)
}

// asideQualifier derives a qualifier from a parenthesized aside: a bare year
// becomes "point in time", a quantity in the unit of exactly one secondary
// property becomes that property
func (b *Builder) asideQualifier(text string, meta model.PropertyMetadata) (model.Snak, bool) {
	if m := asideYear.FindStringSubmatch(text); m != nil {
		if !meta.AllowsQualifier(model.PropPointInTime) {
			return model.Snak{}, false
		}
		result, err := b.times.Parse(m[1], false)
		if err != nil || result.Kind != timeval.KindValue {
			return model.Snak{}, false
		}
		return model.TimeSnak(model.PropPointInTime, result.Value), true
	}

	var (
		found    model.PropertyMetadata
		matching int
	)
	for _, id := range secondaryQuantityProperties {
		secondary, err := b.metadata.Property(id)
		if err != nil {
			continue
		}
		candidates, err := b.unitCandidates(secondary)
		if err != nil || len(candidates) == 0 {
			continue
		}
		if n := len(b.units.Find(text, candidates, "")); n > 0 {
			matching += n
			found = secondary
		}
	}
	if matching != 1 {
		return model.Snak{}, false
	}

	q, status := b.parseQuantity(text, found, "")
	if status != model.FieldParsed {
		return model.Snak{}, false
	}
	return model.QuantitySnak(found.ID, q), true
}

func (b *Builder) timeStatements(subject string, field model.FieldContext, meta model.PropertyMetadata) ([]model.Statement, model.FieldStatus) {
	text := field.RawText

	var circa *model.Snak
	if b.circa {
		text, circa = b.quantities.Circa(text)
	}

	var statements []model.Statement
	add := func(property string, result *timeval.Result) {
		st := model.NewStatement(subject, timeSnak(property, *result))
		if circa != nil {
			st.AddQualifier(*circa)
		}
		statements = append(statements, st)
	}

	if meta.EndPropertyID != "" {
		r, err := b.times.ParseRange(text)
		if err != nil {
			b.logger.Debug("time range not recognized", "property", meta.ID, "text", text, "error", err)
			return nil, model.FieldUnparsed
		}
		if r.IsRange() {
			add(meta.ID, r.Start)
			add(meta.EndPropertyID, r.End)
		} else {
			add(meta.ID, r.Point)
		}
		return statements, model.FieldParsed
	}

	result, err := b.times.Parse(text, false)
	if err != nil {
		b.logger.Debug("time not recognized", "property", meta.ID, "text", text, "error", err)
		return nil, model.FieldUnparsed
	}
	add(meta.ID, &result)
	return statements, model.FieldParsed
}

func timeSnak(property string, r timeval.Result) model.Snak {
	switch r.Kind {
	case timeval.KindNoValue:
		return model.NoValueSnak(property, model.DatatypeTime)
	case timeval.KindSomeValue:
		return model.SomeValueSnak(property, model.DatatypeTime)
	default:
		return model.TimeSnak(property, r.Value)
	}
}

func (b *Builder) itemStatements(ctx context.Context, subject string, field model.FieldContext, meta model.PropertyMetadata, existing []model.Statement, res *Result) ([]model.Statement, model.FieldStatus) {
	if b.resolver == nil {
		return nil, model.FieldUnresolved
	}

	candidates := b.candidates(field.Links, field.RawText, meta)
	if len(candidates) == 0 {
		return nil, model.FieldUnparsed
	}

	resolution := b.resolver.Resolve(ctx, subject, meta.ID, candidates, b.languages, existing)
	for id := range resolution.Duplicates {
		res.Duplicates[id] = true
	}
	if len(resolution.Statements) == 0 {
		return nil, model.FieldUnresolved
	}
	return resolution.Statements, model.FieldParsed
}

// candidates builds item candidates from links, or from the text itself when
// the field has no links. A year in parentheses right after a link implies a
// "point in time" qualifier.
func (b *Builder) candidates(links []model.Link, text string, meta model.PropertyMetadata) []model.Candidate {
	site := model.SiteID(b.language)

	var out []model.Candidate
	for _, link := range links {
		c := model.Candidate{Label: link.Title, Language: b.language, Site: site}
		if m := linkYear.FindStringSubmatch(link.After); m != nil && meta.AllowsQualifier(model.PropPointInTime) {
			if result, err := b.times.Parse(m[1], false); err == nil && result.Kind == timeval.KindValue {
				c.ImpliedQualifiers = append(c.ImpliedQualifiers, model.TimeSnak(model.PropPointInTime, result.Value))
			}
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		if title := strings.TrimSpace(aside.ReplaceAllString(text, "")); title != "" {
			out = append(out, model.Candidate{Label: title, Language: b.language, Site: site})
		}
	}
	return out
}

// textSnak encodes string-like datatypes
func (b *Builder) textSnak(meta model.PropertyMetadata, text string) (model.Snak, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Snak{}, false
	}

	switch meta.Datatype {
	case model.DatatypeString, model.DatatypeExternalID:
		if meta.FormatterURL != "" {
			if id, ok := idFromFormatter(meta.FormatterURL, text); ok {
				text = id
			}
		}
		return model.StringSnak(meta.ID, meta.Datatype, text), true
	case model.DatatypeURL:
		link, ok := reference.WebURL(text)
		if !ok {
			return model.Snak{}, false
		}
		return model.StringSnak(meta.ID, model.DatatypeURL, link), true
	case model.DatatypeMonolingual:
		return model.MonolingualSnak(meta.ID, text, b.language), true
	case model.DatatypeCommonsMedia:
		for _, marker := range fileMarkers {
			if len(text) > len(marker) && strings.EqualFold(text[:len(marker)], marker) {
				text = text[len(marker):]
				break
			}
		}
		return model.StringSnak(meta.ID, model.DatatypeCommonsMedia, strings.TrimSpace(text)), true
	default:
		return model.Snak{}, false
	}
}

// idFromFormatter reduces an URL built from a formatter template such as
// "https://www.imdb.com/name/$1/" back to the identifier
func idFromFormatter(template, text string) (string, bool) {
	prefix, suffix, ok := strings.Cut(template, "$1")
	if !ok {
		return "", false
	}
	prefix, text = stripScheme(prefix), stripScheme(text)
	suffix = strings.TrimSuffix(suffix, "/")
	text = strings.TrimSuffix(text, "/")

	if !strings.HasPrefix(text, prefix) || !strings.HasSuffix(text, suffix) || len(text) <= len(prefix)+len(suffix) {
		return "", false
	}
	return text[len(prefix) : len(text)-len(suffix)], true
}

func stripScheme(s string) string {
	for _, scheme := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, scheme)
	}
	return strings.TrimPrefix(s, "www.")
}
