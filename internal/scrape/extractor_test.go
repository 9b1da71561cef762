package scrape

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/infobox2wd/internal/model"
)

type mapLabels map[string]string

func (m mapLabels) PropertyForLabel(lang, label string) (string, bool) {
	id, ok := m[lang+"/"+strings.ToLower(stripAsides(label))]
	return id, ok
}

var labels = mapLabels{
	"en/elevation":        "P2044",
	"en/population total": "P1082",
	"en/country":          "P17",
	"en/capital":          "P36",
	"en/website":          "P856",
	"ru/население":        "P1082",
}

const everestHTML = `<!DOCTYPE html>
<html lang="en"><body>
<h1 id="firstHeading">Mount&nbsp;Everest</h1>
<table class="infobox">
<tbody>
<tr><th colspan="2">Highest point</th></tr>
<tr><th class="infobox-label">Elevation</th>
    <td class="infobox-data">8,848.86&nbsp;m (29,031.7&nbsp;ft)<sup class="reference"><a href="#cite_note-height-1">[1]</a></sup></td></tr>
<tr><th class="infobox-label">Motto</th><td>Chomolungma</td></tr>
<tr><th class="infobox-label">Country</th>
    <td><a href="/wiki/Nepal" title="Nepal">Nepal</a> and <a href="/wiki/China" title="China">China</a> (Tibet)</td></tr>
<tr><th class="infobox-label">Website</th>
    <td><a class="external text" href="https://www.everest.example/">everest.example</a></td></tr>
<tr><td colspan="2"><table><tr><th>Elevation</th><td>nested 1 m</td></tr></table></td></tr>
</tbody>
</table>
<ol class="references">
<li id="cite_note-height-1"><span class="reference-text"><cite>
<a class="external text" href="https://www.nepal.example/everest">"Height of Everest"</a>.
Archived from the <a class="external text" href="https://web.archive.org/web/2020/https://www.nepal.example/everest">original</a> on 2 June 2020. Retrieved 1 May 2020.
</cite></span></li>
</ol>
</body></html>`

func TestExtract(t *testing.T) {
	e := NewExtractor(labels, nil)

	article, err := e.Extract(everestHTML, "https://en.wikipedia.org/wiki/Mount_Everest")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if article.Title != "Mount Everest" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.Language != "en" {
		t.Errorf("Language = %q", article.Language)
	}
	if len(article.Unmapped) != 1 || article.Unmapped[0] != "Motto" {
		t.Errorf("Unmapped = %v", article.Unmapped)
	}
	if len(article.Fields) != 3 {
		t.Fatalf("got %d fields, want 3: %+v", len(article.Fields), article.Fields)
	}

	elevation := article.Fields[0]
	if elevation.PropertyID != "P2044" {
		t.Errorf("property = %s", elevation.PropertyID)
	}
	if elevation.RawText != "8,848.86 m (29,031.7 ft)" {
		t.Errorf("RawText = %q", elevation.RawText)
	}
	if len(elevation.References) != 1 {
		t.Fatalf("references = %+v", elevation.References)
	}
	ref := elevation.References[0]
	want := model.ReferenceFragment{
		URL:         "https://www.nepal.example/everest",
		Title:       "Height of Everest",
		AccessDate:  "1 May 2020",
		ArchiveURL:  "https://web.archive.org/web/2020/https://www.nepal.example/everest",
		ArchiveDate: "2 June 2020",
	}
	if ref != want {
		t.Errorf("reference = %+v, want %+v", ref, want)
	}

	country := article.Fields[1]
	if country.RawText != "Nepal and China (Tibet)" {
		t.Errorf("RawText = %q", country.RawText)
	}
	if len(country.Links) != 2 {
		t.Fatalf("links = %+v", country.Links)
	}
	if country.Links[0] != (model.Link{Title: "Nepal", Text: "Nepal", After: "and"}) {
		t.Errorf("first link = %+v", country.Links[0])
	}
	if country.Links[1] != (model.Link{Title: "China", Text: "China", After: "(Tibet)"}) {
		t.Errorf("second link = %+v", country.Links[1])
	}

	website := article.Fields[2]
	if website.RawText != "everest.example" || len(website.Links) != 0 {
		t.Errorf("website = %+v", website)
	}
}

func TestExtractSectionLabelAndYear(t *testing.T) {
	page := `<html><body><table class="infobox">
<tr><th colspan="2">Population <span>(2021)</span></th></tr>
<tr><th>&nbsp;• Total</th><td>13,010,112<sup class="reference"><a href="#cite_note-x">[2]</a></sup></td></tr>
<tr><th>Capital</th><td><a href="/wiki/File:Flag.svg"><img src="flag.png"></a> <a href="/wiki/Moscow_Kremlin">Kremlin</a></td></tr>
</table></body></html>`

	article, err := NewExtractor(labels, nil).Extract(page, "https://en.wikipedia.org/wiki/Moscow")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if article.Title != "Moscow" {
		t.Errorf("Title = %q", article.Title)
	}
	if len(article.Fields) != 2 {
		t.Fatalf("fields = %+v", article.Fields)
	}

	population := article.Fields[0]
	if population.PropertyID != "P1082" || population.RawText != "13,010,112" {
		t.Errorf("population = %+v", population)
	}
	if len(population.Qualifiers) != 1 || !reflect.DeepEqual(population.Qualifiers[0], model.QualifierFragment{PropertyID: model.PropPointInTime, Text: "2021"}) {
		t.Errorf("qualifiers = %+v", population.Qualifiers)
	}
	if len(population.References) != 0 {
		t.Errorf("unknown footnote produced references: %+v", population.References)
	}

	capital := article.Fields[1]
	if len(capital.Links) != 1 || capital.Links[0].Title != "Moscow Kremlin" {
		t.Errorf("links = %+v", capital.Links)
	}
	if len(capital.Handles) != 1 {
		t.Errorf("handles = %d, want the flag image", len(capital.Handles))
	}
}

func TestExtractRussian(t *testing.T) {
	page := `<html lang="ru"><body><table class="infobox">
<tr><th>Население</th><td>13&nbsp;010&nbsp;112 чел.</td></tr>
</table></body></html>`

	article, err := NewExtractor(labels, nil).Extract(page, "https://ru.wikipedia.org/wiki/%D0%9C%D0%BE%D1%81%D0%BA%D0%B2%D0%B0")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if article.Language != "ru" {
		t.Errorf("Language = %q", article.Language)
	}
	if article.Title != "Москва" {
		t.Errorf("Title = %q", article.Title)
	}
	if len(article.Fields) != 1 || article.Fields[0].RawText != "13 010 112 чел." {
		t.Errorf("fields = %+v", article.Fields)
	}
}

func TestExtractNoInfobox(t *testing.T) {
	article, err := NewExtractor(labels, nil).Extract(`<html><body><p>Plain.</p></body></html>`, "https://en.wikipedia.org/wiki/Plain")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(article.Fields) != 0 {
		t.Errorf("fields = %+v", article.Fields)
	}
}

func TestLanguageFallback(t *testing.T) {
	article, err := NewExtractor(labels, nil).Extract(`<html lang="de-AT"><body></body></html>`, "https://mirror.example/wiki/Wien")
	if err != nil {
		t.Fatal(err)
	}
	if article.Language != "de" {
		t.Errorf("Language = %q, want de", article.Language)
	}
}

func TestNamespaced(t *testing.T) {
	tests := map[string]bool{
		"File:Flag.svg":        true,
		"Category:Mountains":   true,
		"Файл:Герб.svg":        true,
		"Star Wars: Episode I": false,
		"Moscow":               false,
	}
	for title, want := range tests {
		if got := namespaced(title); got != want {
			t.Errorf("namespaced(%q) = %v, want %v", title, got, want)
		}
	}
}
