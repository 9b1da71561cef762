package reference

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
	"github.com/ppiankov/infobox2wd/internal/timeval"
)

func newBuilder(lang string) *Builder {
	return NewBuilder(lang, timeval.NewParser(patterns.MustLoad(lang)))
}

func TestBuild_BaselineOnly(t *testing.T) {
	refs := newBuilder("en").Build(model.FieldContext{PropertyID: "P2044", RawText: "8848 m"})

	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	snaks := refs[0].Snaks[model.PropImportedFrom]
	if len(snaks) != 1 {
		t.Fatalf("expected imported-from snak, got %v", refs[0].Snaks)
	}
	if id, _ := snaks[0].DataValue.ItemID(); id != "Q328" {
		t.Errorf("expected English Wikipedia Q328, got %s", id)
	}
}

func TestBuild_Russian(t *testing.T) {
	refs := newBuilder("ru").Build(model.FieldContext{})

	id, _ := refs[0].Snaks[model.PropImportedFrom][0].DataValue.ItemID()
	if id != "Q206855" {
		t.Errorf("expected Russian Wikipedia Q206855, got %s", id)
	}
}

func TestBuild_UnknownEdition(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	b := NewBuilder("xx", timeval.NewParser(patterns.MustLoad("en")))
	if b.HasBaseline() {
		t.Error("unknown edition should have no baseline")
	}
	if !strings.Contains(logs.String(), "no imported-from item") || !strings.Contains(logs.String(), "site=xxwiki") {
		t.Errorf("missing debug log, got %q", logs.String())
	}

	refs := b.Build(model.FieldContext{})
	if len(refs) != 1 || len(refs[0].Snaks) != 0 {
		t.Errorf("refs = %+v, want one empty reference", refs)
	}

	if !newBuilder("en").HasBaseline() {
		t.Error("English edition should have a baseline")
	}
	extra := NewBuilder("xx", nil, model.ItemSnak(model.PropImportedFrom, "Q1"))
	if !extra.HasBaseline() {
		t.Error("extra baseline snaks should count")
	}
}

func TestBuild_Citations(t *testing.T) {
	field := model.FieldContext{
		References: []model.ReferenceFragment{
			{
				URL:         "https://example.org/report.pdf",
				Title:       "Annual report",
				AccessDate:  "2020-05-01",
				ArchiveURL:  "https://web.archive.org/web/2020/https://example.org/report.pdf",
				ArchiveDate: "3 June 2020",
			},
			{URL: "javascript:alert(1)"},
			{Title: "Printed source without link"},
			{URL: "//example.com/page"},
		},
	}

	refs := newBuilder("en").Build(field)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}

	first := refs[0]
	expectedOrder := []string{
		model.PropImportedFrom,
		model.PropReferenceURL,
		model.PropTitle,
		model.PropRetrieved,
		model.PropArchiveURL,
		model.PropArchiveDate,
	}
	if len(first.SnaksOrder) != len(expectedOrder) {
		t.Fatalf("expected snaks %v, got %v", expectedOrder, first.SnaksOrder)
	}
	for i, p := range expectedOrder {
		if first.SnaksOrder[i] != p {
			t.Errorf("snak %d: expected %s, got %s", i, p, first.SnaksOrder[i])
		}
	}

	retrieved, _ := first.Snaks[model.PropRetrieved][0].DataValue.Time()
	if retrieved.Time != "+2020-05-01T00:00:00Z" || retrieved.Precision != model.PrecisionDay {
		t.Errorf("unexpected retrieved date %+v", retrieved)
	}
	title, _ := first.Snaks[model.PropTitle][0].DataValue.Text()
	if title != "Annual report" {
		t.Errorf("unexpected title %q", title)
	}

	link, _ := refs[1].Snaks[model.PropReferenceURL][0].DataValue.Text()
	if link != "https://example.com/page" {
		t.Errorf("protocol-relative URL not normalized: %s", link)
	}
}

func TestBuild_UnparsableAccessDate(t *testing.T) {
	field := model.FieldContext{
		References: []model.ReferenceFragment{{URL: "https://example.org", AccessDate: "recently"}},
	}

	refs := newBuilder("en").Build(field)
	if _, ok := refs[0].Snaks[model.PropRetrieved]; ok {
		t.Error("unparsable access date must be skipped")
	}
}
