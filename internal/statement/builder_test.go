package statement

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/resolve"
)

type fakeMetadata struct {
	properties map[string]model.PropertyMetadata
	units      map[string]model.UnitMetadata
}

func (f *fakeMetadata) Property(id string) (model.PropertyMetadata, error) {
	p, ok := f.properties[id]
	if !ok {
		return model.PropertyMetadata{}, model.ErrUnknownProperty
	}
	return p, nil
}

func (f *fakeMetadata) Units(ids []string) ([]model.UnitMetadata, error) {
	out := []model.UnitMetadata{}
	for _, id := range ids {
		if u, ok := f.units[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeResolver resolves titles through a fixed table
type fakeResolver struct {
	items      map[string][]string // title -> item ids
	groupCalls int
}

func (f *fakeResolver) Resolve(ctx context.Context, subject, property string, candidates []model.Candidate, languages []string, existing []model.Statement) resolve.Resolution {
	res := resolve.Resolution{Duplicates: make(map[string]bool)}
	present := make(map[string]bool)
	for _, st := range existing {
		id, _ := st.MainSnak.DataValue.ItemID()
		present[id] = true
	}
	for _, c := range candidates {
		ids := f.items[c.Label]
		for _, id := range ids {
			st := model.NewStatement(subject, model.ItemSnak(property, id))
			if len(ids) == 1 {
				for _, q := range c.ImpliedQualifiers {
					st.AddQualifier(q)
				}
			}
			res.Statements = append(res.Statements, st)
			if present[id] {
				res.Duplicates[id] = true
			}
		}
	}
	return res
}

func (f *fakeResolver) ResolveGroups(ctx context.Context, groups [][]model.Candidate, languages []string) [][]string {
	f.groupCalls++
	out := make([][]string, len(groups))
	for i, group := range groups {
		for _, c := range group {
			out[i] = append(out[i], f.items[c.Label]...)
		}
	}
	return out
}

func testMetadata() *fakeMetadata {
	return &fakeMetadata{
		properties: map[string]model.PropertyMetadata{
			"P2044": {ID: "P2044", Datatype: model.DatatypeQuantity, UnitIDs: []string{"Q11573", "Q3710"},
				Constraints: model.PropertyConstraints{AllowedQualifierIDs: []string{model.PropPointInTime}}},
			"P1082": {ID: "P1082", Datatype: model.DatatypeQuantity, UnitIDs: []string{},
				Constraints: model.PropertyConstraints{Integer: true, AllowedQualifierIDs: []string{model.PropPointInTime, "P459"}}},
			"P2102": {ID: "P2102", Datatype: model.DatatypeQuantity, UnitIDs: []string{"Q25267"}},
			"P2076": {ID: "P2076", Datatype: model.DatatypeQuantity, UnitIDs: []string{"Q25267"}},
			"P2077": {ID: "P2077", Datatype: model.DatatypeQuantity, UnitIDs: []string{"Q21064807"}},
			"P571":  {ID: "P571", Datatype: model.DatatypeTime},
			"P580":  {ID: "P580", Datatype: model.DatatypeTime, EndPropertyID: "P582"},
			"P582":  {ID: "P582", Datatype: model.DatatypeTime},
			"P345":  {ID: "P345", Datatype: model.DatatypeExternalID, FormatterURL: "https://www.imdb.com/name/$1/"},
			"P856":  {ID: "P856", Datatype: model.DatatypeURL},
			"P1448": {ID: "P1448", Datatype: model.DatatypeMonolingual},
			"P18":   {ID: "P18", Datatype: model.DatatypeCommonsMedia},
			"P36": {ID: "P36", Datatype: model.DatatypeItem,
				Constraints: model.PropertyConstraints{AllowedQualifierIDs: []string{model.PropPointInTime}}},
			"P459":  {ID: "P459", Datatype: model.DatatypeItem, Constraints: model.PropertyConstraints{Unique: true}},
			"P1545": {ID: "P1545", Datatype: model.DatatypeString},
		},
		units: map[string]model.UnitMetadata{
			"Q11573":    {ID: "Q11573", Search: []string{"m", "metres?"}},
			"Q3710":     {ID: "Q3710", Search: []string{"ft", "feet"}},
			"Q25267":    {ID: "Q25267", Search: []string{"°C"}},
			"Q21064807": {ID: "Q21064807", Search: []string{"kPa"}},
		},
	}
}

func newTestBuilder(t *testing.T, resolver Resolver) *Builder {
	t.Helper()
	b, err := NewBuilder(Config{
		Language: "en",
		Metadata: testMetadata(),
		Resolver: resolver,
		Circa:    true,
	})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

func TestBuild_Quantity(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q513", model.FieldContext{PropertyID: "P2044", RawText: "8,848 m (29,029 ft)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Status != model.FieldParsed || len(res.Statements) != 1 {
		t.Fatalf("expected one parsed statement, got %s/%d", res.Status, len(res.Statements))
	}

	st := res.Statements[0]
	q, _ := st.MainSnak.DataValue.Quantity()
	if q.Amount != "8848" || q.Unit != model.UnitFromID("Q11573") {
		t.Errorf("unexpected quantity %+v", q)
	}
	if len(st.References) != 1 {
		t.Errorf("expected baseline reference, got %d", len(st.References))
	}
	if len(st.Qualifiers) != 0 {
		t.Errorf("feet aside must not become a qualifier, got %v", st.QualifiersOrder)
	}
}

func TestBuild_QuantityPointInTimeAndCirca(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q64", model.FieldContext{PropertyID: "P1082", RawText: "c. 3,644,826 (2018)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected one statement, got %d (%s)", len(res.Statements), res.Status)
	}

	st := res.Statements[0]
	q, _ := st.MainSnak.DataValue.Quantity()
	if q.Amount != "3644826" || q.Unit != model.Dimensionless {
		t.Errorf("unexpected quantity %+v", q)
	}
	if !st.HasQualifier(model.PropSourcingCircumstances) {
		t.Error("expected circa qualifier")
	}
	pit := st.Qualifiers[model.PropPointInTime]
	if len(pit) != 1 {
		t.Fatalf("expected point in time qualifier, got %v", st.QualifiersOrder)
	}
	if tv, _ := pit[0].DataValue.Time(); tv.Time != "+2018-00-00T00:00:00Z" {
		t.Errorf("unexpected point in time %s", tv.Time)
	}
}

func TestBuild_SecondaryQuantity(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q283", model.FieldContext{PropertyID: "P2102", RawText: "100 °C (at 101.325 kPa)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected one statement, got %d (%s)", len(res.Statements), res.Status)
	}

	pressure := res.Statements[0].Qualifiers[model.PropPressure]
	if len(pressure) != 1 {
		t.Fatalf("expected pressure qualifier, got %v", res.Statements[0].QualifiersOrder)
	}
	q, _ := pressure[0].DataValue.Quantity()
	if q.Amount != "101.325" || q.Unit != model.UnitFromID("Q21064807") {
		t.Errorf("unexpected pressure %+v", q)
	}
}

func TestBuild_AmbiguousUnit(t *testing.T) {
	b := newTestBuilder(t, nil)

	for _, text := range []string{"1200", "3 metres or 10 feet"} {
		res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P2044", RawText: text})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if res.Status != model.FieldAmbiguousUnit || len(res.Statements) != 0 {
			t.Errorf("%q: expected ambiguous unit, got %s with %d statements", text, res.Status, len(res.Statements))
		}
	}
}

func TestBuild_UnitFromLabel(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P2044", Label: "Elevation, ft", RawText: "1200"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected unit from label, got %s", res.Status)
	}
	q, _ := res.Statements[0].MainSnak.DataValue.Quantity()
	if q.Unit != model.UnitFromID("Q3710") {
		t.Errorf("expected feet, got %s", q.Unit)
	}
}

func TestBuild_Time(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P571", RawText: "28 December 1999"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected one statement, got %s", res.Status)
	}
	tv, _ := res.Statements[0].MainSnak.DataValue.Time()
	if tv.Time != "+1999-12-28T00:00:00Z" || tv.Precision != 11 {
		t.Errorf("unexpected time %+v", tv)
	}
}

func TestBuild_TimeRange(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P580", RawText: "1999 – present"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Statements) != 2 {
		t.Fatalf("expected start and end statements, got %d", len(res.Statements))
	}
	if res.Statements[0].Property() != "P580" || res.Statements[1].Property() != "P582" {
		t.Errorf("unexpected properties %s, %s", res.Statements[0].Property(), res.Statements[1].Property())
	}
	if res.Statements[1].MainSnak.SnakType != model.SnakNoValue {
		t.Errorf("expected novalue end, got %s", res.Statements[1].MainSnak.SnakType)
	}
	if res.Statements[0].ID == res.Statements[1].ID {
		t.Error("statement ids must be unique")
	}
}

func TestBuild_StringLike(t *testing.T) {
	b := newTestBuilder(t, nil)

	tests := []struct {
		property string
		text     string
		expected string
	}{
		{"P345", "https://www.imdb.com/name/nm0000158/", "nm0000158"},
		{"P345", "nm0000158", "nm0000158"},
		{"P856", "//example.org/home", "https://example.org/home"},
		{"P1448", "Ville de Paris", "Ville de Paris"},
		{"P18", "File:Eiffel Tower.jpg", "Eiffel Tower.jpg"},
	}

	for _, tt := range tests {
		res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: tt.property, RawText: tt.text})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if len(res.Statements) != 1 {
			t.Errorf("%s %q: expected one statement, got %s", tt.property, tt.text, res.Status)
			continue
		}
		got, _ := res.Statements[0].MainSnak.DataValue.Text()
		if got != tt.expected {
			t.Errorf("%s %q: expected %q, got %q", tt.property, tt.text, tt.expected, got)
		}
	}

	res, _ := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P856", RawText: "not a link"})
	if res.Status != model.FieldUnparsed {
		t.Errorf("expected invalid URL to be unparsed, got %s", res.Status)
	}
}

func TestBuild_UnknownProperty(t *testing.T) {
	b := newTestBuilder(t, nil)

	res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P999999", RawText: "42"})
	if err != nil {
		t.Fatalf("unknown property must not fail the build: %v", err)
	}
	if res.Status != model.FieldUnknownProperty {
		t.Errorf("expected unknown property, got %s", res.Status)
	}
}

type brokenMetadata struct{}

func (brokenMetadata) Property(string) (model.PropertyMetadata, error) {
	return model.PropertyMetadata{}, errors.New("disk on fire")
}

func (brokenMetadata) Units([]string) ([]model.UnitMetadata, error) { return nil, nil }

func TestBuild_MetadataError(t *testing.T) {
	b, err := NewBuilder(Config{Language: "en", Metadata: brokenMetadata{}})
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	if _, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P1"}); err == nil {
		t.Error("expected metadata failure to surface")
	}
}

func TestBuild_ItemValues(t *testing.T) {
	resolver := &fakeResolver{items: map[string][]string{"Berlin": {"Q64"}, "Bonn": {"Q586"}}}
	b := newTestBuilder(t, resolver)

	field := model.FieldContext{
		PropertyID: "P36",
		RawText:    "Bonn (1949) Berlin",
		Links: []model.Link{
			{Title: "Bonn", After: " (1949) "},
			{Title: "Berlin"},
		},
	}
	existing := map[string][]model.Statement{
		"P36": {model.NewStatement("Q183", model.ItemSnak("P36", "Q64"))},
	}

	results, err := b.BuildAll(context.Background(), "Q183", []model.FieldContext{field}, existing)
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	res := results[0]
	if len(res.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d (%s)", len(res.Statements), res.Status)
	}
	if !res.Statements[0].HasQualifier(model.PropPointInTime) {
		t.Error("expected implied point in time on Bonn")
	}
	if !res.Duplicates["Q64"] {
		t.Error("expected Berlin flagged as already present")
	}
}

func TestBuild_Unresolved(t *testing.T) {
	b := newTestBuilder(t, &fakeResolver{})

	res, err := b.Build(context.Background(), "Q1", model.FieldContext{PropertyID: "P36", RawText: "Atlantis"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Status != model.FieldUnresolved {
		t.Errorf("expected unresolved, got %s", res.Status)
	}
}

func TestBuildAll_ItemQualifiersResolvedInOnePass(t *testing.T) {
	resolver := &fakeResolver{items: map[string][]string{
		"Census":    {"Q39825"},
		"Estimate":  {"Q791801"},
		"Ambiguous": {"Q1", "Q2"},
	}}
	b := newTestBuilder(t, resolver)

	fields := []model.FieldContext{
		{PropertyID: "P1082", RawText: "3,644,826", Qualifiers: []model.QualifierFragment{
			{PropertyID: "P459", Text: "Census"},
			{PropertyID: model.PropPointInTime, Text: "2018"},
		}},
		{PropertyID: "P1082", RawText: "3,700,000", Qualifiers: []model.QualifierFragment{
			{PropertyID: "P459", Text: "Ambiguous"},
		}},
		{PropertyID: "P1082", RawText: "3,800,000", Qualifiers: []model.QualifierFragment{
			{PropertyID: "P459", Links: []model.Link{{Title: "Estimate"}}},
		}},
	}
	b.metadata.(*fakeMetadata).properties[model.PropPointInTime] = model.PropertyMetadata{ID: model.PropPointInTime, Datatype: model.DatatypeTime}

	results, err := b.BuildAll(context.Background(), "Q64", fields, nil)
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	if resolver.groupCalls != 1 {
		t.Errorf("expected one batched qualifier pass, got %d", resolver.groupCalls)
	}

	first := results[0].Statements[0]
	if got := first.QualifiersOrder; len(got) != 2 || got[0] != model.PropPointInTime || got[1] != "P459" {
		t.Errorf("unexpected qualifier order %v", got)
	}
	if results[1].Statements[0].HasQualifier("P459") {
		t.Error("ambiguous unique qualifier must be dropped")
	}
	if id, _ := results[2].Statements[0].Qualifiers["P459"][0].DataValue.ItemID(); id != "Q791801" {
		t.Errorf("expected linked qualifier Q791801, got %s", id)
	}
}

func TestIDFromFormatter(t *testing.T) {
	tests := []struct {
		template string
		text     string
		expected string
		ok       bool
	}{
		{"https://www.imdb.com/name/$1/", "http://imdb.com/name/nm1/", "nm1", true},
		{"https://twitter.com/$1", "https://twitter.com/wikidata", "wikidata", true},
		{"https://twitter.com/$1", "https://example.com/wikidata", "", false},
		{"https://example.org/", "https://example.org/x", "", false},
	}
	for _, tt := range tests {
		got, ok := idFromFormatter(tt.template, tt.text)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("idFromFormatter(%q, %q) = %q, %v", tt.template, tt.text, got, ok)
		}
	}
}
