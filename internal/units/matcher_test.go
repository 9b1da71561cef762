package units

import (
	"reflect"
	"testing"

	"github.com/ppiankov/infobox2wd/internal/model"
)

var (
	metre     = model.UnitMetadata{ID: "Q11573", Label: "metre", Search: []string{"m", "metres?", "meters?"}}
	kilometre = model.UnitMetadata{ID: "Q828224", Label: "kilometre", Search: []string{"km", "kilometres?"}}
	sqkm      = model.UnitMetadata{ID: "Q712226", Label: "square kilometre", Search: []string{"km2", "km²", "sq\\.? ?km"}}
	foot      = model.UnitMetadata{ID: "Q3710", Label: "foot", Search: []string{"ft", "feet", "foot"}}
	celsius   = model.UnitMetadata{ID: "Q25267", Label: "degree Celsius", Search: []string{"°C", "^Celsius"}}
)

func TestMatch(t *testing.T) {
	matcher := NewMatcher(nil)
	candidates := []model.UnitMetadata{metre, kilometre, sqkm, foot}

	tests := []struct {
		text     string
		label    string
		expected []string
		desc     string
	}{
		{text: "8848 m", expected: []string{"Q11573"}, desc: "short pattern at end"},
		{text: "8848 m.", expected: []string{"Q11573"}, desc: "abbreviation with dot"},
		{text: "12 km", expected: []string{"Q828224"}, desc: "kilometre"},
		{text: "605 km²", expected: []string{"Q712226"}, desc: "square kilometre"},
		{text: "3 metres high", expected: []string{"Q11573"}, desc: "long pattern mid text"},
		{text: "12 miles", expected: nil, desc: "m inside a word"},
		{text: "1200", label: "Elevation (m)", expected: nil, desc: "label not ending in unit"},
		{text: "1200", label: "Height, ft:", expected: []string{"Q3710"}, desc: "unit declared in label"},
		{text: "about 3 metres or 10 feet", expected: []string{"Q11573", "Q3710"}, desc: "ambiguous"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := matcher.Match(tt.text, candidates, tt.label)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Match(%q, label %q): expected %v, got %v", tt.text, tt.label, tt.expected, got)
			}
		})
	}
}

func TestMatch_Dimensionless(t *testing.T) {
	matcher := NewMatcher(nil)

	got := matcher.Match("42", []model.UnitMetadata{}, "")
	if !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("expected dimensionless, got %v", got)
	}

	if got := matcher.Match("42", nil, ""); len(got) != 0 {
		t.Errorf("unconfigured units should match nothing, got %v", got)
	}
}

func TestMatch_AnchoredPatterns(t *testing.T) {
	matcher := NewMatcher(nil)
	candidates := []model.UnitMetadata{celsius}

	if got := matcher.Match("100 °C", candidates, ""); len(got) != 1 {
		t.Errorf("expected °C match, got %v", got)
	}
	if got := matcher.Match("Celsius 100", candidates, ""); len(got) != 1 {
		t.Errorf("expected anchored match, got %v", got)
	}
	// Anchored patterns are never retried against the label
	if got := matcher.Match("100", candidates, "Celsius"); len(got) != 0 {
		t.Errorf("anchored pattern must not match label, got %v", got)
	}
}

func TestMatch_InvalidPatternSkipped(t *testing.T) {
	matcher := NewMatcher(nil)
	broken := model.UnitMetadata{ID: "Q1", Search: []string{"(?<=x)m", "metres?"}}

	got := matcher.Match("5 metres", []model.UnitMetadata{broken}, "")
	if !reflect.DeepEqual(got, []string{"Q1"}) {
		t.Errorf("expected fallback to valid pattern, got %v", got)
	}
}

func TestFind_Index(t *testing.T) {
	matcher := NewMatcher(nil)

	matches := matcher.Find("605 km2", []model.UnitMetadata{sqkm}, "")
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %v", matches)
	}
	if matches[0].Index != 4 {
		t.Errorf("expected unit at offset 4, got %d", matches[0].Index)
	}
}
