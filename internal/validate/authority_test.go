package validate

import (
	"testing"

	"github.com/ppiankov/infobox2wd/internal/model"
)

func TestAuthorityClassifier_Classify(t *testing.T) {
	config := &model.AuthorityConfig{
		PrimaryDomains:   []string{"legislation.gov.uk", "doi.org", "www.census.gov"},
		SecondaryDomains: []string{"britannica.com", "bbc.co.uk"},
		DomainMap:        map[string]string{"blog.doi.org": "tertiary", "Rosstat.ru": "primary"},
		PathPatterns: []model.PathPattern{
			{Pattern: "^/statistics/", Tier: "primary"},
			{Pattern: "^/news/", Tier: "secondary"},
			{Pattern: "[", Tier: "primary"},
		},
	}

	classifier := NewAuthorityClassifier(config)

	tests := []struct {
		url  string
		want model.AuthorityTier
		desc string
	}{
		{"https://legislation.gov.uk/ukpga/1998/42", model.TierPrimary, "primary exact"},
		{"https://www.legislation.gov.uk/statute", model.TierPrimary, "primary subdomain"},
		{"https://doi.org:443/10.1234/example", model.TierPrimary, "port ignored"},
		{"https://census.gov/data", model.TierPrimary, "configured www prefix dropped"},
		{"https://www.britannica.com/place/Moscow", model.TierSecondary, "secondary subdomain"},
		{"https://news.bbc.co.uk/2/hi", model.TierSecondary, "secondary nested subdomain"},
		{"https://blog.doi.org/post", model.TierTertiary, "domain map wins over list"},
		{"https://rosstat.ru/folder/12781", model.TierPrimary, "domain map case-insensitive"},
		{"https://example.com/statistics/2021", model.TierPrimary, "path pattern"},
		{"https://example.com/news/today", model.TierSecondary, "secondary path pattern"},
		{"https://www.nasa.gov/mission", model.TierPrimary, "gov TLD"},
		{"https://www.mit.edu/research", model.TierPrimary, "edu TLD"},
		{"https://www.ox.ac.uk/about", model.TierPrimary, "ac.uk"},
		{"https://www.abs.gov.au/census", model.TierPrimary, "national gov second level"},
		{"https://example.com/page", model.TierTertiary, "unknown site"},
		{"not a url", model.TierUnknown, "no host"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := classifier.Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestAuthorityClassifier_DefaultConfig(t *testing.T) {
	classifier := NewAuthorityClassifier(nil)

	if got := classifier.Classify("https://www.who.int/data"); got != model.TierPrimary {
		t.Errorf("who.int = %v, want primary", got)
	}
	if got := classifier.Classify("https://www.reuters.com/world"); got != model.TierSecondary {
		t.Errorf("reuters.com = %v, want secondary", got)
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]model.AuthorityTier{
		"primary":   model.TierPrimary,
		" Primary ": model.TierPrimary,
		"1":         model.TierPrimary,
		"secondary": model.TierSecondary,
		"2":         model.TierSecondary,
		"tertiary":  model.TierTertiary,
		"whatever":  model.TierTertiary,
	}
	for in, want := range tests {
		if got := ParseTier(in); got != want {
			t.Errorf("ParseTier(%q) = %v, want %v", in, got, want)
		}
	}
}
