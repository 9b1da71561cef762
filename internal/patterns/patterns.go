// Package patterns holds the locale-dependent regular expressions used by the
// quantity and time parsers. A Set is resolved once per language and injected
// into the parsers, so parsing never consults global state.
package patterns

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the fallback for keys a locale file does not define
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// localeFile mirrors the YAML layout of a locale file
type localeFile struct {
	Language         string `yaml:"language"`
	DecimalSeparator string `yaml:"decimal_separator"`
	Magnitude        struct {
		Thousand string `yaml:"thousand"`
		Million  string `yaml:"million"`
		Billion  string `yaml:"billion"`
		Trillion string `yaml:"trillion"`
	} `yaml:"magnitude"`
	Circa          string     `yaml:"circa"`
	BCE            string     `yaml:"bce"`
	CE             string     `yaml:"ce"`
	OldStyle       string     `yaml:"old_style"`
	Months         [][]string `yaml:"months"`
	MonthsGenitive [][]string `yaml:"months_genitive"`
	Century        string     `yaml:"century"`
	Decade         string     `yaml:"decade"`
	Year           string     `yaml:"year"`
	Present        string     `yaml:"present"`
	Unknown        string     `yaml:"unknown"`
	Render         struct {
		Century string `yaml:"century"`
		Decade  string `yaml:"decade"`
		BCE     string `yaml:"bce"`
	} `yaml:"render"`
}

// Magnitude pairs a scale regex with its power of ten
type Magnitude struct {
	Pattern  *regexp.Regexp
	Exponent int
}

// Months is a compiled month-name alternation with its lookup table
type Months struct {
	Alternation string         // Regex alternation, longest names first
	Names       []string       // Display name per month, index 0 is January
	index       map[string]int // Lowercased name -> month number (1..12)
}

// Lookup returns the month number (1..12) of a matched name
func (m Months) Lookup(name string) (int, bool) {
	month, ok := m.index[strings.ToLower(strings.TrimSuffix(name, "."))]
	return month, ok
}

// Set is the compiled pattern set of one language. Nil fields mean the
// locale configuration lacks the pattern.
type Set struct {
	Language string

	// CommaGroups is true when commas separate thousands ("1,234.5") rather
	// than decimals ("1234,5")
	CommaGroups bool

	Magnitudes []Magnitude // Priority order: thousand, million, billion, trillion
	Circa      *regexp.Regexp
	BCE        *regexp.Regexp
	CE         *regexp.Regexp
	OldStyle   *regexp.Regexp // Marks a date as Julian ("(O.S.)")

	Months         *Months
	MonthsGenitive *Months

	Century *regexp.Regexp // Group 1: Roman numeral
	Decade  *regexp.Regexp // Group 1: decade digits without the trailing zero
	Year    *regexp.Regexp // Group 1: year digits
	Present *regexp.Regexp
	Unknown *regexp.Regexp

	CenturyFormat string // fmt verb %s takes the Roman numeral
	DecadeFormat  string // fmt verb %d takes the decade digits
	BCEFormat     string // fmt verb %s takes the rendered date
}

// Load resolves the pattern set for a language from the embedded locale
// files, falling back to DefaultLanguage key by key.
func Load(lang string) (*Set, error) {
	return LoadWithOverrides(lang, "")
}

// LoadWithOverrides is Load with an optional directory of <lang>.yaml files
// whose keys take precedence over the embedded ones.
func LoadWithOverrides(lang, dir string) (*Set, error) {
	base, err := readEmbedded(DefaultLanguage)
	if err != nil {
		return nil, err
	}

	merged := *base
	if lang != "" && lang != DefaultLanguage {
		if loc, err := readEmbedded(lang); err == nil {
			merged = mergeLocale(merged, *loc)
		}
	}

	if dir != "" {
		path := filepath.Join(dir, lang+".yaml")
		if data, err := os.ReadFile(path); err == nil {
			var loc localeFile
			if err := yaml.Unmarshal(data, &loc); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			merged = mergeLocale(merged, loc)
		}
	}

	merged.Language = lang
	if lang == "" {
		merged.Language = DefaultLanguage
	}
	return compileLocale(merged)
}

// MustLoad is Load for known-good embedded locales
func MustLoad(lang string) *Set {
	set, err := Load(lang)
	if err != nil {
		panic(err)
	}
	return set
}

func readEmbedded(lang string) (*localeFile, error) {
	data, err := localeFS.ReadFile("locales/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", lang, err)
	}
	var loc localeFile
	if err := yaml.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", lang, err)
	}
	return &loc, nil
}

// mergeLocale overlays every non-empty key of over onto base
func mergeLocale(base, over localeFile) localeFile {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	base.Magnitude.Thousand = pick(base.Magnitude.Thousand, over.Magnitude.Thousand)
	base.Magnitude.Million = pick(base.Magnitude.Million, over.Magnitude.Million)
	base.Magnitude.Billion = pick(base.Magnitude.Billion, over.Magnitude.Billion)
	base.Magnitude.Trillion = pick(base.Magnitude.Trillion, over.Magnitude.Trillion)
	base.DecimalSeparator = pick(base.DecimalSeparator, over.DecimalSeparator)
	base.Circa = pick(base.Circa, over.Circa)
	base.BCE = pick(base.BCE, over.BCE)
	base.CE = pick(base.CE, over.CE)
	base.OldStyle = pick(base.OldStyle, over.OldStyle)
	base.Century = pick(base.Century, over.Century)
	base.Decade = pick(base.Decade, over.Decade)
	base.Year = pick(base.Year, over.Year)
	base.Present = pick(base.Present, over.Present)
	base.Unknown = pick(base.Unknown, over.Unknown)
	base.Render.Century = pick(base.Render.Century, over.Render.Century)
	base.Render.Decade = pick(base.Render.Decade, over.Render.Decade)
	base.Render.BCE = pick(base.Render.BCE, over.Render.BCE)
	if len(over.Months) == 12 {
		base.Months = over.Months
		// Genitive forms of the fallback language make no sense with foreign nominatives
		base.MonthsGenitive = nil
	}
	if len(over.MonthsGenitive) == 12 {
		base.MonthsGenitive = over.MonthsGenitive
	}
	return base
}

// compileLocale turns a locale file into a Set
func compileLocale(loc localeFile) (*Set, error) {
	set := &Set{
		Language:      loc.Language,
		CommaGroups:   loc.DecimalSeparator == ".",
		CenturyFormat: loc.Render.Century,
		DecadeFormat:  loc.Render.Decade,
		BCEFormat:     loc.Render.BCE,
	}

	var err error
	compile := func(key, expr string) *regexp.Regexp {
		if expr == "" || err != nil {
			return nil
		}
		re, cerr := regexp.Compile(expr)
		if cerr != nil {
			err = fmt.Errorf("locale %s: pattern %s: %w", loc.Language, key, cerr)
			return nil
		}
		return re
	}

	for _, m := range []struct {
		key      string
		expr     string
		exponent int
	}{
		{"thousand", loc.Magnitude.Thousand, 3},
		{"million", loc.Magnitude.Million, 6},
		{"billion", loc.Magnitude.Billion, 9},
		{"trillion", loc.Magnitude.Trillion, 12},
	} {
		if re := compile(m.key, m.expr); re != nil {
			set.Magnitudes = append(set.Magnitudes, Magnitude{Pattern: re, Exponent: m.exponent})
		}
	}

	set.Circa = compile("circa", loc.Circa)
	set.BCE = compile("bce", loc.BCE)
	set.CE = compile("ce", loc.CE)
	set.OldStyle = compile("old_style", loc.OldStyle)
	set.Century = compile("century", loc.Century)
	set.Decade = compile("decade", loc.Decade)
	set.Year = compile("year", loc.Year)
	set.Present = compile("present", loc.Present)
	set.Unknown = compile("unknown", loc.Unknown)
	if err != nil {
		return nil, err
	}

	if len(loc.Months) == 12 {
		set.Months = buildMonths(loc.Months)
	}
	switch {
	case len(loc.MonthsGenitive) == 12:
		set.MonthsGenitive = buildMonths(loc.MonthsGenitive)
	case set.Months != nil:
		set.MonthsGenitive = set.Months
	}

	return set, nil
}

func buildMonths(names [][]string) *Months {
	m := &Months{
		Names: make([]string, 12),
		index: make(map[string]int),
	}

	var all []string
	for i, forms := range names {
		for j, form := range forms {
			form = strings.TrimSuffix(strings.TrimSpace(form), ".")
			if form == "" {
				continue
			}
			if j == 0 {
				m.Names[i] = form
			}
			m.index[strings.ToLower(form)] = i + 1
			all = append(all, form)
		}
	}

	// Longest first so "March" wins over "Mar"
	sort.SliceStable(all, func(i, j int) bool {
		return len(all[i]) > len(all[j])
	})
	quoted := make([]string, len(all))
	for i, name := range all {
		quoted[i] = regexp.QuoteMeta(name)
	}
	m.Alternation = "(?i:" + strings.Join(quoted, "|") + ")"

	return m
}

// Languages lists the embedded locales
func Languages() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return langs
}
