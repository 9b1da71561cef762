// Package units recognizes measurement units in field text using the search
// patterns configured per unit item.
package units

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// shortPattern is the length under which a pattern must also end the text,
// so that "m" does not match inside "mi" or "min"
const shortPattern = 5

// Match is one recognized unit. Index is the byte offset of the unit in the
// value text, or -1 when it was found in the label.
type Match struct {
	UnitID string
	Index  int
}

// Matcher tests unit search patterns against text. Compiled patterns are
// cached, so a Matcher should be shared.
type Matcher struct {
	logger   *slog.Logger
	compiled sync.Map // pattern source -> *regexp.Regexp or nil when invalid
}

// NewMatcher creates a new unit matcher
func NewMatcher(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// Match returns the ids of every candidate unit found in text, falling back
// to a unit declared at the end of label. An explicitly empty candidate list
// means the property is dimensionless.
func (m *Matcher) Match(text string, candidates []model.UnitMetadata, label string) []string {
	matches := m.Find(text, candidates, label)
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.UnitID)
	}
	return ids
}

// Find is Match with the position of each unit in text
func (m *Matcher) Find(text string, candidates []model.UnitMetadata, label string) []Match {
	if candidates != nil && len(candidates) == 0 {
		return []Match{{UnitID: string(model.Dimensionless), Index: -1}}
	}

	var matches []Match
	for _, unit := range candidates {
		if match, ok := m.findUnit(text, unit, label); ok {
			matches = append(matches, match)
		}
	}
	return matches
}

func (m *Matcher) findUnit(text string, unit model.UnitMetadata, label string) (Match, bool) {
	for _, pattern := range unit.Search {
		anchored := strings.HasPrefix(pattern, "^")

		source := pattern
		if !anchored {
			source = `[\d\s.](?:` + pattern + `)`
			if len(pattern) < shortPattern {
				source += `\.?$`
			}
		}
		if re := m.compile(unit.ID, source); re != nil {
			if loc := re.FindStringIndex(text); loc != nil {
				index := loc[0]
				if !anchored {
					index++
				}
				return Match{UnitID: unit.ID, Index: index}, true
			}
		}

		if label == "" || anchored {
			continue
		}
		if re := m.compile(unit.ID, `(?:`+pattern+`):?$`); re != nil && re.MatchString(strings.TrimSpace(label)) {
			return Match{UnitID: unit.ID, Index: -1}, true
		}
	}
	return Match{}, false
}

// compile returns the cached regex for source, or nil when RE2 rejects it
func (m *Matcher) compile(unitID, source string) *regexp.Regexp {
	if cached, ok := m.compiled.Load(source); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}

	re, err := regexp.Compile(source)
	if err != nil {
		m.logger.Debug("skipping unit pattern", "unit", unitID, "pattern", source, "error", err)
		m.compiled.Store(source, (*regexp.Regexp)(nil))
		return nil
	}
	m.compiled.Store(source, re)
	return re
}
