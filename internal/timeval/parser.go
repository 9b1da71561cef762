// Package timeval parses localized date text into calendar-aware Wikibase
// time values with a precision.
package timeval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
)

// Kind distinguishes a concrete date from the "no value" and "unknown value"
// sentinels
type Kind int

const (
	KindValue Kind = iota
	KindNoValue
	KindSomeValue
)

func (k Kind) String() string {
	switch k {
	case KindNoValue:
		return "novalue"
	case KindSomeValue:
		return "somevalue"
	default:
		return "value"
	}
}

// SnakType maps the kind onto a Wikibase snak type
func (k Kind) SnakType() model.SnakType {
	switch k {
	case KindNoValue:
		return model.SnakNoValue
	case KindSomeValue:
		return model.SnakSomeValue
	default:
		return model.SnakValue
	}
}

// Guess is a recognized date before encoding
type Guess struct {
	Kind        Kind
	Date        CalendarDate
	Precision   int
	ForceJulian bool
}

// Result is a parsed time. Value is zero unless Kind is KindValue.
type Result struct {
	Kind  Kind
	Value model.TimeValue
}

// RangeResult holds either a Start/End pair or a single Point
type RangeResult struct {
	Start *Result
	End   *Result
	Point *Result
}

// IsRange reports whether both ends were recognized
func (r RangeResult) IsRange() bool {
	return r.Start != nil && r.End != nil
}

var (
	julianAside = regexp.MustCompile(`\s\([^()]*\)\s`)
	anyAside    = regexp.MustCompile(`\s*\([^()]*\)`)
	bareRoman   = regexp.MustCompile(`^([IVXLC]+)$`)
	dotted      = regexp.MustCompile(`(?:^|\D)(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})(?:\D|$)`)
	iso         = regexp.MustCompile(`(?:^|\D)(\d{4}|\d{2})-(\d{1,2})-(\d{1,2})(?:\D|$)`)
	rangeSplit  = regexp.MustCompile(`\s+-\s+|\s*[–—]\s*`)
	bareHyphen  = regexp.MustCompile(`-`)
)

// minRangeSide is the least amount of text each side of a range must carry,
// so that ISO dates are never split
const minRangeSide = 4

// Parser recognizes dates using a locale pattern set. It is safe for
// concurrent use.
type Parser struct {
	patterns *patterns.Set

	monthYear *regexp.Regexp // 1: month, 2: year
	dayMonth  *regexp.Regexp // 1: day, 2: month, 3: year
	monthDay  *regexp.Regexp // 1: month, 2: day, 3: year
}

// NewParser creates a new time parser
func NewParser(set *patterns.Set) *Parser {
	p := &Parser{patterns: set}
	if set == nil {
		return p
	}

	if set.Months != nil {
		months := `(` + set.Months.Alternation + `)`
		p.monthYear = regexp.MustCompile(`^` + months + `\.?\s+(\d{1,4})(?:[^\d,]|$)`)
		p.monthDay = regexp.MustCompile(`(?:^|\s)` + months + `\.?\s+(\d{1,2}),?\s+(\d{1,4})(?:\D|$)`)
	}
	if set.MonthsGenitive != nil {
		p.dayMonth = regexp.MustCompile(`(?:^|\D)(\d{1,2})\s+(` + set.MonthsGenitive.Alternation + `)\.?,?\s+(\d{1,4})(?:\D|$)`)
	}
	return p
}

// Parse recognizes text and encodes it as a time value
func (p *Parser) Parse(text string, forceJulian bool) (Result, error) {
	g, err := p.Guess(text, forceJulian)
	if err != nil {
		return Result{}, err
	}
	if g.Kind != KindValue {
		return Result{Kind: g.Kind}, nil
	}
	return Result{Kind: KindValue, Value: CreateValue(g)}, nil
}

// Guess recognizes a date and its precision without encoding it. Patterns
// are tried from the coarsest textual form to the bare year, first match
// wins.
func (p *Parser) Guess(text string, forceJulian bool) (Guess, error) {
	if p.patterns == nil {
		return Guess{}, fmt.Errorf("%w: %w: no pattern set", model.ErrParseFailure, model.ErrConfigurationMissing)
	}
	set := p.patterns

	if julianAside.MatchString(text) || (set.OldStyle != nil && set.OldStyle.MatchString(text)) {
		forceJulian = true
	}
	text = strings.TrimSpace(anyAside.ReplaceAllString(text, ""))

	bce := false
	if set.BCE != nil && set.BCE.MatchString(text) {
		bce = true
		text = strings.TrimSpace(set.BCE.ReplaceAllString(text, ""))
	} else if set.CE != nil {
		text = strings.TrimSpace(set.CE.ReplaceAllString(text, ""))
	}

	guess := func(d CalendarDate, precision int) (Guess, error) {
		d.BCE = bce
		julian := forceJulian || d.IsJulian()
		if !d.Valid(julian) {
			return Guess{}, fmt.Errorf("%w: no such day %s", model.ErrParseFailure, d)
		}
		return Guess{Kind: KindValue, Date: d, Precision: precision, ForceJulian: forceJulian}, nil
	}

	// 1. Century
	if idx := p.century(text); idx >= 0 {
		return guess(CalendarDate{Year: idx*100 + 1, Month: 1, Day: 1}, model.PrecisionCentury)
	}

	// 2. Month and year
	if p.monthYear != nil {
		if m := p.monthYear.FindStringSubmatch(text); m != nil {
			month, _ := set.Months.Lookup(m[1])
			return guess(CalendarDate{Year: atoi(m[2]), Month: month, Day: 1}, model.PrecisionMonth)
		}
	}

	// 3. Day, month name and year
	if p.dayMonth != nil {
		if m := p.dayMonth.FindStringSubmatch(text); m != nil {
			month, _ := set.MonthsGenitive.Lookup(m[2])
			return guess(CalendarDate{Year: atoi(m[3]), Month: month, Day: atoi(m[1])}, model.PrecisionDay)
		}
	}
	if p.monthDay != nil {
		if m := p.monthDay.FindStringSubmatch(text); m != nil {
			month, _ := set.Months.Lookup(m[1])
			return guess(CalendarDate{Year: atoi(m[3]), Month: month, Day: atoi(m[2])}, model.PrecisionDay)
		}
	}

	// 4. DD.MM.YY[YY]
	if m := dotted.FindStringSubmatch(text); m != nil {
		return guess(CalendarDate{Year: fullYear(m[3]), Month: atoi(m[2]), Day: atoi(m[1])}, model.PrecisionDay)
	}

	// 5. ISO
	if m := iso.FindStringSubmatch(text); m != nil {
		return guess(CalendarDate{Year: fullYear(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}, model.PrecisionDay)
	}

	// 6. Decade
	if set.Decade != nil {
		if m := set.Decade.FindStringSubmatch(text); m != nil {
			year := atoi(m[1]) * 10
			if year > 0 {
				return guess(CalendarDate{Year: year, Month: 1, Day: 1}, model.PrecisionDecade)
			}
		}
	}

	// 7. Year
	if set.Year != nil {
		if m := set.Year.FindStringSubmatch(text); m != nil {
			return guess(CalendarDate{Year: atoi(m[1]), Month: 1, Day: 1}, model.PrecisionYear)
		}
	}

	// 8. and 9. Sentinels
	if set.Present != nil && set.Present.MatchString(text) {
		return Guess{Kind: KindNoValue}, nil
	}
	if set.Unknown != nil && set.Unknown.MatchString(text) {
		return Guess{Kind: KindSomeValue}, nil
	}

	if set.Year == nil || set.Months == nil {
		return Guess{}, fmt.Errorf("%w: %w: %s patterns incomplete", model.ErrParseFailure, model.ErrConfigurationMissing, set.Language)
	}
	return Guess{}, fmt.Errorf("%w: %q", model.ErrParseFailure, text)
}

// century returns the index of a Roman-numeral century in text, or -1
func (p *Parser) century(text string) int {
	if m := bareRoman.FindStringSubmatch(text); m != nil {
		return centuryIndex(m[1])
	}
	if p.patterns.Century == nil {
		return -1
	}
	if m := p.patterns.Century.FindStringSubmatch(text); m != nil {
		return centuryIndex(m[1])
	}
	return -1
}

// ParseRange splits "start – end" text and parses both sides. When only one
// side is recognized, or the text has no range separator, the result is a
// single Point. An unspaced hyphen ("1941-1945") splits only text that is
// not an ISO date, and only when the left side is a year or month.
func (p *Parser) ParseRange(text string) (RangeResult, error) {
	for _, loc := range rangeSplit.FindAllStringIndex(text, -1) {
		left, right, ok := rangeSides(text, loc)
		if !ok {
			continue
		}

		start, startErr := p.Parse(left, false)
		end, endErr := p.Parse(right, false)
		switch {
		case startErr == nil && endErr == nil:
			return RangeResult{Start: &start, End: &end}, nil
		case startErr == nil:
			return RangeResult{Point: &start}, nil
		case endErr == nil:
			return RangeResult{Point: &end}, nil
		}
	}

	if !iso.MatchString(text) {
		for _, loc := range bareHyphen.FindAllStringIndex(text, -1) {
			left, right, ok := rangeSides(text, loc)
			if !ok {
				continue
			}
			start, err := p.Parse(left, false)
			if err != nil || start.Kind != KindValue || start.Value.Precision > model.PrecisionMonth {
				continue
			}
			if end, err := p.Parse(right, false); err == nil {
				return RangeResult{Start: &start, End: &end}, nil
			}
		}
	}

	point, err := p.Parse(text, false)
	if err != nil {
		return RangeResult{}, err
	}
	return RangeResult{Point: &point}, nil
}

// rangeSides cuts text around a separator match and checks both sides are
// long enough to be dates
func rangeSides(text string, loc []int) (string, string, bool) {
	left := strings.TrimSpace(text[:loc[0]])
	right := strings.TrimSpace(text[loc[1]:])
	ok := len([]rune(left)) >= minRangeSide && len([]rune(right)) >= minRangeSide
	return left, right, ok
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// fullYear maps two-digit years onto the 1900s
func fullYear(s string) int {
	year := atoi(s)
	if len(s) == 2 {
		year += 1900
	}
	return year
}
