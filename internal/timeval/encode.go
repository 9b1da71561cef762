package timeval

import (
	"fmt"
	"strings"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/patterns"
)

// centuries lists Roman numerals in order; the numeral at index i names the
// century starting in year i*100+1
var centuries = []string{
	"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX",
	"XXI", "XXII", "XXIII", "XXIV", "XXV", "XXVI", "XXVII", "XXVIII", "XXIX", "XXX",
}

func centuryIndex(numeral string) int {
	numeral = strings.ToUpper(numeral)
	for i, c := range centuries {
		if c == numeral {
			return i
		}
	}
	return -1
}

// CreateValue encodes a guess as a Wikibase time value. The calendar model
// is decided on the unmasked date.
func CreateValue(g Guess) model.TimeValue {
	calendar := model.CalendarGregorian
	if g.ForceJulian || g.Date.IsJulian() {
		calendar = model.CalendarJulian
	}

	return model.TimeValue{
		Time:          FormatTime(g.Date, g.Precision),
		Precision:     g.Precision,
		CalendarModel: calendar,
	}
}

// FormatTime renders ±YYYY-MM-DDT00:00:00Z with the day zeroed below day
// precision and the month zeroed below month precision
func FormatTime(d CalendarDate, precision int) string {
	sign := "+"
	if d.BCE {
		sign = "-"
	}
	month, day := d.Month, d.Day
	if precision < model.PrecisionDay {
		day = 0
	}
	if precision < model.PrecisionMonth {
		month = 0
	}
	return fmt.Sprintf("%s%04d-%02d-%02dT00:00:00Z", sign, d.Year, month, day)
}

// Render writes d, masked to precision, as text the parser reads back to the
// same date and precision. Supported precisions are 7 to 11.
func Render(set *patterns.Set, d CalendarDate, precision int) (string, error) {
	if set == nil {
		return "", model.ErrConfigurationMissing
	}
	d = MaskToPrecision(d, precision)

	var text string
	switch precision {
	case model.PrecisionDay:
		text = fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case model.PrecisionMonth:
		if set.Months == nil {
			return "", fmt.Errorf("%w: month names for %s", model.ErrConfigurationMissing, set.Language)
		}
		text = fmt.Sprintf("%s %d", set.Months.Names[d.Month-1], d.Year)
	case model.PrecisionYear:
		text = fmt.Sprintf("%d", d.Year)
	case model.PrecisionDecade:
		if set.DecadeFormat == "" {
			return "", fmt.Errorf("%w: decade format for %s", model.ErrConfigurationMissing, set.Language)
		}
		text = fmt.Sprintf(set.DecadeFormat, d.Year/10)
	case model.PrecisionCentury:
		idx := (d.Year - 1) / 100
		if set.CenturyFormat == "" || idx < 0 || idx >= len(centuries) {
			return "", fmt.Errorf("%w: century %d for %s", model.ErrConfigurationMissing, idx+1, set.Language)
		}
		text = fmt.Sprintf(set.CenturyFormat, centuries[idx])
	default:
		return "", fmt.Errorf("unsupported precision %d", precision)
	}

	if d.BCE {
		if set.BCEFormat == "" {
			return "", fmt.Errorf("%w: BCE format for %s", model.ErrConfigurationMissing, set.Language)
		}
		text = fmt.Sprintf(set.BCEFormat, text)
	}
	return text, nil
}
