package timeval

import (
	"fmt"

	"github.com/ppiankov/infobox2wd/internal/model"
)

// CalendarDate is a date in either calendar. Year is always positive; BCE
// marks years before the common era.
type CalendarDate struct {
	Year  int
	Month int
	Day   int
	BCE   bool
}

// gregorianStart is the first day of the Gregorian calendar
var gregorianStart = CalendarDate{Year: 1582, Month: 10, Day: 15}

// Before reports whether d is strictly earlier than other
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.BCE != other.BCE {
		return d.BCE
	}
	if d.BCE {
		// Larger BCE years are earlier
		if d.Year != other.Year {
			return d.Year > other.Year
		}
	} else if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsJulian reports whether the date falls before the Gregorian reform
func (d CalendarDate) IsJulian() bool {
	return d.Before(gregorianStart)
}

// Valid reports whether month and day exist in the given calendar
func (d CalendarDate) Valid(julian bool) bool {
	if d.Year <= 0 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= daysIn(d.astronomicalYear(), d.Month, julian)
}

func (d CalendarDate) astronomicalYear() int {
	if d.BCE {
		return 1 - d.Year
	}
	return d.Year
}

func (d CalendarDate) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	if d.BCE {
		s += " BCE"
	}
	return s
}

func daysIn(year, month int, julian bool) int {
	switch month {
	case 2:
		if isLeap(year, julian) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// isLeap takes an astronomical year (1 BCE is year 0)
func isLeap(year int, julian bool) bool {
	if julian {
		return mod(year, 4) == 0
	}
	return mod(year, 4) == 0 && (mod(year, 100) != 0 || mod(year, 400) == 0)
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// MaskToPrecision truncates d to the start of the period a precision
// denotes: the month for 10, the year for 9, the decade for 8 and the period
// starting at year ...01 for 7 and below (the 14th century starts in 1301).
// Precisions outside 5..11 return d unchanged.
func MaskToPrecision(d CalendarDate, precision int) CalendarDate {
	if precision < 5 || precision >= model.PrecisionDay {
		return d
	}

	masked := CalendarDate{Year: d.Year, Month: d.Month, Day: 1, BCE: d.BCE}
	if precision <= model.PrecisionYear {
		masked.Month = 1
	}

	switch {
	case precision == model.PrecisionDecade:
		masked.Year = d.Year / 10 * 10
	case precision <= model.PrecisionCentury:
		span := pow10(model.PrecisionYear - precision)
		masked.Year = (d.Year-1)/span*span + 1
	}
	return masked
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
