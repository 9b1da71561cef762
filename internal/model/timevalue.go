package model

// CalendarModel is the concept URI of a calendar
type CalendarModel string

const (
	CalendarGregorian CalendarModel = EntityPrefix + "Q1985727"
	CalendarJulian    CalendarModel = EntityPrefix + "Q1985786"
)

// Time precisions used by Wikibase
const (
	PrecisionMillennium = 6
	PrecisionCentury    = 7
	PrecisionDecade     = 8
	PrecisionYear       = 9
	PrecisionMonth      = 10
	PrecisionDay        = 11
)

// TimeValue is a calendar-aware point in time with a precision.
// Timezone, Before and After are always zero for extracted values.
type TimeValue struct {
	Time          string        `json:"time"`
	Timezone      int           `json:"timezone"`
	Before        int           `json:"before"`
	After         int           `json:"after"`
	Precision     int           `json:"precision"`
	CalendarModel CalendarModel `json:"calendarmodel"`
}
