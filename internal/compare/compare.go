// Package compare decides whether generated statements are already present
// on the subject item, would add a new value or disagree with it.
package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/timeval"
)

// Counts tallies export verdicts
type Counts struct {
	New      int `json:"new"`
	Present  int `json:"present"`
	Conflict int `json:"conflict"`
	Unknown  int `json:"unknown"`
}

// Total returns the number of statements counted
func (c Counts) Total() int {
	return c.New + c.Present + c.Conflict + c.Unknown
}

// Statements classifies each statement against the claims of the subject.
// A nil entity means the claims could not be read and every verdict is
// unknown.
func Statements(statements []model.Statement, entity *model.Entity) []model.StatementReport {
	out := make([]model.StatementReport, 0, len(statements))
	for _, st := range statements {
		status := model.ExportUnknown
		if entity != nil {
			status = Classify(st, entity.Claims[st.Property()])
		}
		out = append(out, model.StatementReport{Statement: st, Status: status})
	}
	return out
}

// Classify compares one statement with the existing claims of its property
func Classify(st model.Statement, existing []model.Statement) model.ExportStatus {
	comparable := 0
	for _, e := range existing {
		if e.Rank == model.RankDeprecated {
			continue
		}
		comparable++
		if SameValue(st.MainSnak, e.MainSnak) {
			return model.ExportPresent
		}
	}
	if comparable == 0 {
		return model.ExportNew
	}
	return model.ExportConflict
}

// Summarize counts the verdicts of a report
func Summarize(reports []model.StatementReport) Counts {
	var c Counts
	for _, r := range reports {
		switch r.Status {
		case model.ExportNew:
			c.New++
		case model.ExportPresent:
			c.Present++
		case model.ExportConflict:
			c.Conflict++
		default:
			c.Unknown++
		}
	}
	return c
}

// SameValue reports whether two snaks assert the same value. Quantities
// compare numerically in the same unit; an existing value with bounds also
// matches amounts inside them. Times compare at the coarser of the two
// precisions.
func SameValue(a, b model.Snak) bool {
	if a.SnakType != b.SnakType {
		return false
	}
	if a.SnakType != model.SnakValue {
		return true
	}
	if a.DataValue == nil || b.DataValue == nil {
		return false
	}

	if qa, ok := a.DataValue.Quantity(); ok {
		qb, ok := b.DataValue.Quantity()
		return ok && sameQuantity(qa, qb)
	}
	if ta, ok := a.DataValue.Time(); ok {
		tb, ok := b.DataValue.Time()
		return ok && sameTime(ta, tb)
	}
	if ia, ok := a.DataValue.ItemID(); ok {
		ib, ok := b.DataValue.ItemID()
		return ok && ia == ib
	}
	if sa, ok := a.DataValue.Text(); ok {
		sb, ok := b.DataValue.Text()
		return ok && normalizeText(sa) == normalizeText(sb)
	}
	return false
}

func sameQuantity(a, b model.Quantity) bool {
	if unitOf(a) != unitOf(b) {
		return false
	}
	amountA, errA := decimal.NewFromString(strings.TrimPrefix(a.Amount, "+"))
	amountB, errB := decimal.NewFromString(strings.TrimPrefix(b.Amount, "+"))
	if errA != nil || errB != nil {
		return false
	}
	if amountA.Equal(amountB) {
		return true
	}
	if !b.HasBounds() {
		return false
	}
	lower, errL := decimal.NewFromString(strings.TrimPrefix(b.LowerBound, "+"))
	upper, errU := decimal.NewFromString(strings.TrimPrefix(b.UpperBound, "+"))
	if errL != nil || errU != nil {
		return false
	}
	return amountA.GreaterThanOrEqual(lower) && amountA.LessThanOrEqual(upper)
}

func unitOf(q model.Quantity) model.UnitRef {
	if q.Unit == "" {
		return model.Dimensionless
	}
	return q.Unit
}

func sameTime(a, b model.TimeValue) bool {
	if a.CalendarModel != b.CalendarModel {
		return false
	}
	da, errA := ParseTime(a.Time)
	db, errB := ParseTime(b.Time)
	if errA != nil || errB != nil {
		return false
	}
	precision := min(a.Precision, b.Precision)
	return timeval.MaskToPrecision(da, precision) == timeval.MaskToPrecision(db, precision)
}

// ParseTime reads the ±YYYY-MM-DDT00:00:00Z form. Zeroed months and days
// become 1 so the date can be masked.
func ParseTime(s string) (timeval.CalendarDate, error) {
	var d timeval.CalendarDate
	if len(s) < 2 {
		return d, fmt.Errorf("invalid time %q", s)
	}
	switch s[0] {
	case '-':
		d.BCE = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	datePart, _, _ := strings.Cut(s, "T")
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return d, fmt.Errorf("invalid time %q", s)
	}
	values := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return d, fmt.Errorf("invalid time %q: %w", s, err)
		}
		values[i] = n
	}
	d.Year, d.Month, d.Day = values[0], max(values[1], 1), max(values[2], 1)
	return d, nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
