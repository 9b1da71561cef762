// Package stability rates how contested an article is from its recent edit
// history. Values taken from an article in the middle of an edit war deserve
// a second look before they are exported.
package stability

import (
	"strings"
	"time"

	"github.com/ppiankov/infobox2wd/internal/model"
	"github.com/ppiankov/infobox2wd/internal/wikidata"
)

// Window is the period recent edits are counted in
const Window = 30 * 24 * time.Hour

var revertMarkers = []string{"revert", "rv ", "undo", "undid", "откат", "отмена правки"}

// Analyze summarizes revisions as of now. Revisions may come in any order.
func Analyze(revisions []wikidata.Revision, now time.Time) *model.Stability {
	s := &model.Stability{Severity: model.SeverityNone}
	cutoff := now.Add(-Window)
	editors := make(map[string]bool)
	var oldest time.Time

	for _, rev := range revisions {
		if rev.Timestamp.IsZero() || rev.Timestamp.Before(cutoff) {
			continue
		}
		s.RecentEdits++
		editors[rev.User] = true

		if s.LastEdit == nil || rev.Timestamp.After(*s.LastEdit) {
			t := rev.Timestamp
			s.LastEdit = &t
		}
		if oldest.IsZero() || rev.Timestamp.Before(oldest) {
			oldest = rev.Timestamp
		}
		if isRevert(rev.Comment) {
			s.Reverts++
		}
	}
	s.UniqueEditors = len(editors)

	if s.RecentEdits > 0 {
		// Bursts shorter than a day count as one day
		days := now.Sub(oldest).Hours() / 24
		if days < 1 {
			days = 1
		}
		s.EditsPerDay = float64(s.RecentEdits) / days
	}

	switch {
	case (s.RecentEdits > 10 && s.Reverts > 3) || s.EditsPerDay > 5:
		s.Severity = model.SeverityHigh
	case (s.RecentEdits > 5 && s.Reverts > 1) || s.EditsPerDay > 2:
		s.Severity = model.SeverityMedium
	case s.Reverts > 0:
		s.Severity = model.SeverityLow
	}
	return s
}

func isRevert(comment string) bool {
	comment = strings.ToLower(comment)
	for _, marker := range revertMarkers {
		if strings.Contains(comment, marker) {
			return true
		}
	}
	return false
}
