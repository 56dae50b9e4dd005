package ledger

import (
	"github.com/tapas-app/tapas-backend/pkg/date"
)

// Range is a run of consecutive check-ins for display
type Range struct {
	date.Timespan
	Recuperated bool `json:"recuperated,omitempty"`
	Advanced    bool `json:"advanced,omitempty"`
}

// GroupIntoRanges folds check-ins that are exactly factorDays apart into ranges.
// Recuperated and advanced check-ins always form a range of their own.
func GroupIntoRanges(l Ledger, factorDays int) []Range {
	if factorDays < 1 {
		factorDays = 1
	}

	ranges := []Range{}
	open := false

	for _, entry := range FromTimes(l.Checked) {
		tag := l.TagOf(entry)
		if tag != TagNone {
			ranges = append(ranges, Range{
				Timespan:    date.Timespan{Start: entry, End: entry},
				Recuperated: tag == TagRecuperated,
				Advanced:    tag == TagAdvanced,
			})
			open = false
			continue
		}

		if open && date.DaysBetween(ranges[len(ranges)-1].End, entry) == factorDays {
			ranges[len(ranges)-1].End = entry
			continue
		}

		ranges = append(ranges, Range{Timespan: date.Timespan{Start: entry, End: entry}})
		open = true
	}

	return ranges
}
