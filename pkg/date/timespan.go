package date

import (
	"fmt"
	"time"
)

// Timespan is a simple timespan between to times/dates
type Timespan struct {
	Start time.Time `json:"start" bson:"start" validate:"required"`
	End   time.Time `json:"end" bson:"end"`
}

// Days returns the number of calendar days the Timespan covers, both ends included
func (t *Timespan) Days() int {
	return DaysBetween(StartOfDayUTC(t.Start), StartOfDayUTC(t.End)) + 1
}

// String prints a timespan string
func (t *Timespan) String() string {
	return fmt.Sprintf("%s - %s", t.Start.Format("2006-01-02"), t.End.Format("2006-01-02"))
}

// ContainsTime checks if a time lies within the Timespan, both ends included
func (t *Timespan) ContainsTime(point time.Time) bool {
	return TimeAfterOrEquals(point, t.Start) && TimeBeforeOrEquals(point, t.End)
}

// UnitTimespan returns the days covered by the unit t belongs to
func UnitTimespan(t time.Time, schedule Schedule) Timespan {
	factor := schedule.Factor()
	if factor < 1 {
		factor = 1
	}

	switch schedule.Type {
	case ScheduleWeekly:
		start := BucketDate(t, schedule)
		return Timespan{Start: start, End: AddDays(start, factor-1)}
	case ScheduleEveryNthDays:
		end := AddDays(BucketDate(t, schedule), -factor)
		return Timespan{Start: AddDays(end, -(factor - 1)), End: end}
	default:
		day := StartOfDayUTC(t)
		return Timespan{Start: day, End: day}
	}
}
