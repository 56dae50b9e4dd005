package date

import (
	"fmt"
	"math"
	"time"
)

// Day is the duration of one calendar day in UTC
const Day = 24 * time.Hour

// TimeBeforeOrEquals returns whether t1 is before or equal t2
func TimeBeforeOrEquals(t1 time.Time, t2 time.Time) bool {
	ts := t1.UnixNano()
	us := t2.UnixNano()
	return ts <= us
}

// TimeAfterOrEquals returns whether t1 is after or equal t2
func TimeAfterOrEquals(t1 time.Time, t2 time.Time) bool {
	ts := t1.UnixNano()
	us := t2.UnixNano()
	return ts >= us
}

// StartOfDayUTC truncates a time to midnight of its UTC calendar day
func StartOfDayUTC(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfWeekUTC returns UTC midnight of the Monday on or before t
func StartOfWeekUTC(t time.Time) time.Time {
	day := StartOfDayUTC(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// AddDays adds n calendar days to a UTC day
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the rounded number of days from a to b, negative if b is before a
func DaysBetween(a time.Time, b time.Time) int {
	return int(math.Round(float64(b.Sub(a)) / float64(Day)))
}

// NewDay constructs a UTC day
func NewDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayTime is the clock time at which a logical day rolls over, e.g. 04:00
type DayTime struct {
	Hour   int
	Minute int
}

// ParseDayTime parses a "HH:MM" day rollover time, an empty string means midnight
func ParseDayTime(value string) (DayTime, error) {
	if value == "" {
		return DayTime{}, nil
	}

	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return DayTime{}, fmt.Errorf("invalid day time %q: %w", value, err)
	}

	return DayTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// Duration returns the offset of the rollover from midnight
func (d DayTime) Duration() time.Duration {
	return time.Duration(d.Hour)*time.Hour + time.Duration(d.Minute)*time.Minute
}

// String formats the DayTime as HH:MM
func (d DayTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// Today returns the logical day for now as a UTC midnight instant. The day is taken from the
// local calendar of location and only rolls over once dayTime has passed.
func Today(now time.Time, location *time.Location, dayTime DayTime) time.Time {
	if location == nil {
		location = time.UTC
	}

	local := now.In(location).Add(-dayTime.Duration())
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
