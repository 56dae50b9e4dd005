package date

import (
	"math"
	"time"
)

// ScheduleType declares how often a unit recurs
type ScheduleType string

const (
	// ScheduleDaily is one unit per day
	ScheduleDaily ScheduleType = "daily"
	// ScheduleWeekly is one unit per week
	ScheduleWeekly ScheduleType = "weekly"
	// ScheduleEveryNthDays is one unit every Interval days
	ScheduleEveryNthDays ScheduleType = "everyNthDays"
	// ScheduleNone has no recurrence
	ScheduleNone ScheduleType = "noSchedule"
)

// IsValid checks if the ScheduleType is known
func (s ScheduleType) IsValid() bool {
	switch s {
	case ScheduleDaily, ScheduleWeekly, ScheduleEveryNthDays, ScheduleNone:
		return true
	}

	return false
}

// Schedule describes the recurrence of a commitment.
// Interval must be positive for ScheduleEveryNthDays, the calculator does not check it.
type Schedule struct {
	Type         ScheduleType
	Interval     int
	StartDate    time.Time
	DurationDays int
}

// Remaining describes how much time is left until a schedule ends
type Remaining struct {
	EndDate       time.Time `json:"endDate"`
	DaysRemaining int       `json:"daysRemaining"`
	DaysOverdue   int       `json:"daysOverdue"`
	Indefinite    bool      `json:"indefinite"`
}

// ScheduleFactor returns the number of days one unit spans
func ScheduleFactor(scheduleType ScheduleType, interval int) int {
	switch scheduleType {
	case ScheduleWeekly:
		return 7
	case ScheduleEveryNthDays:
		return interval
	default:
		return 1
	}
}

// Factor returns the number of days one unit of the schedule spans
func (s Schedule) Factor() int {
	return ScheduleFactor(s.Type, s.Interval)
}

// BucketDate returns the canonical date of the unit t belongs to.
// Weekly buckets start on the weekday of the start date, not on Monday.
func BucketDate(t time.Time, schedule Schedule) time.Time {
	day := StartOfDayUTC(t)
	start := StartOfDayUTC(schedule.StartDate)

	switch schedule.Type {
	case ScheduleWeekly:
		offset := start.Sub(StartOfWeekUTC(start))
		return StartOfWeekUTC(day.Add(-offset)).Add(offset)
	case ScheduleEveryNthDays:
		interval := float64(schedule.Interval)
		elapsed := float64(day.Sub(start)) / float64(Day)
		// A day exactly on a boundary lands on the following boundary
		intervals := int(math.Ceil(elapsed / interval))
		return AddDays(start, (intervals+1)*schedule.Interval)
	default:
		return day
	}
}

// IsUnitSatisfied checks if the UTC day of t is contained in checked
func IsUnitSatisfied(checked []time.Time, t time.Time) bool {
	day := StartOfDayUTC(t)
	for _, entry := range checked {
		if StartOfDayUTC(entry).Equal(day) {
			return true
		}
	}

	return false
}

// EndDate returns the last day of the schedule, zero if it is indefinite
func EndDate(schedule Schedule) time.Time {
	if schedule.DurationDays <= 0 {
		return time.Time{}
	}

	return AddDays(StartOfDayUTC(schedule.StartDate), schedule.DurationDays-1)
}

// WithinDuration checks if t lies between the start and the last day of the schedule
func WithinDuration(t time.Time, schedule Schedule) bool {
	day := StartOfDayUTC(t)
	start := StartOfDayUTC(schedule.StartDate)

	if schedule.DurationDays <= 0 {
		return !day.Before(start)
	}

	span := Timespan{Start: start, End: EndDate(schedule)}

	return span.ContainsTime(day)
}

// RemainingUnits computes the end date and the days left until it relative to today
func RemainingUnits(schedule Schedule, today time.Time) Remaining {
	if schedule.DurationDays <= 0 {
		return Remaining{Indefinite: true}
	}

	end := EndDate(schedule)
	overdue := DaysBetween(StartOfDayUTC(today), end)

	remaining := overdue
	if remaining < 0 {
		remaining = 0
	}

	return Remaining{
		EndDate:       end,
		DaysRemaining: remaining,
		DaysOverdue:   overdue,
	}
}

// TotalUnits returns the number of units the schedule spans
func TotalUnits(schedule Schedule) int {
	factor := schedule.Factor()
	if schedule.DurationDays <= 0 || factor <= 0 {
		return 0
	}

	return (schedule.DurationDays + factor - 1) / factor
}
