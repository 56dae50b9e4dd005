package date

import (
	"testing"
	"time"
)

func TestScheduleFactor(t *testing.T) {
	var tests = []struct {
		scheduleType ScheduleType
		interval     int
		out          int
	}{
		{ScheduleDaily, 0, 1},
		{ScheduleDaily, 5, 1},
		{ScheduleWeekly, 3, 7},
		{ScheduleEveryNthDays, 3, 3},
		{ScheduleNone, 0, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheduleType), func(t *testing.T) {
			if got := ScheduleFactor(tt.scheduleType, tt.interval); got != tt.out {
				t.Errorf("got %d, want %d", got, tt.out)
			}
		})
	}
}

func TestBucketDate_Daily(t *testing.T) {
	schedule := Schedule{Type: ScheduleDaily, StartDate: NewDay(2024, 1, 1), DurationDays: 5}

	for day := 0; day < 40; day++ {
		in := time.Date(2023, 12, 20, 7*day%24, 13, 0, 0, time.UTC).AddDate(0, 0, day)
		if got := BucketDate(in, schedule); !got.Equal(StartOfDayUTC(in)) {
			t.Errorf("daily bucket of %s is %s", in, got)
		}
	}
}

func TestBucketDate_WeeklyMondayStart(t *testing.T) {
	schedule := Schedule{Type: ScheduleWeekly, StartDate: NewDay(2024, 1, 1), DurationDays: 21}

	for day := 0; day < 40; day++ {
		in := NewDay(2023, 12, 20).AddDate(0, 0, day)
		if got := BucketDate(in, schedule); !got.Equal(StartOfWeekUTC(in)) {
			t.Errorf("weekly bucket of %s is %s, want %s", in, got, StartOfWeekUTC(in))
		}
	}
}

func TestBucketDate(t *testing.T) {
	weekly := Schedule{Type: ScheduleWeekly, StartDate: NewDay(2024, 1, 1), DurationDays: 21}
	weeklyWednesday := Schedule{Type: ScheduleWeekly, StartDate: NewDay(2024, 1, 3), DurationDays: 21}
	everyThird := Schedule{Type: ScheduleEveryNthDays, Interval: 3, StartDate: NewDay(2024, 1, 1), DurationDays: 9}

	var tests = []struct {
		name     string
		in       time.Time
		schedule Schedule
		out      time.Time
	}{
		{"weekly friday of first week", NewDay(2024, 1, 5), weekly, NewDay(2024, 1, 1)},
		{"weekly following monday", NewDay(2024, 1, 8), weekly, NewDay(2024, 1, 8)},
		{"weekly start day", NewDay(2024, 1, 3), weeklyWednesday, NewDay(2024, 1, 3)},
		{"weekly tuesday before next phase", NewDay(2024, 1, 9), weeklyWednesday, NewDay(2024, 1, 3)},
		{"weekly next phase", NewDay(2024, 1, 10), weeklyWednesday, NewDay(2024, 1, 10)},
		{"every third day on start", NewDay(2024, 1, 1), everyThird, NewDay(2024, 1, 4)},
		{"every third day second day", NewDay(2024, 1, 2), everyThird, NewDay(2024, 1, 7)},
		{"every third day on boundary", NewDay(2024, 1, 4), everyThird, NewDay(2024, 1, 7)},
		{"every third day after boundary", NewDay(2024, 1, 5), everyThird, NewDay(2024, 1, 10)},
		{"time of day is ignored", time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), everyThird, NewDay(2024, 1, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketDate(tt.in, tt.schedule); !got.Equal(tt.out) {
				t.Errorf("got %s, want %s", got, tt.out)
			}
		})
	}
}

func TestIsUnitSatisfied(t *testing.T) {
	checked := []time.Time{NewDay(2024, 1, 1), NewDay(2024, 1, 2), NewDay(2024, 1, 3)}

	if !IsUnitSatisfied(checked, time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)) {
		t.Error("expected 2024-01-02 to be satisfied")
	}

	if IsUnitSatisfied(checked, NewDay(2024, 1, 4)) {
		t.Error("expected 2024-01-04 not to be satisfied")
	}

	if IsUnitSatisfied(nil, NewDay(2024, 1, 1)) {
		t.Error("expected empty set not to satisfy anything")
	}
}

func TestWithinDuration(t *testing.T) {
	schedule := Schedule{Type: ScheduleDaily, StartDate: NewDay(2024, 1, 1), DurationDays: 5}
	indefinite := Schedule{Type: ScheduleNone, StartDate: NewDay(2024, 1, 1)}

	var tests = []struct {
		name     string
		in       time.Time
		schedule Schedule
		out      bool
	}{
		{"before start", NewDay(2023, 12, 31), schedule, false},
		{"start", NewDay(2024, 1, 1), schedule, true},
		{"fourth day", NewDay(2024, 1, 4), schedule, true},
		{"last day late evening", time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC), schedule, true},
		{"after end", NewDay(2024, 1, 6), schedule, false},
		{"indefinite far future", NewDay(2030, 1, 1), indefinite, true},
		{"indefinite before start", NewDay(2023, 1, 1), indefinite, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinDuration(tt.in, tt.schedule); got != tt.out {
				t.Errorf("got %t, want %t", got, tt.out)
			}
		})
	}
}

func TestRemainingUnits(t *testing.T) {
	schedule := Schedule{Type: ScheduleDaily, StartDate: NewDay(2024, 1, 1), DurationDays: 5}

	var tests = []struct {
		name      string
		today     time.Time
		remaining int
		overdue   int
	}{
		{"first day", NewDay(2024, 1, 1), 4, 4},
		{"last day", NewDay(2024, 1, 5), 0, 0},
		{"two days late", NewDay(2024, 1, 7), 0, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingUnits(schedule, tt.today)
			if !got.EndDate.Equal(NewDay(2024, 1, 5)) {
				t.Errorf("end date %s, want 2024-01-05", got.EndDate)
			}

			if got.DaysRemaining != tt.remaining || got.DaysOverdue != tt.overdue {
				t.Errorf("got remaining %d overdue %d, want %d %d", got.DaysRemaining, got.DaysOverdue, tt.remaining, tt.overdue)
			}
		})
	}

	if !RemainingUnits(Schedule{Type: ScheduleNone, StartDate: NewDay(2024, 1, 1)}, NewDay(2024, 1, 1)).Indefinite {
		t.Error("expected a schedule without duration to be indefinite")
	}
}

func TestTotalUnits(t *testing.T) {
	var tests = []struct {
		name     string
		schedule Schedule
		out      int
	}{
		{"daily", Schedule{Type: ScheduleDaily, DurationDays: 5}, 5},
		{"weekly", Schedule{Type: ScheduleWeekly, DurationDays: 21}, 3},
		{"every third day", Schedule{Type: ScheduleEveryNthDays, Interval: 3, DurationDays: 10}, 4},
		{"indefinite", Schedule{Type: ScheduleNone}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalUnits(tt.schedule); got != tt.out {
				t.Errorf("got %d, want %d", got, tt.out)
			}
		})
	}
}
