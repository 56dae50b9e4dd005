package date

import (
	"testing"
	"time"
)

func TestStartOfDayUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("timezone data not available")
	}

	var tests = []struct {
		in  time.Time
		out time.Time
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), NewDay(2024, 1, 1)},
		{time.Date(2024, 1, 1, 23, 59, 59, 999, time.UTC), NewDay(2024, 1, 1)},
		// 00:30 in Berlin is still the previous UTC day
		{time.Date(2024, 1, 2, 0, 30, 0, 0, berlin), NewDay(2024, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got := StartOfDayUTC(tt.in)
			if !got.Equal(tt.out) {
				t.Errorf("got %s, want %s", got, tt.out)
			}

			if again := StartOfDayUTC(got); !again.Equal(got) {
				t.Errorf("not idempotent: %s != %s", again, got)
			}
		})
	}
}

func TestStartOfWeekUTC(t *testing.T) {
	var tests = []struct {
		in  time.Time
		out time.Time
	}{
		// Monday
		{NewDay(2024, 1, 1), NewDay(2024, 1, 1)},
		// Friday
		{time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC), NewDay(2024, 1, 1)},
		// Sunday belongs to the Monday six days before
		{NewDay(2024, 1, 7), NewDay(2024, 1, 1)},
		{NewDay(2024, 1, 8), NewDay(2024, 1, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := StartOfWeekUTC(tt.in); !got.Equal(tt.out) {
				t.Errorf("got %s, want %s", got, tt.out)
			}
		})
	}
}

func TestParseDayTime(t *testing.T) {
	dayTime, err := ParseDayTime("04:30")
	if err != nil {
		t.Fatal(err)
	}

	if dayTime.Duration() != 4*time.Hour+30*time.Minute || dayTime.String() != "04:30" {
		t.Errorf("unexpected day time %s", dayTime)
	}

	empty, err := ParseDayTime("")
	if err != nil || empty.Duration() != 0 {
		t.Errorf("expected midnight for empty value, got %s, %v", empty, err)
	}

	_, err = ParseDayTime("25:99")
	if err == nil {
		t.Error("expected an error for an invalid day time")
	}
}

func TestToday(t *testing.T) {
	rollover := DayTime{Hour: 4}

	var tests = []struct {
		name string
		now  time.Time
		out  time.Time
	}{
		{"before rollover", time.Date(2024, 1, 2, 3, 59, 0, 0, time.UTC), NewDay(2024, 1, 1)},
		{"at rollover", time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC), NewDay(2024, 1, 2)},
		{"afternoon", time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), NewDay(2024, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Today(tt.now, time.UTC, rollover); !got.Equal(tt.out) {
				t.Errorf("got %s, want %s", got, tt.out)
			}
		})
	}
}

func TestToday_Location(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("timezone data not available")
	}

	// 20:00 UTC is already the next morning in Tokyo
	now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	if got := Today(now, tokyo, DayTime{}); !got.Equal(NewDay(2024, 1, 2)) {
		t.Errorf("got %s, want 2024-01-02", got)
	}
}
