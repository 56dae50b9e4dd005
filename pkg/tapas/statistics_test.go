package tapas

import (
	"testing"
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
)

func TestComputeStatistics(t *testing.T) {
	today := date.NewDay(2024, 3, 1)

	list := []Tapas{
		{
			Name: "Daily", Status: StatusActive, ScheduleType: date.ScheduleDaily,
			StartDate: date.NewDay(2024, 1, 1), Duration: 100,
			CheckedDays: []time.Time{
				date.NewDay(2024, 3, 1),
				date.NewDay(2024, 2, 25),
				date.NewDay(2024, 2, 20),
				date.NewDay(2024, 1, 5),
			},
		},
		{
			Name: "Open", Status: StatusActive, ScheduleType: date.ScheduleDaily,
			StartDate: date.NewDay(2024, 2, 1), Duration: 100,
			CheckedDays: []time.Time{date.NewDay(2024, 2, 29)},
		},
		{
			Name: "Done", Status: StatusActive, ScheduleType: date.ScheduleDaily,
			StartDate: date.NewDay(2024, 1, 1), Duration: 2,
			CheckedDays: []time.Time{date.NewDay(2024, 1, 1), date.NewDay(2024, 1, 2)},
		},
		{
			Name: "Gone", Status: StatusActive, ScheduleType: date.ScheduleDaily, Deleted: true,
			StartDate: date.NewDay(2024, 1, 1), Duration: 2,
			CheckedDays: []time.Time{date.NewDay(2024, 3, 1)},
		},
	}

	statistics := ComputeStatistics(list, today.Add(9*time.Hour))

	if statistics.TapasCount != 3 {
		t.Errorf("expected 3 tapas, got %d", statistics.TapasCount)
	}

	if statistics.ByStatus[StatusActive] != 2 || statistics.ByStatus[StatusSuccessful] != 1 {
		t.Errorf("unexpected statuses %v", statistics.ByStatus)
	}

	want := CheckinCounts{Last7Days: 3, Last30Days: 4, Last365Days: 7}
	if statistics.Checkins != want {
		t.Errorf("got check-ins %+v, want %+v", statistics.Checkins, want)
	}

	if statistics.CurrentUnitsCompleted != 1 || statistics.CurrentUnitsOpen != 1 {
		t.Errorf("unexpected current units %d/%d", statistics.CurrentUnitsCompleted, statistics.CurrentUnitsOpen)
	}

	done := statistics.Tapas[2]
	if done.CompletionRate != 1 || done.CheckedUnitsCount != 2 || done.TotalUnits != 2 {
		t.Errorf("unexpected statistics %+v", done)
	}
}
