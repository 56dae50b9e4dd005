package tapas

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
	"github.com/tapas-app/tapas-backend/pkg/localized"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewView(t *testing.T) {
	tapas := Tapas{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		Name:        "Sit",
		Description: localized.Translations(map[string]string{"en": "Sit still", "de": "Still sitzen"}),
		Parts: []localized.Text{
			localized.Plain("Breathe"),
			localized.Translations(map[string]string{"fr": "Respirer"}),
		},
		Status:          StatusActive,
		ScheduleType:    date.ScheduleDaily,
		StartDate:       date.NewDay(2024, 1, 1),
		Duration:        5,
		CheckedDays:     days(1, 2, 3),
		RecuperatedDays: days(2),
		Results:         []Result{{Date: date.NewDay(2024, 1, 1), Content: "calm"}},
	}

	view := NewView(&tapas, date.NewDay(2024, 1, 4), "de", "en")

	if view.DisplayDescription != "Still sitzen" {
		t.Errorf("unexpected description %q", view.DisplayDescription)
	}

	if !reflect.DeepEqual(view.DisplayParts, []string{"Breathe", "Respirer"}) {
		t.Errorf("unexpected parts %v", view.DisplayParts)
	}

	if view.IsTodaySatisfied || !view.IsYesterdaySatisfied {
		t.Errorf("unexpected satisfaction today %v yesterday %v", view.IsTodaySatisfied, view.IsYesterdaySatisfied)
	}

	if view.TotalUnits != 5 || view.CheckedUnitsCount != 3 {
		t.Errorf("unexpected units %d/%d", view.CheckedUnitsCount, view.TotalUnits)
	}

	if view.DaysRemaining != 1 || view.DaysOverdue != 1 || !view.EndDate.Equal(date.NewDay(2024, 1, 5)) {
		t.Errorf("unexpected remaining %+v", view.Remaining)
	}

	wantRanges := []ledger.Range{
		{Timespan: date.Timespan{Start: date.NewDay(2024, 1, 1), End: date.NewDay(2024, 1, 1)}},
		{Timespan: date.Timespan{Start: date.NewDay(2024, 1, 2), End: date.NewDay(2024, 1, 2)}, Recuperated: true},
		{Timespan: date.Timespan{Start: date.NewDay(2024, 1, 3), End: date.NewDay(2024, 1, 3)}},
	}
	if !reflect.DeepEqual(view.Ranges, wantRanges) {
		t.Errorf("got ranges %v, want %v", view.Ranges, wantRanges)
	}

	public := NewPublicView(view)
	encoded, err := json.Marshal(public)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		t.Fatal(err)
	}

	for _, hidden := range []string{"results", "userId", "checkedDays"} {
		if _, ok := fields[hidden]; ok {
			t.Errorf("public view exposes %s", hidden)
		}
	}

	if fields["displayDescription"] != "Still sitzen" || fields["id"] != tapas.ID.Hex() {
		t.Errorf("unexpected public view %s", encoded)
	}
}

func TestNewView_Weekly(t *testing.T) {
	tapas := Tapas{
		Status:       StatusActive,
		ScheduleType: date.ScheduleWeekly,
		StartDate:    date.NewDay(2024, 1, 3),
		Duration:     21,
		CheckedDays:  days(3),
	}

	view := NewView(&tapas, date.NewDay(2024, 1, 8).Add(10*time.Hour), "", "")

	if !view.IsTodaySatisfied {
		t.Error("expected the current week to be satisfied")
	}

	want := date.Timespan{Start: date.NewDay(2024, 1, 3), End: date.NewDay(2024, 1, 9)}
	if !view.CurrentUnit.Start.Equal(want.Start) {
		t.Errorf("got current unit %v, want start %v", view.CurrentUnit, want.Start)
	}

	if view.TotalUnits != 3 {
		t.Errorf("expected 3 units, got %d", view.TotalUnits)
	}
}
