package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalize_MixedFormats(t *testing.T) {
	day := date.NewDay(2024, 3, 10)
	later := day.Add(15 * time.Hour)

	raw := []interface{}{
		day,
		&later,
		"2024-03-10",
		"2024-03-10T09:30:00Z",
		"2024-03-10T09:30:00.123+00:00",
		map[string]interface{}{"seconds": float64(day.Unix()), "nanoseconds": float64(0)},
		map[string]interface{}{"_seconds": day.Unix() + 60, "_nanoseconds": int64(5)},
		Timestamp{Seconds: day.Unix()},
		primitive.NewDateTimeFromTime(later),
		day.UnixMilli(),
		float64(day.UnixMilli()),
	}

	set, errs := Normalize(raw)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}

	if len(set) != 1 {
		t.Fatalf("expected a single day, got %v", set)
	}

	if !set[0].Equal(day) {
		t.Errorf("expected %s, got %s", day, set[0])
	}
}

func TestNormalize_SkipsUnparseable(t *testing.T) {
	var nilTime *time.Time

	raw := []interface{}{
		"yesterday",
		true,
		nilTime,
		map[string]interface{}{"nanoseconds": float64(1)},
		"2024-03-11",
	}

	set, errs := Normalize(raw)

	if len(set) != 1 || !set[0].Equal(date.NewDay(2024, 3, 11)) {
		t.Errorf("unexpected set %v", set)
	}

	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d", len(errs))
	}

	for _, err := range errs {
		if !errors.Is(err, ErrUnparseable) {
			t.Errorf("expected ErrUnparseable, got %v", err)
		}
	}
}

func TestNormalize_Sorted(t *testing.T) {
	set, _ := Normalize([]interface{}{"2024-01-05", "2024-01-01", "2024-01-03"})

	for i := 1; i < len(set); i++ {
		if !set[i-1].Before(set[i]) {
			t.Errorf("set is not strictly ascending: %v", set)
		}
	}
}
