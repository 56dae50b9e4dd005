package tapas

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/tapas-app/tapas-backend/pkg/date"
)

func TestValidate(t *testing.T) {
	valid := func() Tapas {
		return Tapas{
			Name:         "Read",
			StartDate:    date.NewDay(2024, 1, 1),
			Duration:     7,
			ScheduleType: date.ScheduleDaily,
			Color:        "#ff8800",
		}
	}

	tests := []struct {
		name   string
		modify func(t *Tapas)
		field  string
	}{
		{name: "valid", modify: func(t *Tapas) {}},
		{name: "missing name", modify: func(t *Tapas) { t.Name = "" }, field: "Name"},
		{name: "unknown schedule", modify: func(t *Tapas) { t.ScheduleType = "monthly" }, field: "ScheduleType"},
		{name: "every nth without interval", modify: func(t *Tapas) { t.ScheduleType = date.ScheduleEveryNthDays }, field: "ScheduleInterval"},
		{name: "every nth with interval", modify: func(t *Tapas) {
			t.ScheduleType = date.ScheduleEveryNthDays
			t.ScheduleInterval = 3
		}},
		{name: "bad color", modify: func(t *Tapas) { t.Color = "orange" }, field: "Color"},
		{name: "negative duration", modify: func(t *Tapas) { t.Duration = -1 }, field: "Duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tapas := valid()
			tt.modify(&tapas)

			err := Validate(&tapas)
			if tt.field == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var validationErrors validator.ValidationErrors
			if !errors.As(err, &validationErrors) {
				t.Fatalf("expected validation errors, got %v", err)
			}

			if validationErrors[0].StructField() != tt.field {
				t.Errorf("expected error on %s, got %s", tt.field, validationErrors[0].StructField())
			}
		})
	}
}
