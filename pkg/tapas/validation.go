package tapas

import (
	"github.com/go-playground/validator/v10"
	"github.com/tapas-app/tapas-backend/pkg/date"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(scheduleStructLevelValidation, Tapas{})
	return v
}

func scheduleStructLevelValidation(sl validator.StructLevel) {
	t := sl.Current().Interface().(Tapas)

	if !t.ScheduleType.IsValid() {
		sl.ReportError(t.ScheduleType, "ScheduleType", "ScheduleType", "oneof", "daily weekly everyNthDays noSchedule")
		return
	}

	if t.ScheduleType == date.ScheduleEveryNthDays && t.ScheduleInterval <= 0 {
		sl.ReportError(t.ScheduleInterval, "ScheduleInterval", "ScheduleInterval", "gt", "0")
	}
}

// Validate checks the definition of a Tapas
func Validate(t *Tapas) error {
	return validate.Struct(t)
}
