package tapas

import (
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evaluate derives the status of a Tapas on the logical day today
func Evaluate(t *Tapas, today time.Time) Status {
	if t.Status.IsTerminal() {
		return t.Status
	}

	schedule := t.Schedule()
	if schedule.Type == date.ScheduleNone {
		return StatusActive
	}

	total := date.TotalUnits(schedule)
	if total == 0 || t.CheckedUnitsCount() < total {
		return StatusActive
	}

	if t.CrystallizationTime > 0 {
		settled := date.AddDays(date.EndDate(schedule), 1+t.CrystallizationTime)
		if date.StartOfDayUTC(today).Before(settled) {
			return StatusCrystallization
		}
	}

	return StatusSuccessful
}

// Refresh stores the evaluated status, reporting whether it changed
func (t *Tapas) Refresh(today time.Time) bool {
	status := Evaluate(t, today)
	if status == t.Status {
		return false
	}

	t.Status = status
	if status.IsTerminal() && t.FinishedAt.IsZero() {
		t.FinishedAt = today
	}

	return true
}

// Fail gives up a running Tapas. With repeat a fresh Tapas with the same definition starting
// today is returned.
func (t *Tapas) Fail(cause string, repeat bool, today time.Time) (*Tapas, error) {
	if t.Status != StatusActive && t.Status != StatusCrystallization {
		return nil, ErrNotActive
	}

	t.Status = StatusFailed
	t.FailureCause = cause
	t.FinishedAt = today

	if !repeat {
		return nil, nil
	}

	repeated := t.Clone()
	repeated.ID = primitive.NilObjectID
	repeated.StartDate = date.StartOfDayUTC(today)
	repeated.CheckedDays = []time.Time{}
	repeated.RecuperatedDays = []time.Time{}
	repeated.AdvancedDays = []time.Time{}
	repeated.Results = []Result{}
	repeated.Status = StatusActive
	repeated.FailureCause = ""
	repeated.FinishedAt = time.Time{}
	repeated.Shared = false
	repeated.SharedAt = time.Time{}
	repeated.Repetition = t.Repetition + 1

	repeatedFromID := t.ID
	repeated.RepeatedFromID = &repeatedFromID

	return repeated, nil
}

// Finish ends an active Tapas without schedule
func (t *Tapas) Finish(today time.Time) error {
	if t.ScheduleType != date.ScheduleNone {
		return ErrNotFinishable
	}

	if t.Status != StatusActive {
		return ErrNotActive
	}

	t.Status = StatusFinished
	t.FinishedAt = today

	return nil
}
