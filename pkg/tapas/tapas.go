package tapas

import (
	"sort"
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
	"github.com/tapas-app/tapas-backend/pkg/localized"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle state of a Tapas
type Status string

const (
	// StatusActive is a running Tapas
	StatusActive Status = "active"
	// StatusCrystallization is a completed Tapas in its settling period
	StatusCrystallization Status = "crystallization"
	// StatusSuccessful is a completed Tapas
	StatusSuccessful Status = "successful"
	// StatusFailed is a Tapas given up by the user
	StatusFailed Status = "failed"
	// StatusFinished is an ended Tapas without schedule
	StatusFinished Status = "finished"
)

// IsTerminal reports whether a status never changes again
func (s Status) IsTerminal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusFinished
}

// Result is a diary entry of a single day
type Result struct {
	Date    time.Time `json:"date" bson:"date"`
	Content string    `json:"content" bson:"content"`
}

// Tapas is the model for a recurring commitment
type Tapas struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`

	Name        string           `json:"name" bson:"name" validate:"required,max=200"`
	Description localized.Text   `json:"description" bson:"description"`
	Goals       []string         `json:"goals" bson:"goals" validate:"max=50,dive,max=500"`
	Parts       []localized.Text `json:"parts" bson:"parts" validate:"max=50"`
	Color       string           `json:"color" bson:"color" validate:"omitempty,hexcolor"`

	StartDate           time.Time         `json:"startDate" bson:"startDate" validate:"required"`
	Duration            int               `json:"duration" bson:"duration" validate:"min=0"`
	ScheduleType        date.ScheduleType `json:"scheduleType" bson:"scheduleType"`
	ScheduleInterval    int               `json:"scheduleInterval" bson:"scheduleInterval" validate:"min=0"`
	CrystallizationTime int               `json:"crystallizationTime" bson:"crystallizationTime" validate:"min=0"`
	AllowRecuperation   bool              `json:"allowRecuperation" bson:"allowRecuperation"`

	CheckedDays     []time.Time `json:"checkedDays" bson:"checkedDays"`
	RecuperatedDays []time.Time `json:"recuperatedDays" bson:"recuperatedDays"`
	AdvancedDays    []time.Time `json:"advancedDays" bson:"advancedDays"`
	Results         []Result    `json:"results" bson:"results"`

	Status         Status              `json:"status" bson:"status"`
	FailureCause   string              `json:"failureCause,omitempty" bson:"failureCause,omitempty"`
	RepeatedFromID *primitive.ObjectID `json:"repeatedFromId,omitempty" bson:"repeatedFromId,omitempty"`
	Repetition     int                 `json:"repetition" bson:"repetition"`
	FinishedAt     time.Time           `json:"finishedAt" bson:"finishedAt"`

	Shared   bool      `json:"shared" bson:"shared"`
	SharedAt time.Time `json:"sharedAt" bson:"sharedAt"`

	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	LastModifiedAt time.Time `json:"lastModifiedAt" bson:"lastModifiedAt"`
	Deleted        bool      `json:"deleted" bson:"deleted"`
}

// Schedule returns the schedule definition of the Tapas
func (t *Tapas) Schedule() date.Schedule {
	return date.Schedule{
		Type:         t.ScheduleType,
		Interval:     t.ScheduleInterval,
		StartDate:    t.StartDate,
		DurationDays: t.Duration,
	}
}

// Ledger returns the check-ins of the Tapas
func (t *Tapas) Ledger() ledger.Ledger {
	return ledger.NewLedger(t.CheckedDays, t.RecuperatedDays, t.AdvancedDays)
}

// SetLedger replaces the check-ins of the Tapas
func (t *Tapas) SetLedger(l ledger.Ledger) {
	t.CheckedDays = l.Checked.Times()
	t.RecuperatedDays = l.Recuperated.Times()
	t.AdvancedDays = l.Advanced.Times()
}

// CheckedUnitsCount is the number of distinct checked units
func (t *Tapas) CheckedUnitsCount() int {
	return len(ledger.FromTimes(t.CheckedDays))
}

// TotalUnits is the number of units the schedule spans, zero if it is indefinite
func (t *Tapas) TotalUnits() int {
	return date.TotalUnits(t.Schedule())
}

// FindResult returns the index of the result on the day of t
func (t *Tapas) FindResult(day time.Time) (int, bool) {
	day = date.StartOfDayUTC(day)
	for index, result := range t.Results {
		if date.StartOfDayUTC(result.Date).Equal(day) {
			return index, true
		}
	}

	return -1, false
}

// SetResult inserts or replaces the diary entry of a day
func (t *Tapas) SetResult(day time.Time, content string) {
	day = date.StartOfDayUTC(day)

	index, found := t.FindResult(day)
	if found {
		t.Results[index].Content = content
		return
	}

	t.Results = append(t.Results, Result{Date: day, Content: content})
	sort.Slice(t.Results, func(i, j int) bool {
		return t.Results[i].Date.Before(t.Results[j].Date)
	})
}

// Clone returns a deep copy
func (t *Tapas) Clone() *Tapas {
	clone := *t

	clone.Goals = append(make([]string, 0, len(t.Goals)), t.Goals...)
	clone.Parts = append(make([]localized.Text, 0, len(t.Parts)), t.Parts...)
	clone.CheckedDays = append(make([]time.Time, 0, len(t.CheckedDays)), t.CheckedDays...)
	clone.RecuperatedDays = append(make([]time.Time, 0, len(t.RecuperatedDays)), t.RecuperatedDays...)
	clone.AdvancedDays = append(make([]time.Time, 0, len(t.AdvancedDays)), t.AdvancedDays...)
	clone.Results = append(make([]Result, 0, len(t.Results)), t.Results...)

	if t.RepeatedFromID != nil {
		repeatedFromID := *t.RepeatedFromID
		clone.RepeatedFromID = &repeatedFromID
	}

	return &clone
}
