package tapas

import (
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
)

// View is a Tapas together with everything derived from its schedule on a given day
type View struct {
	Tapas
	date.Remaining

	DisplayDescription   string         `json:"displayDescription"`
	DisplayParts         []string       `json:"displayParts"`
	IsTodaySatisfied     bool           `json:"isTodaySatisfied"`
	IsYesterdaySatisfied bool           `json:"isYesterdaySatisfied"`
	TotalUnits           int            `json:"totalUnits"`
	CheckedUnitsCount    int            `json:"checkedUnitsCount"`
	CurrentUnit          date.Timespan  `json:"currentUnit"`
	Ranges               []ledger.Range `json:"ranges"`
}

// NewView derives the View of a Tapas for the logical day today. Localized texts are resolved
// with the users language first and the UI locale second.
func NewView(t *Tapas, today time.Time, language string, uiLocale string) View {
	schedule := t.Schedule()
	yesterday := date.AddDays(today, -1)

	view := View{
		Tapas:                *t,
		Remaining:            date.RemainingUnits(schedule, today),
		DisplayDescription:   t.Description.Resolve(language, uiLocale),
		DisplayParts:         make([]string, 0, len(t.Parts)),
		IsTodaySatisfied:     date.IsUnitSatisfied(t.CheckedDays, date.BucketDate(today, schedule)),
		IsYesterdaySatisfied: date.IsUnitSatisfied(t.CheckedDays, date.BucketDate(yesterday, schedule)),
		TotalUnits:           date.TotalUnits(schedule),
		CheckedUnitsCount:    t.CheckedUnitsCount(),
		CurrentUnit:          date.UnitTimespan(today, schedule),
		Ranges:               ledger.GroupIntoRanges(t.Ledger(), schedule.Factor()),
	}

	for _, part := range t.Parts {
		view.DisplayParts = append(view.DisplayParts, part.Resolve(language, uiLocale))
	}

	return view
}

// PublicView is the read only projection of a shared Tapas
type PublicView struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	DisplayDescription string            `json:"displayDescription"`
	DisplayParts       []string          `json:"displayParts"`
	Goals              []string          `json:"goals"`
	Color              string            `json:"color"`
	StartDate          time.Time         `json:"startDate"`
	Duration           int               `json:"duration"`
	ScheduleType       date.ScheduleType `json:"scheduleType"`
	ScheduleInterval   int               `json:"scheduleInterval"`
	Status             Status            `json:"status"`
	Repetition         int               `json:"repetition"`
	SharedAt           time.Time         `json:"sharedAt"`
	TotalUnits         int               `json:"totalUnits"`
	CheckedUnitsCount  int               `json:"checkedUnitsCount"`
	Ranges             []ledger.Range    `json:"ranges"`
	date.Remaining
}

// NewPublicView projects a View without diary results and owner
func NewPublicView(view View) PublicView {
	goals := view.Goals
	if goals == nil {
		goals = []string{}
	}

	return PublicView{
		ID:                 view.ID.Hex(),
		Name:               view.Name,
		DisplayDescription: view.DisplayDescription,
		DisplayParts:       view.DisplayParts,
		Goals:              goals,
		Color:              view.Color,
		StartDate:          view.StartDate,
		Duration:           view.Duration,
		ScheduleType:       view.ScheduleType,
		ScheduleInterval:   view.ScheduleInterval,
		Status:             view.Status,
		Repetition:         view.Repetition,
		SharedAt:           view.SharedAt,
		TotalUnits:         view.TotalUnits,
		CheckedUnitsCount:  view.CheckedUnitsCount,
		Ranges:             view.Ranges,
		Remaining:          view.Remaining,
	}
}
