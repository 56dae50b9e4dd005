package tapas

import (
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"github.com/tapas-app/tapas-backend/pkg/ledger"
)

// CheckinCounts are the check-ins within rolling windows ending today
type CheckinCounts struct {
	Last7Days   int `json:"last7Days"`
	Last30Days  int `json:"last30Days"`
	Last365Days int `json:"last365Days"`
}

func (c *CheckinCounts) add(other CheckinCounts) {
	c.Last7Days += other.Last7Days
	c.Last30Days += other.Last30Days
	c.Last365Days += other.Last365Days
}

// TapasStatistics are the statistics of a single Tapas
type TapasStatistics struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Status            Status        `json:"status"`
	Checkins          CheckinCounts `json:"checkins"`
	CheckedUnitsCount int           `json:"checkedUnitsCount"`
	TotalUnits        int           `json:"totalUnits"`
	CompletionRate    float64       `json:"completionRate"`
	IsTodaySatisfied  bool          `json:"isTodaySatisfied"`
}

// Statistics aggregate all Tapas of a user
type Statistics struct {
	TapasCount            int               `json:"tapasCount"`
	ByStatus              map[Status]int    `json:"byStatus"`
	Checkins              CheckinCounts     `json:"checkins"`
	CurrentUnitsCompleted int               `json:"currentUnitsCompleted"`
	CurrentUnitsOpen      int               `json:"currentUnitsOpen"`
	Tapas                 []TapasStatistics `json:"tapas"`
}

func countCheckins(set ledger.Set, today time.Time) CheckinCounts {
	return CheckinCounts{
		Last7Days:   ledger.CountSince(set, date.AddDays(today, -6)),
		Last30Days:  ledger.CountSince(set, date.AddDays(today, -29)),
		Last365Days: ledger.CountSince(set, date.AddDays(today, -364)),
	}
}

// ComputeStatistics aggregates the given Tapas on the logical day today. Deleted Tapas are skipped.
func ComputeStatistics(list []Tapas, today time.Time) Statistics {
	today = date.StartOfDayUTC(today)
	statistics := Statistics{
		ByStatus: map[Status]int{},
		Tapas:    []TapasStatistics{},
	}

	for index := range list {
		t := &list[index]
		if t.Deleted {
			continue
		}

		status := Evaluate(t, today)
		schedule := t.Schedule()
		checked := ledger.FromTimes(t.CheckedDays)

		entry := TapasStatistics{
			ID:                t.ID.Hex(),
			Name:              t.Name,
			Status:            status,
			Checkins:          countCheckins(checked, today),
			CheckedUnitsCount: len(checked),
			TotalUnits:        date.TotalUnits(schedule),
			IsTodaySatisfied:  checked.Contains(date.BucketDate(today, schedule)),
		}

		if entry.TotalUnits > 0 {
			entry.CompletionRate = float64(entry.CheckedUnitsCount) / float64(entry.TotalUnits)
			if entry.CompletionRate > 1 {
				entry.CompletionRate = 1
			}
		}

		statistics.TapasCount++
		statistics.ByStatus[status]++
		statistics.Checkins.add(entry.Checkins)

		if status == StatusActive {
			if entry.IsTodaySatisfied {
				statistics.CurrentUnitsCompleted++
			} else {
				statistics.CurrentUnitsOpen++
			}
		}

		statistics.Tapas = append(statistics.Tapas, entry)
	}

	return statistics
}
