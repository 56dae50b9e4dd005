package ledger

import (
	"sort"
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
)

// Set is a sorted, deduplicated set of UTC midnight days. All operations return new sets.
type Set []time.Time

// Tag annotates a check-in
type Tag int

const (
	// TagNone is a regular check-in
	TagNone Tag = iota
	// TagRecuperated marks a unit made up after it was missed
	TagRecuperated
	// TagAdvanced marks a unit completed ahead of schedule
	TagAdvanced
)

// FromTimes builds a Set from already parsed times
func FromTimes(times []time.Time) Set {
	set := Set{}
	for _, t := range times {
		set = Insert(set, t)
	}

	return set
}

func (s Set) search(day time.Time) int {
	return sort.Search(len(s), func(i int) bool {
		return date.TimeAfterOrEquals(s[i], day)
	})
}

// Contains checks if the day of t is in the set
func (s Set) Contains(t time.Time) bool {
	day := date.StartOfDayUTC(t)
	index := s.search(day)
	return index < len(s) && s[index].Equal(day)
}

// Times returns the entries as a plain slice
func (s Set) Times() []time.Time {
	times := make([]time.Time, len(s))
	copy(times, s)
	return times
}

// Insert returns a new set with the day of t added, a no-op if it is already present
func Insert(s Set, t time.Time) Set {
	day := date.StartOfDayUTC(t)
	index := s.search(day)

	result := make(Set, 0, len(s)+1)
	result = append(result, s[:index]...)
	if index < len(s) && s[index].Equal(day) {
		return append(result, s[index:]...)
	}

	result = append(result, day)
	return append(result, s[index:]...)
}

// Remove returns a new set without the day of t
func Remove(s Set, t time.Time) Set {
	day := date.StartOfDayUTC(t)

	result := make(Set, 0, len(s))
	for _, entry := range s {
		if entry.Equal(day) {
			continue
		}
		result = append(result, entry)
	}

	return result
}

// CountSince counts the entries on or after from
func CountSince(s Set, from time.Time) int {
	count := 0
	for _, entry := range s {
		if date.TimeAfterOrEquals(entry, from) {
			count++
		}
	}

	return count
}

// LastEntry returns the greatest entry by raw timestamp, without normalizing to days first
func LastEntry(entries []time.Time) (time.Time, bool) {
	var last time.Time
	found := false

	for _, entry := range entries {
		if !found || entry.After(last) {
			last = entry
			found = true
		}
	}

	return last, found
}

// Ledger holds the check-ins of one commitment. Recuperated and Advanced are subsets of Checked.
type Ledger struct {
	Checked     Set
	Recuperated Set
	Advanced    Set
}

// NewLedger builds a Ledger, tags without a matching checked day are dropped
func NewLedger(checked []time.Time, recuperated []time.Time, advanced []time.Time) Ledger {
	l := Ledger{Checked: FromTimes(checked), Recuperated: Set{}, Advanced: Set{}}

	for _, t := range recuperated {
		if l.Checked.Contains(t) {
			l.Recuperated = Insert(l.Recuperated, t)
		}
	}

	for _, t := range advanced {
		if l.Checked.Contains(t) {
			l.Advanced = Insert(l.Advanced, t)
		}
	}

	return l
}

// Mark returns a new Ledger with the day of t checked and tagged
func (l Ledger) Mark(t time.Time, tag Tag) Ledger {
	result := Ledger{
		Checked:     Insert(l.Checked, t),
		Recuperated: l.Recuperated,
		Advanced:    l.Advanced,
	}

	switch tag {
	case TagRecuperated:
		result.Recuperated = Insert(l.Recuperated, t)
	case TagAdvanced:
		result.Advanced = Insert(l.Advanced, t)
	}

	return result
}

// Clear returns a new Ledger without the day of t in any set
func (l Ledger) Clear(t time.Time) Ledger {
	return Ledger{
		Checked:     Remove(l.Checked, t),
		Recuperated: Remove(l.Recuperated, t),
		Advanced:    Remove(l.Advanced, t),
	}
}

// ClearLast removes the most recent check-in, reporting false if there was none
func (l Ledger) ClearLast() (Ledger, time.Time, bool) {
	last, ok := LastEntry(l.Checked)
	if !ok {
		return l, time.Time{}, false
	}

	return l.Clear(last), last, true
}

// TagOf returns the tag of a checked day
func (l Ledger) TagOf(t time.Time) Tag {
	if l.Recuperated.Contains(t) {
		return TagRecuperated
	}

	if l.Advanced.Contains(t) {
		return TagAdvanced
	}

	return TagNone
}

// Contains checks if the day of t is checked
func (l Ledger) Contains(t time.Time) bool {
	return l.Checked.Contains(t)
}
