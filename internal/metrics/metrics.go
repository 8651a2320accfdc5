// Package metrics derives habit and task statistics from in-memory records.
// Every function is total: missing or malformed data yields zero values,
// never an error or a panic.
package metrics

import (
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

// Calculator evaluates metrics against a clock and a timezone. The zero value
// uses time.Now and the local timezone.
type Calculator struct {
	Now      func() time.Time
	Location *time.Location
}

// New returns a Calculator on the system clock in the given location.
func New(loc *time.Location) Calculator {
	return Calculator{Now: time.Now, Location: loc}
}

func (c Calculator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Calculator) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Today returns the current calendar day in the calculator's timezone.
func (c Calculator) Today() string {
	return utils.DayOf(c.now(), c.loc())
}

// Streak returns the number of consecutive days, ending today, on which the
// habit has at least one entry. A missing entry for today yields 0; entries
// dated after today are ignored.
func (c Calculator) Streak(entries []models.HabitEntry, habitID string) int {
	days := make(map[string]struct{})
	for _, e := range entries {
		if e.HabitID == habitID {
			days[e.Day] = struct{}{}
		}
	}
	if len(days) == 0 {
		return 0
	}

	streak := 0
	day := c.Today()
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		prev, err := utils.AddDays(day, -1)
		if err != nil {
			return streak
		}
		day = prev
	}
}

// CompletionRate returns round(100 * n / windowDays) where n is the number of
// the habit's entries dated within the windowDays calendar days ending today.
// The rate is not prorated for habits younger than the window.
func (c Calculator) CompletionRate(entries []models.HabitEntry, habitID string, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}
	today := c.Today()
	start, err := utils.AddDays(today, -(windowDays - 1))
	if err != nil {
		return 0
	}

	n := 0
	for _, e := range entries {
		// YYYY-MM-DD compares chronologically as a string
		if e.HabitID == habitID && utils.ValidateDay(e.Day) && e.Day >= start && e.Day <= today {
			n++
		}
	}
	// round half up in integer arithmetic
	return (200*n + windowDays) / (2 * windowDays)
}

// CompletedToday reports whether the habit has an entry dated today.
func (c Calculator) CompletedToday(entries []models.HabitEntry, habitID string) bool {
	_, ok := c.EntryForDay(entries, habitID, c.Today())
	return ok
}

// EntryForDay returns the habit's entry for a calendar day, if any.
func (c Calculator) EntryForDay(entries []models.HabitEntry, habitID, day string) (models.HabitEntry, bool) {
	for _, e := range entries {
		if e.HabitID == habitID && e.Day == day {
			return e, true
		}
	}
	return models.HabitEntry{}, false
}

// CalculateStreak is Streak on the system clock in local time.
func CalculateStreak(entries []models.HabitEntry, habitID string) int {
	return Calculator{}.Streak(entries, habitID)
}

// GetHabitCompletionRate is CompletionRate on the system clock in local time.
// A windowDays of zero or less selects the default 30-day window.
func GetHabitCompletionRate(entries []models.HabitEntry, habitID string, windowDays int) int {
	if windowDays <= 0 {
		windowDays = constants.DefaultCompletionWindowDays
	}
	return Calculator{}.CompletionRate(entries, habitID, windowDays)
}

// IsHabitCompletedToday is CompletedToday on the system clock in local time.
func IsHabitCompletedToday(entries []models.HabitEntry, habitID string) bool {
	return Calculator{}.CompletedToday(entries, habitID)
}
