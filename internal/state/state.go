// Package state holds the in-memory habit, task and entry collections.
//
// State is changed only through Reduce. The reducer never mutates the slices
// of the State it is given, so a State handed out as a snapshot stays valid
// after later dispatches.
package state

import (
	"github.com/julianstephens/habitflow/internal/models"
)

// Status tracks the load lifecycle of a collection
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusEmpty         Status = "empty"
	StatusError         Status = "error"
)

// Statuses holds one Status per collection
type Statuses struct {
	Habits  Status
	Tasks   Status
	Entries Status
}

func allStatuses(s Status) Statuses {
	return Statuses{Habits: s, Tasks: s, Entries: s}
}

// State is the application's view of the signed-in user's data. Collections
// are ordered newest first.
type State struct {
	Habits  []models.Habit
	Tasks   []models.Task
	Entries []models.HabitEntry
	Status  Statuses
	// LastError is the most recent load failure, cleared by the next successful load
	LastError error
}

// Initial returns the state before any load
func Initial() State {
	return State{Status: allStatuses(StatusUninitialized)}
}

// Loading reports whether any collection is being fetched
func (s State) Loading() bool {
	return s.Status.Habits == StatusLoading || s.Status.Tasks == StatusLoading || s.Status.Entries == StatusLoading
}

// Habit looks up a habit by id
func (s State) Habit(id string) (models.Habit, bool) {
	for _, h := range s.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}

// Task looks up a task by id
func (s State) Task(id string) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// EntriesFor returns the entries belonging to a habit
func (s State) EntriesFor(habitID string) []models.HabitEntry {
	var out []models.HabitEntry
	for _, e := range s.Entries {
		if e.HabitID == habitID {
			out = append(out, e)
		}
	}
	return out
}
