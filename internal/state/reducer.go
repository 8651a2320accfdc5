package state

import (
	"github.com/julianstephens/habitflow/internal/models"
)

// Action is a state transition understood by Reduce
type Action interface {
	action()
}

// ReplaceHabits swaps the habit collection wholesale
type ReplaceHabits struct{ Habits []models.Habit }

// ReplaceTasks swaps the task collection wholesale
type ReplaceTasks struct{ Tasks []models.Task }

// ReplaceEntries swaps the entry collection wholesale
type ReplaceEntries struct{ Entries []models.HabitEntry }

// ReplaceAll swaps all three collections in one transition
type ReplaceAll struct {
	Habits  []models.Habit
	Tasks   []models.Task
	Entries []models.HabitEntry
}

// BeginLoading marks every collection as loading, keeping current data
type BeginLoading struct{}

// LoadFailed marks every collection as failed, keeping last-known-good data
type LoadFailed struct{ Err error }

// Clear empties every collection, as on sign-out
type Clear struct{}

// PutHabit inserts a habit at the front or replaces the one with the same id in place
type PutHabit struct{ Habit models.Habit }

// RemoveHabit removes a habit and every entry that references it
type RemoveHabit struct{ ID string }

// PutTask inserts a task at the front or replaces the one with the same id in place
type PutTask struct{ Task models.Task }

// RemoveTask removes a task and its subtasks
type RemoveTask struct{ ID string }

// PutEntry inserts an entry at the front or replaces the one with the same id in place
type PutEntry struct{ Entry models.HabitEntry }

func (ReplaceHabits) action()  {}
func (ReplaceTasks) action()   {}
func (ReplaceEntries) action() {}
func (ReplaceAll) action()     {}
func (BeginLoading) action()   {}
func (LoadFailed) action()     {}
func (Clear) action()          {}
func (PutHabit) action()       {}
func (RemoveHabit) action()    {}
func (PutTask) action()        {}
func (RemoveTask) action()     {}
func (PutEntry) action()       {}

// Reduce returns the state that results from applying a to s. Unknown actions
// return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ReplaceHabits:
		s.Habits = clone(a.Habits)
		s.Status.Habits = loadedStatus(len(s.Habits))
		s.LastError = nil
	case ReplaceTasks:
		s.Tasks = cloneTasks(a.Tasks)
		s.Status.Tasks = loadedStatus(len(s.Tasks))
		s.LastError = nil
	case ReplaceEntries:
		s.Entries = clone(a.Entries)
		s.Status.Entries = loadedStatus(len(s.Entries))
		s.LastError = nil
	case ReplaceAll:
		s.Habits = clone(a.Habits)
		s.Tasks = cloneTasks(a.Tasks)
		s.Entries = clone(a.Entries)
		s.Status = Statuses{
			Habits:  loadedStatus(len(s.Habits)),
			Tasks:   loadedStatus(len(s.Tasks)),
			Entries: loadedStatus(len(s.Entries)),
		}
		s.LastError = nil
	case BeginLoading:
		s.Status = allStatuses(StatusLoading)
	case LoadFailed:
		s.Status = allStatuses(StatusError)
		s.LastError = a.Err
	case Clear:
		s = State{Status: allStatuses(StatusEmpty)}
	case PutHabit:
		s.Habits = put(s.Habits, a.Habit, func(h models.Habit) string { return h.ID })
		s.Status.Habits = StatusReady
	case RemoveHabit:
		s.Habits = remove(s.Habits, func(h models.Habit) bool { return h.ID == a.ID })
		s.Entries = remove(s.Entries, func(e models.HabitEntry) bool { return e.HabitID == a.ID })
		s.Status.Habits = loadedStatus(len(s.Habits))
		s.Status.Entries = loadedStatus(len(s.Entries))
	case PutTask:
		t := a.Task
		t.Subtasks = clone(t.Subtasks)
		s.Tasks = put(s.Tasks, t, func(t models.Task) string { return t.ID })
		s.Status.Tasks = StatusReady
	case RemoveTask:
		s.Tasks = remove(s.Tasks, func(t models.Task) bool { return t.ID == a.ID })
		s.Status.Tasks = loadedStatus(len(s.Tasks))
	case PutEntry:
		s.Entries = put(s.Entries, a.Entry, func(e models.HabitEntry) string { return e.ID })
		s.Status.Entries = StatusReady
	}
	return s
}

func loadedStatus(n int) Status {
	if n == 0 {
		return StatusEmpty
	}
	return StatusReady
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneTasks(in []models.Task) []models.Task {
	out := clone(in)
	for i := range out {
		out[i].Subtasks = clone(out[i].Subtasks)
	}
	return out
}

// put replaces the element with v's key in place, or prepends v. The input
// slice is never written to.
func put[T any](in []T, v T, key func(T) string) []T {
	k := key(v)
	for i := range in {
		if key(in[i]) == k {
			out := clone(in)
			out[i] = v
			return out
		}
	}
	out := make([]T, 0, len(in)+1)
	out = append(out, v)
	return append(out, in...)
}

func remove[T any](in []T, drop func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
