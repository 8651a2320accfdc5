package models

import "github.com/julianstephens/habitflow/internal/constants"

// WithDefaults fills the optional fields a create form may leave empty.
// IsActive is left as given.
func (h NewHabit) WithDefaults() NewHabit {
	if h.Frequency == "" {
		h.Frequency = Frequency(constants.DefaultHabitFrequency)
	}
	if h.TargetCount == 0 {
		h.TargetCount = constants.DefaultTargetCount
	}
	if h.Color == "" {
		h.Color = constants.DefaultHabitColor
	}
	return h
}

// WithDefaults fills the optional fields a create form may leave empty
func (t NewTask) WithDefaults() NewTask {
	if t.Priority == "" {
		t.Priority = Priority(constants.DefaultTaskPriority)
	}
	return t
}

// WithDefaults fills the optional fields a create form may leave empty
func (e NewHabitEntry) WithDefaults() NewHabitEntry {
	if e.Count == 0 {
		e.Count = constants.DefaultEntryCount
	}
	return e
}
