package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/validation"
)

// ErrMalformedRecord is returned when a stored row cannot be mapped to a domain model
var ErrMalformedRecord = errors.New("malformed record")

// HabitRow is a habits row as read from a database
type HabitRow struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Frequency   string
	TargetCount int
	Category    string
	Color       string
	IsActive    bool
	CreatedAt   time.Time
}

// TaskRow is a tasks row as read from a database
type TaskRow struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     *time.Time
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// SubtaskRow is a subtasks row as read from a database
type SubtaskRow struct {
	ID        string
	TaskID    string
	Title     string
	Completed bool
	Position  int
}

// EntryRow is a habit_entries row as read from a database
type EntryRow struct {
	ID      string
	UserID  string
	HabitID string
	Day     string
	Count   int
	Notes   string
}

func malformed(kind, id string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrMalformedRecord, kind, id, err)
}

// MapHabit converts a row to a Habit, defaulting empty display fields and
// rejecting unknown enum values.
func MapHabit(r HabitRow) (models.Habit, error) {
	freq := models.Frequency(r.Frequency)
	if freq == "" {
		freq = models.Frequency(constants.DefaultHabitFrequency)
	}
	if !freq.Valid() {
		return models.Habit{}, malformed("habit", r.ID, fmt.Errorf("unknown frequency %q", r.Frequency))
	}
	color := r.Color
	if color == "" {
		color = constants.DefaultHabitColor
	}
	target := r.TargetCount
	if target == 0 {
		target = constants.DefaultTargetCount
	}

	h := models.Habit{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Frequency:   freq,
		TargetCount: target,
		Category:    r.Category,
		Color:       color,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if err := validation.ValidateHabit(h); err != nil {
		return models.Habit{}, malformed("habit", r.ID, err)
	}
	return h, nil
}

// MapTask converts a row and its subtask rows (in position order) to a Task
func MapTask(r TaskRow, subtasks []SubtaskRow) (models.Task, error) {
	prio := models.Priority(r.Priority)
	if prio == "" {
		prio = models.Priority(constants.DefaultTaskPriority)
	}
	if !prio.Valid() {
		return models.Task{}, malformed("task", r.ID, fmt.Errorf("unknown priority %q", r.Priority))
	}

	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    prio,
		Category:    r.Category,
		DueDate:     utcPtr(r.DueDate),
		Completed:   r.Completed,
		CompletedAt: utcPtr(r.CompletedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		Subtasks:    make([]models.Subtask, 0, len(subtasks)),
	}
	for _, s := range subtasks {
		t.Subtasks = append(t.Subtasks, models.Subtask{ID: s.ID, Title: s.Title, Completed: s.Completed})
	}
	if err := validation.ValidateTask(t); err != nil {
		return models.Task{}, malformed("task", r.ID, err)
	}
	return t, nil
}

// MapEntry converts a row to a HabitEntry
func MapEntry(r EntryRow) (models.HabitEntry, error) {
	count := r.Count
	if count == 0 {
		count = constants.DefaultEntryCount
	}
	e := models.HabitEntry{
		ID:      r.ID,
		HabitID: r.HabitID,
		Day:     r.Day,
		Count:   count,
		Notes:   r.Notes,
	}
	if err := validation.ValidateEntry(e); err != nil {
		return models.HabitEntry{}, malformed("habit entry", r.ID, err)
	}
	return e, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
