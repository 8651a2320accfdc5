package validation

import (
	"fmt"
	"strings"

	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/utils"
)

func required(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.Newf(apperrors.KindValidation, op, "%s is required", field)
	}
	return nil
}

func positive(op, field string, value int) error {
	if value < 1 {
		return apperrors.Newf(apperrors.KindValidation, op, "%s must be at least 1, got %d", field, value)
	}
	return nil
}

// ValidateNewHabit checks a create request after defaults have been applied
func ValidateNewHabit(h models.NewHabit) error {
	const op = "add habit"
	if err := required(op, "name", h.Name); err != nil {
		return err
	}
	if err := required(op, "category", h.Category); err != nil {
		return err
	}
	if !h.Frequency.Valid() {
		return apperrors.Newf(apperrors.KindValidation, op, "invalid frequency %q", h.Frequency)
	}
	return positive(op, "target count", h.TargetCount)
}

// ValidateHabitPatch checks only the fields the patch sets
func ValidateHabitPatch(p models.HabitPatch) error {
	const op = "update habit"
	if p.Empty() {
		return apperrors.New(apperrors.KindValidation, op, "nothing to update")
	}
	if p.Name != nil {
		if err := required(op, "name", *p.Name); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := required(op, "category", *p.Category); err != nil {
			return err
		}
	}
	if p.Frequency != nil && !p.Frequency.Valid() {
		return apperrors.Newf(apperrors.KindValidation, op, "invalid frequency %q", *p.Frequency)
	}
	if p.TargetCount != nil {
		return positive(op, "target count", *p.TargetCount)
	}
	return nil
}

// ValidateHabit checks a complete habit record
func ValidateHabit(h models.Habit) error {
	const op = "habit"
	if err := required(op, "id", h.ID); err != nil {
		return err
	}
	if h.CreatedAt.IsZero() {
		return apperrors.Newf(apperrors.KindValidation, op, "habit %s has no creation time", h.ID)
	}
	return ValidateNewHabit(models.NewHabit{
		Name:        h.Name,
		Frequency:   h.Frequency,
		TargetCount: h.TargetCount,
		Category:    h.Category,
	})
}

// ValidateNewTask checks a create request after defaults have been applied
func ValidateNewTask(t models.NewTask) error {
	const op = "add task"
	if err := required(op, "title", t.Title); err != nil {
		return err
	}
	if err := required(op, "category", t.Category); err != nil {
		return err
	}
	if !t.Priority.Valid() {
		return apperrors.Newf(apperrors.KindValidation, op, "invalid priority %q", t.Priority)
	}
	if t.Completed != (t.CompletedAt != nil) {
		return apperrors.New(apperrors.KindValidation, op, "completedAt must be set exactly when completed is true")
	}
	for i, title := range t.Subtasks {
		if err := required(op, fmt.Sprintf("subtask %d title", i+1), title); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTaskPatch checks only the fields the patch sets
func ValidateTaskPatch(p models.TaskPatch) error {
	const op = "update task"
	if p.Empty() {
		return apperrors.New(apperrors.KindValidation, op, "nothing to update")
	}
	if p.Title != nil {
		if err := required(op, "title", *p.Title); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := required(op, "category", *p.Category); err != nil {
			return err
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperrors.Newf(apperrors.KindValidation, op, "invalid priority %q", *p.Priority)
	}
	if p.DueDate != nil && p.ClearDueDate {
		return apperrors.New(apperrors.KindValidation, op, "cannot set and clear due date together")
	}
	if p.CompletedAt != nil && p.ClearCompletedAt {
		return apperrors.New(apperrors.KindValidation, op, "cannot set and clear completedAt together")
	}
	// completed and completedAt must travel together
	if p.Completed != nil {
		if *p.Completed && p.CompletedAt == nil {
			return apperrors.New(apperrors.KindValidation, op, "completing a task requires completedAt")
		}
		if !*p.Completed && !p.ClearCompletedAt {
			return apperrors.New(apperrors.KindValidation, op, "reopening a task requires clearing completedAt")
		}
	} else if p.CompletedAt != nil || p.ClearCompletedAt {
		return apperrors.New(apperrors.KindValidation, op, "completedAt cannot change without completed")
	}
	return nil
}

// ValidateTask checks a complete task record
func ValidateTask(t models.Task) error {
	const op = "task"
	if err := required(op, "id", t.ID); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		return apperrors.Newf(apperrors.KindValidation, op, "task %s has no creation time", t.ID)
	}
	titles := make([]string, len(t.Subtasks))
	for i, s := range t.Subtasks {
		if err := required(op, "subtask id", s.ID); err != nil {
			return err
		}
		titles[i] = s.Title
	}
	return ValidateNewTask(models.NewTask{
		Title:       t.Title,
		Priority:    t.Priority,
		Category:    t.Category,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		Subtasks:    titles,
	})
}

// ValidateNewEntry checks a habit entry create request
func ValidateNewEntry(e models.NewHabitEntry) error {
	const op = "add habit entry"
	if err := required(op, "habit id", e.HabitID); err != nil {
		return err
	}
	if !utils.ValidateDay(e.Day) {
		return apperrors.Newf(apperrors.KindValidation, op, "invalid date %q (expected YYYY-MM-DD)", e.Day)
	}
	return positive(op, "count", e.Count)
}

// ValidateEntry checks a complete habit entry record
func ValidateEntry(e models.HabitEntry) error {
	if err := required("habit entry", "id", e.ID); err != nil {
		return err
	}
	return ValidateNewEntry(models.NewHabitEntry{HabitID: e.HabitID, Day: e.Day, Count: e.Count})
}
