package datasync

import (
	"context"

	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/state"
	"github.com/julianstephens/habitflow/internal/utils"
	"github.com/julianstephens/habitflow/internal/validation"
)

// AddHabit creates a habit and prepends the stored record locally
func (s *Syncer) AddHabit(ctx context.Context, h models.NewHabit) (models.Habit, error) {
	const op = "add habit"

	h = h.WithDefaults()
	if err := validation.ValidateNewHabit(h); err != nil {
		return models.Habit{}, err
	}
	p, id, err := s.session(op)
	if err != nil {
		return models.Habit{}, err
	}
	release, err := s.begin(op, KeyNewHabit)
	if err != nil {
		return models.Habit{}, err
	}
	defer release()

	created, err := p.InsertHabit(ctx, id.UserID, h)
	if err != nil {
		return models.Habit{}, classify(op, err)
	}
	s.patch(id.UserID, state.PutHabit{Habit: created})
	logger.Debug("Habit created", "id", created.ID)
	return created, nil
}

// UpdateHabit sends only the fields set in patch and replaces the local record
func (s *Syncer) UpdateHabit(ctx context.Context, habitID string, patch models.HabitPatch) (models.Habit, error) {
	const op = "update habit"

	if err := validation.ValidateHabitPatch(patch); err != nil {
		return models.Habit{}, err
	}
	p, id, err := s.session(op)
	if err != nil {
		return models.Habit{}, err
	}
	release, err := s.begin(op, HabitKey(habitID))
	if err != nil {
		return models.Habit{}, err
	}
	defer release()

	updated, err := p.UpdateHabit(ctx, id.UserID, habitID, patch)
	if err != nil {
		return models.Habit{}, classify(op, err)
	}
	s.patch(id.UserID, state.PutHabit{Habit: updated})
	return updated, nil
}

// DeleteHabit deletes a habit. The backend removes its entries; the local
// entries are pruned once the delete is confirmed.
func (s *Syncer) DeleteHabit(ctx context.Context, habitID string) error {
	const op = "delete habit"

	p, id, err := s.session(op)
	if err != nil {
		return err
	}
	release, err := s.begin(op, HabitKey(habitID))
	if err != nil {
		return err
	}
	defer release()

	if err := p.DeleteHabit(ctx, id.UserID, habitID); err != nil {
		return classify(op, err)
	}
	s.patch(id.UserID, state.RemoveHabit{ID: habitID})
	logger.Debug("Habit deleted", "id", habitID)
	return nil
}

// AddTask creates a task with its subtasks
func (s *Syncer) AddTask(ctx context.Context, t models.NewTask) (models.Task, error) {
	const op = "add task"

	t = t.WithDefaults()
	if err := validation.ValidateNewTask(t); err != nil {
		return models.Task{}, err
	}
	p, id, err := s.session(op)
	if err != nil {
		return models.Task{}, err
	}
	release, err := s.begin(op, KeyNewTask)
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	created, err := p.InsertTask(ctx, id.UserID, t)
	if err != nil {
		return models.Task{}, classify(op, err)
	}
	s.patch(id.UserID, state.PutTask{Task: created})
	logger.Debug("Task created", "id", created.ID)
	return created, nil
}

// UpdateTask sends only the fields set in patch and replaces the local record
func (s *Syncer) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error) {
	const op = "update task"

	if err := validation.ValidateTaskPatch(patch); err != nil {
		return models.Task{}, err
	}
	return s.updateTask(ctx, op, taskID, patch)
}

func (s *Syncer) updateTask(ctx context.Context, op, taskID string, patch models.TaskPatch) (models.Task, error) {
	p, id, err := s.session(op)
	if err != nil {
		return models.Task{}, err
	}
	release, err := s.begin(op, TaskKey(taskID))
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	updated, err := p.UpdateTask(ctx, id.UserID, taskID, patch)
	if err != nil {
		return models.Task{}, classify(op, err)
	}
	s.patch(id.UserID, state.PutTask{Task: updated})
	return updated, nil
}

// ToggleTask flips completion using the locally known state. Completed and
// completedAt change together in one update.
func (s *Syncer) ToggleTask(ctx context.Context, taskID string) (models.Task, error) {
	const op = "toggle task"

	if _, _, err := s.session(op); err != nil {
		return models.Task{}, err
	}
	current, ok := s.store.Snapshot().Task(taskID)
	if !ok {
		return models.Task{}, notFound(op, "task", taskID)
	}
	return s.updateTask(ctx, op, taskID, models.CompletionPatch(!current.Completed, s.now()))
}

// DeleteTask deletes a task and its subtasks
func (s *Syncer) DeleteTask(ctx context.Context, taskID string) error {
	const op = "delete task"

	p, id, err := s.session(op)
	if err != nil {
		return err
	}
	release, err := s.begin(op, TaskKey(taskID))
	if err != nil {
		return err
	}
	defer release()

	if err := p.DeleteTask(ctx, id.UserID, taskID); err != nil {
		return classify(op, err)
	}
	s.patch(id.UserID, state.RemoveTask{ID: taskID})
	logger.Debug("Task deleted", "id", taskID)
	return nil
}

// SetSubtaskCompleted marks one subtask and replaces its task locally
func (s *Syncer) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (models.Task, error) {
	const op = "update subtask"

	p, id, err := s.session(op)
	if err != nil {
		return models.Task{}, err
	}
	release, err := s.begin(op, TaskKey(taskID))
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	updated, err := p.SetSubtaskCompleted(ctx, id.UserID, taskID, subtaskID, completed)
	if err != nil {
		return models.Task{}, classify(op, err)
	}
	s.patch(id.UserID, state.PutTask{Task: updated})
	return updated, nil
}

// AddHabitEntry records a habit as done on e.Day, today when empty. A second
// entry for the same habit and day fails with KindDuplicateEntry.
func (s *Syncer) AddHabitEntry(ctx context.Context, e models.NewHabitEntry) (models.HabitEntry, error) {
	const op = "add habit entry"

	e = e.WithDefaults()
	today := utils.DayOf(s.now(), s.loc)
	if e.Day == "" {
		e.Day = today
	}
	if err := validation.ValidateNewEntry(e); err != nil {
		return models.HabitEntry{}, err
	}
	p, id, err := s.session(op)
	if err != nil {
		return models.HabitEntry{}, err
	}
	release, err := s.begin(op, EntryKey(e.HabitID, e.Day))
	if err != nil {
		return models.HabitEntry{}, err
	}
	defer release()

	created, err := p.InsertHabitEntry(ctx, id.UserID, e)
	if err != nil {
		return models.HabitEntry{}, classifyEntry(op, e.Day, today, err)
	}
	s.patch(id.UserID, state.PutEntry{Entry: created})
	logger.Debug("Habit entry recorded", "habit", e.HabitID, "day", e.Day)
	return created, nil
}
