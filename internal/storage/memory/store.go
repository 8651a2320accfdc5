// Package memory is a process-local storage.Provider. It enforces the same
// ownership and uniqueness rules as the SQL providers and backs the
// "memory:" endpoint and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

type owned[T any] struct {
	userID string
	seq    int
	value  T
}

type Store struct {
	mu      sync.RWMutex
	seq     int
	users   map[string]models.User
	habits  map[string]owned[models.Habit]
	tasks   map[string]owned[models.Task]
	entries map[string]owned[models.HabitEntry]

	// Now and NewID are replaceable in tests
	Now   func() time.Time
	NewID func() string
}

var _ storage.Provider = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:   make(map[string]models.User),
		habits:  make(map[string]owned[models.Habit]),
		tasks:   make(map[string]owned[models.Task]),
		entries: make(map[string]owned[models.HabitEntry]),
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

func (s *Store) Init(ctx context.Context) error { return ctx.Err() }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

func (s *Store) nextSeq() int {
	s.seq++
	return s.seq
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
}

// newestFirst returns the values owned by userID ordered by insertion, latest first
func newestFirst[T any](m map[string]owned[T], userID string) []T {
	var rows []owned[T]
	for _, o := range m {
		if o.userID == userID {
			rows = append(rows, o)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]T, 0, len(rows))
	for _, o := range rows {
		out = append(out, o.value)
	}
	return out
}

func copyTask(t models.Task) models.Task {
	t.Subtasks = append([]models.Subtask(nil), t.Subtasks...)
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	return t
}

// Users

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return models.User{}, &storage.ConflictError{Constraint: storage.ConstraintUserEmail}
		}
	}
	u := models.User{ID: s.NewID(), Email: email, PasswordHash: passwordHash, CreatedAt: s.now()}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, notFound("user", email)
}

// Habits

func (s *Store) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.habits, userID), nil
}

func (s *Store) InsertHabit(ctx context.Context, userID string, h models.NewHabit) (models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return models.Habit{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	habit := models.Habit{
		ID:          s.NewID(),
		Name:        h.Name,
		Description: h.Description,
		Frequency:   h.Frequency,
		TargetCount: h.TargetCount,
		Category:    h.Category,
		Color:       h.Color,
		IsActive:    h.IsActive,
		CreatedAt:   s.now(),
	}
	s.habits[habit.ID] = owned[models.Habit]{userID: userID, seq: s.nextSeq(), value: habit}
	return habit, nil
}

func (s *Store) UpdateHabit(ctx context.Context, userID, id string, p models.HabitPatch) (models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return models.Habit{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.habits[id]
	if !ok || o.userID != userID {
		return models.Habit{}, notFound("habit", id)
	}
	o.value = p.Apply(o.value)
	s.habits[id] = o
	return o.value, nil
}

func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.habits[id]
	if !ok || o.userID != userID {
		return notFound("habit", id)
	}
	delete(s.habits, id)
	for eid, e := range s.entries {
		if e.value.HabitID == id {
			delete(s.entries, eid)
		}
	}
	return nil
}

// Tasks

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := newestFirst(s.tasks, userID)
	for i := range tasks {
		tasks[i] = copyTask(tasks[i])
	}
	return tasks, nil
}

func (s *Store) InsertTask(ctx context.Context, userID string, t models.NewTask) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task := models.Task{
		ID:          s.NewID(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   s.now(),
		Subtasks:    make([]models.Subtask, 0, len(t.Subtasks)),
	}
	for _, title := range t.Subtasks {
		task.Subtasks = append(task.Subtasks, models.Subtask{ID: s.NewID(), Title: title})
	}
	s.tasks[task.ID] = owned[models.Task]{userID: userID, seq: s.nextSeq(), value: task}
	return copyTask(task), nil
}

func (s *Store) UpdateTask(ctx context.Context, userID, id string, p models.TaskPatch) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.tasks[id]
	if !ok || o.userID != userID {
		return models.Task{}, notFound("task", id)
	}
	o.value = p.Apply(copyTask(o.value))
	s.tasks[id] = o
	return copyTask(o.value), nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.tasks[id]
	if !ok || o.userID != userID {
		return notFound("task", id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) SetSubtaskCompleted(ctx context.Context, userID, taskID, subtaskID string, completed bool) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.tasks[taskID]
	if !ok || o.userID != userID {
		return models.Task{}, notFound("task", taskID)
	}
	task := copyTask(o.value)
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].Completed = completed
			o.value = task
			s.tasks[taskID] = o
			return copyTask(task), nil
		}
	}
	return models.Task{}, notFound("subtask", subtaskID)
}

// Habit entries

func (s *Store) ListHabitEntries(ctx context.Context, userID string) ([]models.HabitEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := newestFirst(s.entries, userID)
	// most recent day first; insertion order breaks ties
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Day > entries[j].Day })
	return entries, nil
}

func (s *Store) InsertHabitEntry(ctx context.Context, userID string, e models.NewHabitEntry) (models.HabitEntry, error) {
	if err := ctx.Err(); err != nil {
		return models.HabitEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[e.HabitID]
	if !ok || h.userID != userID {
		return models.HabitEntry{}, notFound("habit", e.HabitID)
	}
	for _, o := range s.entries {
		if o.value.HabitID == e.HabitID && o.value.Day == e.Day {
			return models.HabitEntry{}, &storage.ConflictError{Constraint: storage.ConstraintEntryPerDay}
		}
	}

	entry := models.HabitEntry{
		ID:      s.NewID(),
		HabitID: e.HabitID,
		Day:     e.Day,
		Count:   e.Count,
		Notes:   e.Notes,
	}
	s.entries[entry.ID] = owned[models.HabitEntry]{userID: userID, seq: s.nextSeq(), value: entry}
	return entry, nil
}
