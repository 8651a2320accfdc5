// Package storagetest is a conformance suite every storage.Provider must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

// Factory returns a fresh, initialised provider. The suite closes it.
type Factory func(t *testing.T) storage.Provider

func ptr[T any](v T) *T { return &v }

func newHabit(name string) models.NewHabit {
	return models.NewHabit{Name: name, Category: "health", IsActive: true}.WithDefaults()
}

func newTask(title string, subtasks ...string) models.NewTask {
	return models.NewTask{Title: title, Category: "work", Subtasks: subtasks}.WithDefaults()
}

func signUp(t *testing.T, ctx context.Context, p storage.Provider, email string) models.User {
	t.Helper()
	u, err := p.CreateUser(ctx, email, "hash")
	require.NoError(t, err)
	return u
}

// Run executes the suite against providers built by f
func Run(t *testing.T, f Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, p storage.Provider)
	}{
		{"Users", testUsers},
		{"HabitLifecycle", testHabitLifecycle},
		{"HabitsNewestFirst", testHabitsNewestFirst},
		{"EntryUniquePerDay", testEntryUniquePerDay},
		{"DeleteHabitCascades", testDeleteHabitCascades},
		{"TaskLifecycle", testTaskLifecycle},
		{"TaskCompletionTogether", testTaskCompletionTogether},
		{"Subtasks", testSubtasks},
		{"OwnershipScoping", testOwnershipScoping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f(t)
			t.Cleanup(func() { p.Close() })
			require.NoError(t, p.Ping(context.Background()))
			tt.fn(t, p)
		})
	}
}

func testUsers(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	assert.NotEmpty(t, u.ID)

	got, err := p.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = p.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = p.CreateUser(ctx, "ada@example.com", "other")
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = p.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testHabitLifecycle(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")

	h, err := p.InsertHabit(ctx, u.ID, newHabit("Read"))
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.False(t, h.CreatedAt.IsZero())
	assert.Equal(t, models.FrequencyDaily, h.Frequency)
	assert.Equal(t, "emerald", h.Color)
	assert.Equal(t, 1, h.TargetCount)
	assert.True(t, h.IsActive)

	updated, err := p.UpdateHabit(ctx, u.ID, h.ID, models.HabitPatch{Name: ptr("Read more"), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, h.Category, updated.Category, "unpatched fields are kept")
	assert.True(t, h.CreatedAt.Equal(updated.CreatedAt))

	_, err = p.UpdateHabit(ctx, u.ID, "missing", models.HabitPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, p.DeleteHabit(ctx, u.ID, h.ID))
	assert.ErrorIs(t, p.DeleteHabit(ctx, u.ID, h.ID), storage.ErrNotFound)

	habits, err := p.ListHabits(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, habits)
}

func testHabitsNewestFirst(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")

	for _, name := range []string{"first", "second", "third"} {
		_, err := p.InsertHabit(ctx, u.ID, newHabit(name))
		require.NoError(t, err)
		// distinct creation times on coarse clocks
		time.Sleep(2 * time.Millisecond)
	}

	habits, err := p.ListHabits(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, habits, 3)
	assert.Equal(t, "third", habits[0].Name)
	assert.Equal(t, "first", habits[2].Name)
}

func testEntryUniquePerDay(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	h, err := p.InsertHabit(ctx, u.ID, newHabit("Read"))
	require.NoError(t, err)

	e, err := p.InsertHabitEntry(ctx, u.ID, models.NewHabitEntry{HabitID: h.ID, Day: "2024-03-15", Count: 1, Notes: "ch. 3"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", e.Day)
	assert.Equal(t, "ch. 3", e.Notes)

	_, err = p.InsertHabitEntry(ctx, u.ID, models.NewHabitEntry{HabitID: h.ID, Day: "2024-03-15", Count: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConflict)
	var conflict *storage.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, storage.ConstraintEntryPerDay, conflict.Constraint)

	_, err = p.InsertHabitEntry(ctx, u.ID, models.NewHabitEntry{HabitID: h.ID, Day: "2024-03-14", Count: 2})
	require.NoError(t, err)

	entries, err := p.ListHabitEntries(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-03-15", entries[0].Day, "most recent day first")
}

func testDeleteHabitCascades(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	h, err := p.InsertHabit(ctx, u.ID, newHabit("Read"))
	require.NoError(t, err)
	other, err := p.InsertHabit(ctx, u.ID, newHabit("Run"))
	require.NoError(t, err)

	for _, day := range []string{"2024-03-13", "2024-03-14", "2024-03-15"} {
		_, err := p.InsertHabitEntry(ctx, u.ID, models.NewHabitEntry{HabitID: h.ID, Day: day, Count: 1})
		require.NoError(t, err)
	}
	_, err = p.InsertHabitEntry(ctx, u.ID, models.NewHabitEntry{HabitID: other.ID, Day: "2024-03-15", Count: 1})
	require.NoError(t, err)

	require.NoError(t, p.DeleteHabit(ctx, u.ID, h.ID))

	entries, err := p.ListHabitEntries(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, other.ID, entries[0].HabitID)
}

func testTaskLifecycle(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	due := time.Date(2024, time.March, 20, 17, 0, 0, 0, time.UTC)

	nt := newTask("Write report", "outline", "draft")
	nt.DueDate = &due
	task, err := p.InsertTask(ctx, u.ID, nt)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, due.Equal(*task.DueDate))
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "outline", task.Subtasks[0].Title)
	assert.Equal(t, "draft", task.Subtasks[1].Title)

	updated, err := p.UpdateTask(ctx, u.ID, task.ID, models.TaskPatch{Priority: ptr(models.PriorityHigh), ClearDueDate: true})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Nil(t, updated.DueDate)
	assert.Len(t, updated.Subtasks, 2)

	tasks, err := p.ListTasks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Len(t, tasks[0].Subtasks, 2)

	require.NoError(t, p.DeleteTask(ctx, u.ID, task.ID))
	assert.ErrorIs(t, p.DeleteTask(ctx, u.ID, task.ID), storage.ErrNotFound)
}

func testTaskCompletionTogether(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	task, err := p.InsertTask(ctx, u.ID, newTask("Ship"))
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)

	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	done, err := p.UpdateTask(ctx, u.ID, task.ID, models.CompletionPatch(true, now))
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, now.Equal(*done.CompletedAt))

	reopened, err := p.UpdateTask(ctx, u.ID, task.ID, models.CompletionPatch(false, now))
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)
}

func testSubtasks(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	u := signUp(t, ctx, p, "ada@example.com")
	task, err := p.InsertTask(ctx, u.ID, newTask("Move", "pack", "ship"))
	require.NoError(t, err)

	got, err := p.SetSubtaskCompleted(ctx, u.ID, task.ID, task.Subtasks[1].ID, true)
	require.NoError(t, err)
	assert.False(t, got.Subtasks[0].Completed)
	assert.True(t, got.Subtasks[1].Completed)

	_, err = p.SetSubtaskCompleted(ctx, u.ID, task.ID, "missing", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testOwnershipScoping(t *testing.T, p storage.Provider) {
	ctx := context.Background()
	ada := signUp(t, ctx, p, "ada@example.com")
	bob := signUp(t, ctx, p, "bob@example.com")

	h, err := p.InsertHabit(ctx, ada.ID, newHabit("Read"))
	require.NoError(t, err)
	task, err := p.InsertTask(ctx, ada.ID, newTask("Ship", "step"))
	require.NoError(t, err)
	_, err = p.InsertHabitEntry(ctx, ada.ID, models.NewHabitEntry{HabitID: h.ID, Day: "2024-03-15", Count: 1})
	require.NoError(t, err)

	habits, err := p.ListHabits(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, habits)
	tasks, err := p.ListTasks(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	entries, err := p.ListHabitEntries(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = p.UpdateHabit(ctx, bob.ID, h.ID, models.HabitPatch{Name: ptr("mine")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, p.DeleteHabit(ctx, bob.ID, h.ID), storage.ErrNotFound)
	assert.ErrorIs(t, p.DeleteTask(ctx, bob.ID, task.ID), storage.ErrNotFound)
	_, err = p.SetSubtaskCompleted(ctx, bob.ID, task.ID, task.Subtasks[0].ID, true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.InsertHabitEntry(ctx, bob.ID, models.NewHabitEntry{HabitID: h.ID, Day: "2024-03-16", Count: 1})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	habits, err = p.ListHabits(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Read", habits[0].Name)
}
