// Package storage defines the persistence collaborator used by the sync layer.
//
// Every data operation is scoped to the owning user id. A record owned by a
// different user behaves exactly like a record that does not exist.
package storage

import (
	"context"

	"github.com/julianstephens/habitflow/internal/models"
)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Habits, newest first
	ListHabits(ctx context.Context, userID string) ([]models.Habit, error)
	InsertHabit(ctx context.Context, userID string, h models.NewHabit) (models.Habit, error)
	UpdateHabit(ctx context.Context, userID, id string, p models.HabitPatch) (models.Habit, error)
	// DeleteHabit removes the habit and every entry that references it
	DeleteHabit(ctx context.Context, userID, id string) error

	// Tasks with their subtasks, newest first
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	InsertTask(ctx context.Context, userID string, t models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, userID, id string, p models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	SetSubtaskCompleted(ctx context.Context, userID, taskID, subtaskID string, completed bool) (models.Task, error)

	// Habit entries, most recent day first. At most one entry exists per
	// habit and day; a second insert fails with a *ConflictError.
	ListHabitEntries(ctx context.Context, userID string) ([]models.HabitEntry, error)
	InsertHabitEntry(ctx context.Context, userID string, e models.NewHabitEntry) (models.HabitEntry, error)
}

// SchemaChecker is implemented by providers with a versioned schema. Doctor
// uses it to report a database written by a newer release.
type SchemaChecker interface {
	CheckSchema(ctx context.Context) error
}
