package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/cli/clitest"
	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/models"
)

func addTask(t *testing.T, ctx *cli.Context, cmd TaskAddCmd) models.Task {
	t.Helper()
	if cmd.Category == "" {
		cmd.Category = "admin"
	}
	if cmd.Priority == "" {
		cmd.Priority = "medium"
	}
	require.NoError(t, cmd.Run(ctx))
	task, err := cli.ResolveTask(ctx.State(), cmd.Title)
	require.NoError(t, err)
	return task
}

func TestTaskAddWithSubtasksAndDueDate(t *testing.T) {
	ctx, out := clitest.SignedIn(t)

	task := addTask(t, ctx, TaskAddCmd{Title: "Taxes", Due: "2024-04-15", Subtask: []string{"Gather forms", "File"}})
	assert.Contains(t, out.String(), "Added task: Taxes")
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "Gather forms", task.Subtasks[0].Title)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2024-04-15", task.DueDate.UTC().Format("2006-01-02"))
}

func TestTaskAddRejectsBadDueDate(t *testing.T) {
	ctx, _ := clitest.SignedIn(t)

	err := (&TaskAddCmd{Title: "Taxes", Category: "admin", Priority: "medium", Due: "15/04/2024"}).Run(ctx)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, ctx.State().Tasks)
}

func TestTaskToggleRoundTrip(t *testing.T) {
	ctx, out := clitest.SignedIn(t)
	addTask(t, ctx, TaskAddCmd{Title: "Taxes"})

	require.NoError(t, (&TaskToggleCmd{Task: "Taxes"}).Run(ctx))
	assert.Contains(t, out.String(), "Completed task: Taxes")
	task, err := cli.ResolveTask(ctx.State(), "Taxes")
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(clitest.Now))

	require.NoError(t, (&TaskToggleCmd{Task: "Taxes"}).Run(ctx))
	assert.Contains(t, out.String(), "Reopened task: Taxes")
	task, err = cli.ResolveTask(ctx.State(), "Taxes")
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestTaskSubtask(t *testing.T) {
	ctx, out := clitest.SignedIn(t)
	addTask(t, ctx, TaskAddCmd{Title: "Taxes", Subtask: []string{"Gather forms", "File"}})

	require.NoError(t, (&TaskSubtaskCmd{Task: "Taxes", Subtask: 2}).Run(ctx))
	assert.Contains(t, out.String(), `Updated subtask "File" (1/2 done)`)

	require.NoError(t, (&TaskSubtaskCmd{Task: "Taxes", Subtask: 2, Undo: true}).Run(ctx))
	assert.Contains(t, out.String(), `Updated subtask "File" (0/2 done)`)

	assert.Error(t, (&TaskSubtaskCmd{Task: "Taxes", Subtask: 3}).Run(ctx))
}

func TestTaskEditClearsDueDate(t *testing.T) {
	ctx, _ := clitest.SignedIn(t)
	addTask(t, ctx, TaskAddCmd{Title: "Taxes", Due: "2024-04-15"})

	priority := "high"
	require.NoError(t, (&TaskEditCmd{Task: "Taxes", Priority: &priority, ClearDue: true}).Run(ctx))

	task, err := cli.ResolveTask(ctx.State(), "Taxes")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, "admin", task.Category)
}

func TestTaskListMarksOverdue(t *testing.T) {
	ctx, out := clitest.SignedIn(t)
	addTask(t, ctx, TaskAddCmd{Title: "Taxes", Due: "2024-03-01"})
	addTask(t, ctx, TaskAddCmd{Title: "Dentist", Due: "2024-04-01"})

	out.Reset()
	require.NoError(t, (&TaskListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Taxes - admin (medium priority, due 2024-03-01 OVERDUE)")
	assert.Contains(t, out.String(), "Dentist - admin (medium priority, due 2024-04-01)")
}

func TestTaskDelete(t *testing.T) {
	ctx, out := clitest.SignedIn(t)
	addTask(t, ctx, TaskAddCmd{Title: "Taxes"})

	require.NoError(t, (&TaskDeleteCmd{Task: "Taxes"}).Run(ctx))
	assert.Contains(t, out.String(), "Deleted task: Taxes")
	assert.Empty(t, ctx.State().Tasks)

	err := (&TaskDeleteCmd{Task: "Taxes"}).Run(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
