package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/cli"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/models"
)

type TaskCmd struct {
	Add     TaskAddCmd     `cmd:"" help:"Add a new task."`
	List    TaskListCmd    `cmd:"" help:"List tasks."`
	Edit    TaskEditCmd    `cmd:"" help:"Edit an existing task."`
	Toggle  TaskToggleCmd  `cmd:"" help:"Toggle task completion."`
	Subtask TaskSubtaskCmd `cmd:"" help:"Mark a subtask done or not done."`
	Delete  TaskDeleteCmd  `cmd:"" help:"Delete a task."`
}

type TaskAddCmd struct {
	Title       string   `arg:"" help:"Task title."`
	Category    string   `short:"c" help:"Category." required:""`
	Description string   `short:"d" help:"Description."`
	Priority    string   `short:"p" help:"Priority (low|medium|high)." default:"medium" enum:"low,medium,high"`
	Due         string   `help:"Due date (YYYY-MM-DD)."`
	Subtask     []string `short:"s" help:"Subtask title (repeatable)."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	t := models.NewTask{
		Title:       c.Title,
		Description: c.Description,
		Priority:    models.Priority(c.Priority),
		Category:    c.Category,
		Subtasks:    c.Subtask,
	}
	if c.Due != "" {
		due, err := cli.ParseDueDate(c.Due, ctx.Location())
		if err != nil {
			return err
		}
		t.DueDate = due
	}

	task, err := ctx.Sync.AddTask(ctx.Ctx, t)
	if err != nil {
		return err
	}
	ctx.Printf("Added task: %s (ID: %s)\n", task.Title, cli.ShortID(task.ID))
	return nil
}

type TaskListCmd struct {
	Pending  bool   `help:"Show only incomplete tasks."`
	Category string `help:"Show only tasks in this category."`
	ShowIDs  bool   `help:"Show task IDs." name:"show-ids"`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	tasks := ctx.State().Tasks
	if len(tasks) == 0 {
		ctx.Println("No tasks found")
		return nil
	}

	now := ctx.Now()
	ctx.Println("Tasks:")
	for _, t := range tasks {
		if c.Pending && t.Completed {
			continue
		}
		if c.Category != "" && !strings.EqualFold(c.Category, t.Category) {
			continue
		}

		status := "[ ]"
		if t.Completed {
			status = "[x]"
		}
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", t.ID)
		}
		due := ""
		if t.DueDate != nil {
			due = ", due " + t.DueDate.In(ctx.Location()).Format(constants.DateFormat)
			if t.IsOverdue(now) {
				due += " OVERDUE"
			}
		}
		ctx.Printf("  %s %s%s - %s (%s priority%s)\n", status, t.Title, idStr, t.Category, t.Priority, due)

		for i, st := range t.Subtasks {
			mark := " "
			if st.Completed {
				mark = "x"
			}
			ctx.Printf("      %d. [%s] %s\n", i+1, mark, st.Title)
		}
	}
	return nil
}

type TaskEditCmd struct {
	Task        string  `arg:"" help:"Task title or ID."`
	Title       *string `help:"New title."`
	Category    *string `short:"c" help:"New category."`
	Description *string `short:"d" help:"New description."`
	Priority    *string `short:"p" help:"New priority (low|medium|high)."`
	Due         *string `help:"New due date (YYYY-MM-DD)."`
	ClearDue    bool    `help:"Remove the due date."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	task, err := cli.ResolveTask(ctx.State(), c.Task)
	if err != nil {
		return err
	}

	patch := models.TaskPatch{
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		ClearDueDate: c.ClearDue,
	}
	if c.Priority != nil {
		p := models.Priority(*c.Priority)
		patch.Priority = &p
	}
	if c.Due != nil {
		due, err := cli.ParseDueDate(*c.Due, ctx.Location())
		if err != nil {
			return err
		}
		patch.DueDate = due
	}

	updated, err := ctx.Sync.UpdateTask(ctx.Ctx, task.ID, patch)
	if err != nil {
		return err
	}
	ctx.Printf("Updated task: %s\n", updated.Title)
	return nil
}

type TaskToggleCmd struct {
	Task string `arg:"" help:"Task title or ID."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	task, err := cli.ResolveTask(ctx.State(), c.Task)
	if err != nil {
		return err
	}

	updated, err := ctx.Sync.ToggleTask(ctx.Ctx, task.ID)
	if err != nil {
		return err
	}
	if updated.Completed {
		ctx.Printf("Completed task: %s\n", updated.Title)
	} else {
		ctx.Printf("Reopened task: %s\n", updated.Title)
	}
	return nil
}

type TaskSubtaskCmd struct {
	Task    string `arg:"" help:"Task title or ID."`
	Subtask int    `arg:"" help:"Subtask number as shown by 'task list'."`
	Undo    bool   `help:"Mark the subtask as not done."`
}

func (c *TaskSubtaskCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	task, err := cli.ResolveTask(ctx.State(), c.Task)
	if err != nil {
		return err
	}
	if c.Subtask < 1 || c.Subtask > len(task.Subtasks) {
		return fmt.Errorf("task %q has %d subtasks", task.Title, len(task.Subtasks))
	}
	sub := task.Subtasks[c.Subtask-1]

	updated, err := ctx.Sync.SetSubtaskCompleted(ctx.Ctx, task.ID, sub.ID, !c.Undo)
	if err != nil {
		return err
	}
	done := 0
	for _, st := range updated.Subtasks {
		if st.Completed {
			done++
		}
	}
	ctx.Printf("Updated subtask %q (%d/%d done)\n", sub.Title, done, len(updated.Subtasks))
	return nil
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task title or ID."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	task, err := cli.ResolveTask(ctx.State(), c.Task)
	if err != nil {
		return err
	}
	if err := ctx.Sync.DeleteTask(ctx.Ctx, task.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted task: %s\n", task.Title)
	return nil
}
