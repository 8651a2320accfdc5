package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Subtask struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Category    string     `json:"category" yaml:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Completed   bool       `json:"completed" yaml:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	Subtasks    []Subtask  `json:"subtasks" yaml:"subtasks"`
}

// IsOverdue reports whether an incomplete task is past its due date
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// NewTask is the caller-supplied part of a task; the backend assigns ID and CreatedAt.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *time.Time
	Completed   bool
	CompletedAt *time.Time
	Subtasks    []string // subtask titles, in order
}

// TaskPatch is a partial update. Nil fields are left unchanged; the Clear
// flags null out optional timestamps.
type TaskPatch struct {
	Title            *string
	Description      *string
	Priority         *Priority
	Category         *string
	DueDate          *time.Time
	ClearDueDate     bool
	Completed        *bool
	CompletedAt      *time.Time
	ClearCompletedAt bool
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Category == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Completed == nil && p.CompletedAt == nil && !p.ClearCompletedAt
}

// Apply returns a copy of t with the patch applied
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ClearCompletedAt {
		t.CompletedAt = nil
	} else if p.CompletedAt != nil {
		c := *p.CompletedAt
		t.CompletedAt = &c
	}
	return t
}

// CompletionPatch builds the single update that flips completion. CompletedAt
// travels with Completed so the pair is never written separately.
func CompletionPatch(completed bool, now time.Time) TaskPatch {
	p := TaskPatch{Completed: &completed}
	if completed {
		p.CompletedAt = &now
	} else {
		p.ClearCompletedAt = true
	}
	return p
}
