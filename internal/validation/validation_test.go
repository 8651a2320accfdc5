package validation

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitflow/internal/errors"
	"github.com/julianstephens/habitflow/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestValidateNewHabit(t *testing.T) {
	valid := models.NewHabit{Name: "Read", Category: "Learning", Frequency: models.FrequencyDaily, TargetCount: 1}

	tests := []struct {
		name    string
		mutate  func(h *models.NewHabit)
		wantErr string
	}{
		{"valid", func(h *models.NewHabit) {}, ""},
		{"empty name", func(h *models.NewHabit) { h.Name = "  " }, "name is required"},
		{"empty category", func(h *models.NewHabit) { h.Category = "" }, "category is required"},
		{"bad frequency", func(h *models.NewHabit) { h.Frequency = "hourly" }, "invalid frequency"},
		{"zero target", func(h *models.NewHabit) { h.TargetCount = 0 }, "target count must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid
			tt.mutate(&h)
			err := ValidateNewHabit(h)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Errorf("kind = %q, want validation", apperrors.KindOf(err))
			}
		})
	}
}

func TestValidateHabitPatch(t *testing.T) {
	if err := ValidateHabitPatch(models.HabitPatch{}); err == nil {
		t.Error("empty patch should be rejected")
	}
	if err := ValidateHabitPatch(models.HabitPatch{Name: strPtr("")}); err == nil {
		t.Error("clearing name should be rejected")
	}
	if err := ValidateHabitPatch(models.HabitPatch{TargetCount: intPtr(0)}); err == nil {
		t.Error("zero target count should be rejected")
	}
	if err := ValidateHabitPatch(models.HabitPatch{IsActive: boolPtr(false)}); err != nil {
		t.Errorf("deactivating should be allowed: %v", err)
	}
}

func TestValidateTaskPatchCompletionPairing(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		patch   models.TaskPatch
		wantErr bool
	}{
		{"complete with timestamp", models.CompletionPatch(true, now), false},
		{"reopen clears timestamp", models.CompletionPatch(false, now), false},
		{"complete without timestamp", models.TaskPatch{Completed: boolPtr(true)}, true},
		{"reopen without clearing", models.TaskPatch{Completed: boolPtr(false)}, true},
		{"timestamp without completed", models.TaskPatch{CompletedAt: &now}, true},
		{"set and clear due date", models.TaskPatch{DueDate: &now, ClearDueDate: true}, true},
		{"title only", models.TaskPatch{Title: strPtr("Ship it")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskPatch(tt.patch)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaskPatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNewTask(t *testing.T) {
	now := time.Now()
	valid := models.NewTask{Title: "Write report", Category: "Work", Priority: models.PriorityHigh}
	if err := ValidateNewTask(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completedNoStamp := valid
	completedNoStamp.Completed = true
	if err := ValidateNewTask(completedNoStamp); err == nil {
		t.Error("completed task without completedAt should be rejected")
	}

	stampNotCompleted := valid
	stampNotCompleted.CompletedAt = &now
	if err := ValidateNewTask(stampNotCompleted); err == nil {
		t.Error("completedAt on incomplete task should be rejected")
	}

	blankSubtask := valid
	blankSubtask.Subtasks = []string{"outline", ""}
	if err := ValidateNewTask(blankSubtask); err == nil {
		t.Error("blank subtask title should be rejected")
	}
}

func TestValidateNewEntry(t *testing.T) {
	if err := ValidateNewEntry(models.NewHabitEntry{HabitID: "h1", Day: "2024-01-05", Count: 1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateNewEntry(models.NewHabitEntry{HabitID: "h1", Day: "05/01/2024", Count: 1}); err == nil {
		t.Error("bad date should be rejected")
	}
	if err := ValidateNewEntry(models.NewHabitEntry{HabitID: "h1", Day: "2024-01-05", Count: 0}); err == nil {
		t.Error("zero count should be rejected")
	}
	if err := ValidateNewEntry(models.NewHabitEntry{Day: "2024-01-05", Count: 1}); err == nil {
		t.Error("missing habit id should be rejected")
	}
}

func TestValidateCollections(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	habits := []models.Habit{
		{ID: "h1", Name: "Run", Category: "Health", Frequency: models.FrequencyDaily, TargetCount: 1, CreatedAt: created},
		{ID: "h1", Name: "Run again", Category: "Health", Frequency: models.FrequencyDaily, TargetCount: 1, CreatedAt: created},
	}
	tasks := []models.Task{
		{ID: "t1", Title: "Taxes", Category: "Admin", Priority: models.PriorityHigh, Completed: true, CreatedAt: created},
	}
	entries := []models.HabitEntry{
		{ID: "e1", HabitID: "h1", Day: "2024-01-02", Count: 1},
		{ID: "e2", HabitID: "h1", Day: "2024-01-02", Count: 1},
		{ID: "e3", HabitID: "h1", Day: "2024-01-03", Count: 1},
	}

	result := ValidateCollections(habits, tasks, entries)
	if !result.HasConflicts() {
		t.Fatal("expected conflicts")
	}

	types := make(map[ConflictType]int)
	for _, c := range result.Conflicts {
		types[c.Type]++
	}
	if types[ConflictDuplicateID] != 1 {
		t.Errorf("duplicate id conflicts = %d, want 1", types[ConflictDuplicateID])
	}
	if types[ConflictInvalidTask] != 1 {
		t.Errorf("invalid task conflicts = %d, want 1", types[ConflictInvalidTask])
	}
	if types[ConflictDuplicateEntry] != 1 {
		t.Errorf("duplicate entry conflicts = %d, want 1", types[ConflictDuplicateEntry])
	}
	if !strings.HasPrefix(result.FormatReport(), "Conflicts detected:") {
		t.Errorf("unexpected report: %q", result.FormatReport())
	}
}

func TestValidateCollectionsClean(t *testing.T) {
	result := ValidateCollections(nil, nil, nil)
	if result.HasConflicts() {
		t.Errorf("empty collections should be clean, got %v", result.Conflicts)
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("unexpected report: %q", result.FormatReport())
	}
}
