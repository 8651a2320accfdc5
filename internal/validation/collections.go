package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitflow/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidHabit   ConflictType = "invalid_habit"
	ConflictInvalidTask    ConflictType = "invalid_task"
	ConflictInvalidEntry   ConflictType = "invalid_entry"
	ConflictDuplicateID    ConflictType = "duplicate_id"
	ConflictDuplicateEntry ConflictType = "duplicate_entry_day"
)

// Conflict represents a problem found in a set of collections
type Conflict struct {
	Type        ConflictType
	Description string
	IDs         []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

func (vr *ValidationResult) add(t ConflictType, desc string, ids ...string) {
	vr.Conflicts = append(vr.Conflicts, Conflict{Type: t, Description: desc, IDs: ids})
}

// ValidateCollections checks every record plus the cross-record invariants:
// unique ids per collection and at most one entry per habit and day.
// Entries referencing unknown habits are allowed; the reference is weak.
func ValidateCollections(habits []models.Habit, tasks []models.Task, entries []models.HabitEntry) ValidationResult {
	var result ValidationResult

	seen := make(map[string]bool)
	for _, h := range habits {
		if err := ValidateHabit(h); err != nil {
			result.add(ConflictInvalidHabit, err.Error(), h.ID)
			continue
		}
		if seen[h.ID] {
			result.add(ConflictDuplicateID, fmt.Sprintf("habit id %s appears more than once", h.ID), h.ID)
		}
		seen[h.ID] = true
	}

	seen = make(map[string]bool)
	for _, t := range tasks {
		if err := ValidateTask(t); err != nil {
			result.add(ConflictInvalidTask, err.Error(), t.ID)
			continue
		}
		if seen[t.ID] {
			result.add(ConflictDuplicateID, fmt.Sprintf("task id %s appears more than once", t.ID), t.ID)
		}
		seen[t.ID] = true
	}

	seen = make(map[string]bool)
	days := make(map[string]string)
	for _, e := range entries {
		if err := ValidateEntry(e); err != nil {
			result.add(ConflictInvalidEntry, err.Error(), e.ID)
			continue
		}
		if seen[e.ID] {
			result.add(ConflictDuplicateID, fmt.Sprintf("habit entry id %s appears more than once", e.ID), e.ID)
		}
		seen[e.ID] = true

		key := e.HabitID + "|" + e.Day
		if other, ok := days[key]; ok {
			result.add(ConflictDuplicateEntry,
				fmt.Sprintf("habit %s has more than one entry on %s", e.HabitID, e.Day), other, e.ID)
			continue
		}
		days[key] = e.ID
	}

	return result
}
