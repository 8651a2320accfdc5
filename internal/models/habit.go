package models

import "time"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Valid reports whether f is one of the known frequencies
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

// Habit represents a recurring practice to track
type Habit struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Frequency   Frequency `json:"frequency" yaml:"frequency"`
	TargetCount int       `json:"targetCount" yaml:"targetCount"`
	Category    string    `json:"category" yaml:"category"`
	Color       string    `json:"color" yaml:"color"`
	IsActive    bool      `json:"isActive" yaml:"isActive"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// NewHabit is the caller-supplied part of a habit; the backend assigns ID and CreatedAt.
type NewHabit struct {
	Name        string
	Description string
	Frequency   Frequency
	TargetCount int
	Category    string
	Color       string
	IsActive    bool
}

// HabitPatch is a partial update. Nil fields are left unchanged.
type HabitPatch struct {
	Name        *string
	Description *string
	Frequency   *Frequency
	TargetCount *int
	Category    *string
	Color       *string
	IsActive    *bool
}

// Empty reports whether the patch changes nothing
func (p HabitPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Frequency == nil && p.TargetCount == nil &&
		p.Category == nil && p.Color == nil && p.IsActive == nil
}

// Apply returns a copy of h with the patch applied
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.TargetCount != nil {
		h.TargetCount = *p.TargetCount
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
	return h
}

// HabitEntry represents a single day's record of a habit
type HabitEntry struct {
	ID      string `json:"id" yaml:"id"`
	HabitID string `json:"habitId" yaml:"habitId"`
	Day     string `json:"date" yaml:"date"` // YYYY-MM-DD format
	Count   int    `json:"count" yaml:"count"`
	Notes   string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewHabitEntry is the caller-supplied part of a habit entry
type NewHabitEntry struct {
	HabitID string
	Day     string // YYYY-MM-DD format
	Count   int
	Notes   string
}
