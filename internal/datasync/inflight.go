package datasync

import (
	apperrors "github.com/julianstephens/habitflow/internal/errors"
)

// In-flight keys for writes that do not yet have a record id
const (
	KeyNewHabit = "habit:new"
	KeyNewTask  = "task:new"
)

// HabitKey is the in-flight key for writes to an existing habit
func HabitKey(id string) string { return "habit:" + id }

// TaskKey is the in-flight key for writes to an existing task
func TaskKey(id string) string { return "task:" + id }

// EntryKey is the in-flight key for completing a habit on a day
func EntryKey(habitID, day string) string { return "entry:" + habitID + ":" + day }

// InFlight reports whether a write for key is pending. Presentation code uses
// it to disable the matching control.
func (s *Syncer) InFlight(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[key]
	return ok
}

// begin marks key as pending and returns the function that releases it. A
// second begin for the same key fails until the first is released.
func (s *Syncer) begin(op, key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[key]; ok {
		return nil, apperrors.New(apperrors.KindInFlight, op, "")
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight, key)
	}, nil
}
