package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist for the requesting user
	ErrNotFound = errors.New("record not found")
	// ErrConflict is matched by every *ConflictError
	ErrConflict = errors.New("uniqueness constraint violated")
)

// ConflictError reports a uniqueness violation. Constraint names the violated
// constraint as reported by the database, when known.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), e.Constraint)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConflict) hold for any *ConflictError
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Constraint names shared by every provider
const (
	ConstraintEntryPerDay = "habit_entries_habit_day_key"
	ConstraintUserEmail   = "users_email_key"
)
