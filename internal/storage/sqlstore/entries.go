package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

var entryColumns = []string{"id", "user_id", "habit_id", "day", "count", "notes", "created_at"}

func scanEntry(row rowScanner) (models.HabitEntry, error) {
	var r storage.EntryRow
	var day dayValue
	var createdAt timeValue
	if err := row.Scan(&r.ID, &r.UserID, &r.HabitID, &day, &r.Count, &r.Notes, &createdAt); err != nil {
		return models.HabitEntry{}, err
	}
	r.Day = string(day)
	return storage.MapEntry(r)
}

func (s *Store) ListHabitEntries(ctx context.Context, userID string) ([]models.HabitEntry, error) {
	rows, err := s.query(ctx, s.db, s.builder().
		Select(entryColumns...).
		From("habit_entries").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("day DESC", "created_at DESC"))
	if err != nil {
		return nil, s.mapError(err, "habit entries", userID)
	}
	defer rows.Close()

	entries := []models.HabitEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertHabitEntry relies on the (habit_id, day) unique constraint; a second
// entry for the same day surfaces as a *storage.ConflictError.
func (s *Store) InsertHabitEntry(ctx context.Context, userID string, e models.NewHabitEntry) (models.HabitEntry, error) {
	// the habit must belong to the caller
	if _, err := s.getHabit(ctx, s.db, userID, e.HabitID); err != nil {
		return models.HabitEntry{}, err
	}

	id := s.NewID()
	if _, err := s.exec(ctx, s.db, s.builder().
		Insert("habit_entries").
		Columns(entryColumns...).
		Values(id, userID, e.HabitID, e.Day, e.Count, e.Notes, s.encodeTime(s.now()))); err != nil {
		return models.HabitEntry{}, s.mapError(err, "habit entry", fmt.Sprintf("%s@%s", e.HabitID, e.Day))
	}

	row, err := s.queryRow(ctx, s.db, s.builder().
		Select(entryColumns...).
		From("habit_entries").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return models.HabitEntry{}, err
	}
	entry, err := scanEntry(row)
	if err != nil {
		return models.HabitEntry{}, s.mapError(err, "habit entry", id)
	}
	return entry, nil
}
