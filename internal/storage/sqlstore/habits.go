package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/habitflow/internal/models"
	"github.com/julianstephens/habitflow/internal/storage"
)

var habitColumns = []string{
	"id", "user_id", "name", "description", "frequency", "target_count", "category", "color", "is_active", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var r storage.HabitRow
	var createdAt timeValue
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Frequency, &r.TargetCount,
		&r.Category, &r.Color, &r.IsActive, &createdAt); err != nil {
		return models.Habit{}, err
	}
	r.CreatedAt = createdAt.Time
	return storage.MapHabit(r)
}

func (s *Store) getHabit(ctx context.Context, q querier, userID, id string) (models.Habit, error) {
	row, err := s.queryRow(ctx, q, s.builder().
		Select(habitColumns...).
		From("habits").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return models.Habit{}, err
	}
	h, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, s.mapError(err, "habit", id)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.query(ctx, s.db, s.builder().
		Select(habitColumns...).
		From("habits").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC"))
	if err != nil {
		return nil, s.mapError(err, "habits", userID)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) InsertHabit(ctx context.Context, userID string, h models.NewHabit) (models.Habit, error) {
	id := s.NewID()
	_, err := s.exec(ctx, s.db, s.builder().
		Insert("habits").
		Columns(habitColumns...).
		Values(id, userID, h.Name, h.Description, string(h.Frequency), h.TargetCount, h.Category, h.Color, h.IsActive,
			s.encodeTime(s.now())))
	if err != nil {
		return models.Habit{}, s.mapError(err, "habit", id)
	}
	return s.getHabit(ctx, s.db, userID, id)
}

func habitPatchMap(p models.HabitPatch) map[string]any {
	set := map[string]any{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Frequency != nil {
		set["frequency"] = string(*p.Frequency)
	}
	if p.TargetCount != nil {
		set["target_count"] = *p.TargetCount
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Color != nil {
		set["color"] = *p.Color
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	return set
}

func (s *Store) UpdateHabit(ctx context.Context, userID, id string, p models.HabitPatch) (models.Habit, error) {
	set := habitPatchMap(p)
	if len(set) == 0 {
		return s.getHabit(ctx, s.db, userID, id)
	}

	var out models.Habit
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.builder().
			Update("habits").
			SetMap(set).
			Where(sq.Eq{"id": id, "user_id": userID}))
		if err != nil {
			return s.mapError(err, "habit", id)
		}
		if err := requireAffected(res, "habit", id); err != nil {
			return err
		}
		out, err = s.getHabit(ctx, tx, userID, id)
		return err
	})
	return out, err
}

func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// entries go first so the cascade holds even without foreign key enforcement
		if _, err := s.exec(ctx, tx, s.builder().
			Delete("habit_entries").
			Where(sq.Eq{"habit_id": id, "user_id": userID})); err != nil {
			return s.mapError(err, "habit entries", id)
		}
		res, err := s.exec(ctx, tx, s.builder().
			Delete("habits").
			Where(sq.Eq{"id": id, "user_id": userID}))
		if err != nil {
			return s.mapError(err, "habit", id)
		}
		return requireAffected(res, "habit", id)
	})
}
