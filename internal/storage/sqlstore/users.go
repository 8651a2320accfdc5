package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/habitflow/internal/models"
)

var userColumns = []string{"id", "email", "password_hash", "created_at"}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var createdAt timeValue
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return models.User{}, err
	}
	u.CreatedAt = createdAt.Time
	return u, nil
}

func (s *Store) getUserWhere(ctx context.Context, where sq.Eq, key string) (models.User, error) {
	row, err := s.queryRow(ctx, s.db, s.builder().
		Select(userColumns...).
		From("users").
		Where(where))
	if err != nil {
		return models.User{}, err
	}
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, s.mapError(err, "user", key)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	u := models.User{
		ID:           s.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	if _, err := s.exec(ctx, s.db, s.builder().
		Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.PasswordHash, s.encodeTime(u.CreatedAt))); err != nil {
		return models.User{}, s.mapError(err, "user", email)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"id": id}, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"email": email}, email)
}
