package repository

import (
	"context"
	"errors"

	"filmclub/server/internal/models"

	"github.com/jackc/pgx/v5"
)

// GetUser retrieves a user by ID.
func (s *PgStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, name, email, image, description
		FROM users
		WHERE id = $1
	`

	var u models.User
	err := s.q.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.Description)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindUserByEmail retrieves a user by email address.
func (s *PgStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, image, description
		FROM users
		WHERE email = $1
	`

	var u models.User
	err := s.q.QueryRow(ctx, query, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.Description)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// InsertUserIfMissing creates the user unless the email is already taken.
// It reports whether a row was inserted; on insert user.ID is populated.
func (s *PgStore) InsertUserIfMissing(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (name, email, image)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	err := s.q.QueryRow(ctx, query, user.Name, user.Email, user.Image).Scan(&user.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
