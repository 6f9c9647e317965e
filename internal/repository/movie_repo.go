package repository

import (
	"context"

	"filmclub/server/internal/models"
)

// GetMovie looks up a catalog movie by ID.
func (s *PgStore) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	var m models.Movie
	err := s.q.QueryRow(ctx, `SELECT id, title, year FROM movies WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.Year)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ListMovieOptions returns up to limit movies ordered by title.
func (s *PgStore) ListMovieOptions(ctx context.Context, limit int) ([]models.MovieOption, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, title, year
		FROM movies
		ORDER BY title ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.MovieOption{}
	for rows.Next() {
		var o models.MovieOption
		if err := rows.Scan(&o.ID, &o.Title, &o.Year); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
