package repository

import (
	"context"
	"errors"

	"filmclub/server/internal/models"

	"github.com/jackc/pgx/v5"
)

// InsertFavorite stores a favorite unless the same member already picked
// the same item in the group. It reports whether a row was inserted.
func (s *PgStore) InsertFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	query := `
		INSERT INTO group_favorites (group_id, user_id, item_symbol, title, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_id, user_id, item_symbol) DO NOTHING
		RETURNING id
	`

	err := s.q.QueryRow(ctx, query,
		fav.GroupID, fav.UserID, fav.ItemSymbol, fav.Title, fav.Comment, fav.CreatedAt, fav.UpdatedAt,
	).Scan(&fav.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetFavorite retrieves a favorite by ID.
func (s *PgStore) GetFavorite(ctx context.Context, id int64) (*models.Favorite, error) {
	query := `
		SELECT id, group_id, user_id, item_symbol, title, comment, created_at, updated_at
		FROM group_favorites
		WHERE id = $1
	`

	var f models.Favorite
	err := s.q.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.GroupID, &f.UserID, &f.ItemSymbol, &f.Title, &f.Comment, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// DeleteFavorite deletes one favorite. Its comments must be deleted first.
func (s *PgStore) DeleteFavorite(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_favorites WHERE id = $1`, id)
	return err
}

// DeleteFavoritesByGroup deletes all favorites of a group.
func (s *PgStore) DeleteFavoritesByGroup(ctx context.Context, groupID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_favorites WHERE group_id = $1`, groupID)
	return err
}

// DeleteFavoritesByMember deletes a member's favorites in a group.
func (s *PgStore) DeleteFavoritesByMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_favorites WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

// ListFavorites returns a group's favorites with their authors, newest first.
// Comments are not loaded.
func (s *PgStore) ListFavorites(ctx context.Context, groupID int64) ([]models.FavoriteSummary, error) {
	query := `
		SELECT f.id, f.title, f.comment, f.created_at, f.user_id, u.name, u.image
		FROM group_favorites f
		LEFT JOIN users u ON u.id = f.user_id
		WHERE f.group_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`

	rows, err := s.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []models.FavoriteSummary{}
	for rows.Next() {
		var f models.FavoriteSummary
		if err := rows.Scan(&f.ID, &f.Title, &f.Comment, &f.CreatedAt, &f.UserID, &f.UserName, &f.UserImage); err != nil {
			return nil, err
		}
		f.Comments = []models.CommentSummary{}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// InsertComment stores a comment and populates comment.ID.
func (s *PgStore) InsertComment(ctx context.Context, comment *models.FavoriteComment) error {
	query := `
		INSERT INTO group_favorite_comments (favorite_id, user_id, comment, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return s.q.QueryRow(ctx, query, comment.FavoriteID, comment.UserID, comment.Comment, comment.CreatedAt).
		Scan(&comment.ID)
}

// DeleteCommentsByFavorite deletes all comments on a favorite.
func (s *PgStore) DeleteCommentsByFavorite(ctx context.Context, favoriteID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_favorite_comments WHERE favorite_id = $1`, favoriteID)
	return err
}

// DeleteCommentsByGroup deletes all comments on the favorites of a group.
func (s *PgStore) DeleteCommentsByGroup(ctx context.Context, groupID int64) error {
	query := `
		DELETE FROM group_favorite_comments
		WHERE favorite_id IN (SELECT id FROM group_favorites WHERE group_id = $1)
	`

	_, err := s.q.Exec(ctx, query, groupID)
	return err
}

// DeleteCommentsByMember deletes all comments on a member's favorites in a group,
// whoever wrote them.
func (s *PgStore) DeleteCommentsByMember(ctx context.Context, groupID, userID int64) error {
	query := `
		DELETE FROM group_favorite_comments
		WHERE favorite_id IN (SELECT id FROM group_favorites WHERE group_id = $1 AND user_id = $2)
	`

	_, err := s.q.Exec(ctx, query, groupID, userID)
	return err
}

// ListComments returns the comments on the given favorites, newest first.
func (s *PgStore) ListComments(ctx context.Context, favoriteIDs []int64) ([]models.CommentSummary, error) {
	if len(favoriteIDs) == 0 {
		return []models.CommentSummary{}, nil
	}

	query := `
		SELECT c.id, c.favorite_id, c.comment, c.created_at, c.user_id, u.name, u.image
		FROM group_favorite_comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.favorite_id = ANY($1)
		ORDER BY c.created_at DESC, c.id DESC
	`

	rows, err := s.q.Query(ctx, query, favoriteIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.CommentSummary{}
	for rows.Next() {
		var c models.CommentSummary
		if err := rows.Scan(&c.ID, &c.FavoriteID, &c.Comment, &c.CreatedAt, &c.UserID, &c.UserName, &c.UserImage); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
