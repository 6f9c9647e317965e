package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"

	"go.uber.org/zap"
)

// AddFavoriteToGroup nominates a catalog movie in a group. Members only.
// Nominating the same movie twice reports FavoriteDuplicate instead of failing.
func (s *GroupService) AddFavoriteToGroup(ctx context.Context, userID, groupID int64, in models.FavoriteInput) (models.AddFavoriteResult, error) {
	member, err := findMember(ctx, s.store, groupID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", apperror.Forbidden("must be a member")
	}

	movie, err := s.store.GetMovie(ctx, in.MovieID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperror.NotFound("movie not found")
	}
	if err != nil {
		return "", fmt.Errorf("get movie: %w", err)
	}

	now := s.now()
	title := movie.Title
	inserted, err := s.store.InsertFavorite(ctx, &models.Favorite{
		GroupID:    groupID,
		UserID:     userID,
		ItemSymbol: movie.Symbol(),
		Title:      &title,
		Comment:    trimToNil(in.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return "", fmt.Errorf("insert favorite: %w", err)
	}
	if !inserted {
		return models.FavoriteDuplicate, nil
	}

	s.log.Info("favorite added",
		zap.Int64("group_id", groupID),
		zap.Int64("user_id", userID),
		zap.Int64("movie_id", movie.ID),
	)
	s.invalidate(groupID)
	return models.FavoriteAdded, nil
}

// DeleteFavoriteFromGroup deletes a favorite and its comments. Author only.
// A favorite that no longer exists is a no-op.
func (s *GroupService) DeleteFavoriteFromGroup(ctx context.Context, userID, favoriteID int64) error {
	var groupID int64
	deleted := false

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		fav, err := tx.GetFavorite(ctx, favoriteID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get favorite: %w", err)
		}
		if fav.UserID != userID {
			return apperror.Forbidden("only the author can delete this favorite")
		}
		groupID = fav.GroupID

		if err := tx.DeleteCommentsByFavorite(ctx, favoriteID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.DeleteFavorite(ctx, favoriteID); err != nil {
			return fmt.Errorf("delete favorite: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil || !deleted {
		return err
	}

	s.log.Info("favorite deleted", zap.Int64("group_id", groupID), zap.Int64("favorite_id", favoriteID))
	s.invalidate(groupID)
	return nil
}

// AddCommentToFavorite comments on a favorite. Members of its group only.
// Empty text is rejected by the HTTP layer, not here.
func (s *GroupService) AddCommentToFavorite(ctx context.Context, userID, favoriteID int64, text string) (*models.FavoriteComment, error) {
	fav, err := s.store.GetFavorite(ctx, favoriteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("favorite not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}

	member, err := findMember(ctx, s.store, fav.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperror.Forbidden("must be a member")
	}

	comment := &models.FavoriteComment{
		FavoriteID: favoriteID,
		UserID:     userID,
		Comment:    strings.TrimSpace(text),
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	s.log.Info("comment added", zap.Int64("group_id", fav.GroupID), zap.Int64("favorite_id", favoriteID))
	s.invalidate(fav.GroupID)
	return comment, nil
}
