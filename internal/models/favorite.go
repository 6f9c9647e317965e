package models

import "time"

// Favorite is a member's nomination of a catalog movie within a group.
// Unique per (group, user, item symbol).
type Favorite struct {
	ID         int64     `json:"id" db:"id"`
	GroupID    int64     `json:"groupId" db:"group_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	ItemSymbol string    `json:"itemSymbol" db:"item_symbol"`
	Title      *string   `json:"title" db:"title"`
	Comment    *string   `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// FavoriteComment is a comment on a favorite.
type FavoriteComment struct {
	ID         int64     `json:"id" db:"id"`
	FavoriteID int64     `json:"favoriteId" db:"favorite_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// FavoriteInput is the payload for adding a favorite.
type FavoriteInput struct {
	MovieID int64
	Comment *string
}

// CommentSummary is a comment with its author.
type CommentSummary struct {
	ID         int64     `json:"id"`
	FavoriteID int64     `json:"favoriteId"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
	UserID     int64     `json:"userId"`
	UserName   *string   `json:"userName"`
	UserImage  *string   `json:"userImage"`
}

// FavoriteSummary is a favorite with its author and comments, newest first.
type FavoriteSummary struct {
	ID        int64            `json:"id"`
	Title     *string          `json:"title"`
	Comment   *string          `json:"comment"`
	CreatedAt time.Time        `json:"createdAt"`
	UserID    int64            `json:"userId"`
	UserName  *string          `json:"userName"`
	UserImage *string          `json:"userImage"`
	Comments  []CommentSummary `json:"comments"`
}

// AddFavoriteResult reports whether a favorite was stored.
type AddFavoriteResult string

const (
	FavoriteAdded     AddFavoriteResult = "added"
	FavoriteDuplicate AddFavoriteResult = "duplicate"
)
