// Package repository implements the database access layer.
//
// Every write that can race with itself (join, favorite, join request,
// user provisioning) uses INSERT ... ON CONFLICT DO NOTHING and reports
// whether a row was actually inserted instead of failing.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmclub/server/internal/database"
	"filmclub/server/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore reads and provisions users.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUserIfMissing(ctx context.Context, user *models.User) (bool, error)
}

// MovieStore is the read-only movie catalog.
type MovieStore interface {
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	ListMovieOptions(ctx context.Context, limit int) ([]models.MovieOption, error)
}

// GroupStore manages group rows.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error
	ListGroupsForViewer(ctx context.Context, viewerID int64) ([]models.GroupListItem, error)
}

// MemberStore manages group memberships.
type MemberStore interface {
	AddMember(ctx context.Context, member *models.GroupMember) (bool, error)
	GetMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID int64) error
	DeleteMembersByGroup(ctx context.Context, groupID int64) error
	ListMembers(ctx context.Context, groupID int64) ([]models.MemberSummary, error)
}

// JoinRequestStore manages requests to join private groups.
type JoinRequestStore interface {
	GetJoinRequest(ctx context.Context, id int64) (*models.JoinRequest, error)
	FindJoinRequest(ctx context.Context, groupID, userID int64) (*models.JoinRequest, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) (bool, error)
	ReopenJoinRequest(ctx context.Context, id int64, at time.Time) error
	ResolveJoinRequest(ctx context.Context, id int64, status models.JoinRequestStatus, at time.Time, resolvedBy int64) error
	ApproveJoinRequestFor(ctx context.Context, groupID, userID int64, at time.Time, resolvedBy int64) error
	DeleteJoinRequest(ctx context.Context, groupID, userID int64) error
	DeleteJoinRequestsByGroup(ctx context.Context, groupID int64) error
	ListPendingJoinRequests(ctx context.Context, groupID int64) ([]models.JoinRequestSummary, error)
}

// FavoriteStore manages favorites and their comments.
type FavoriteStore interface {
	InsertFavorite(ctx context.Context, fav *models.Favorite) (bool, error)
	GetFavorite(ctx context.Context, id int64) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, id int64) error
	DeleteFavoritesByGroup(ctx context.Context, groupID int64) error
	DeleteFavoritesByMember(ctx context.Context, groupID, userID int64) error
	ListFavorites(ctx context.Context, groupID int64) ([]models.FavoriteSummary, error)

	InsertComment(ctx context.Context, comment *models.FavoriteComment) error
	DeleteCommentsByFavorite(ctx context.Context, favoriteID int64) error
	DeleteCommentsByGroup(ctx context.Context, groupID int64) error
	DeleteCommentsByMember(ctx context.Context, groupID, userID int64) error
	ListComments(ctx context.Context, favoriteIDs []int64) ([]models.CommentSummary, error)
}

// Store is the full storage capability set used by the services.
type Store interface {
	UserStore
	MovieStore
	GroupStore
	MemberStore
	JoinRequestStore
	FavoriteStore

	// WithinTx runs fn against a Store bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	q  database.Querier
	db database.DB // nil when q is already a transaction
}

// NewPgStore creates a Store backed by db.
func NewPgStore(db database.DB) *PgStore {
	return &PgStore{q: db, db: db}
}

// WithinTx implements Store. Nested calls reuse the open transaction.
func (s *PgStore) WithinTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit transaction: %w", cerr)
		}
	}()

	return fn(&PgStore{q: tx})
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
