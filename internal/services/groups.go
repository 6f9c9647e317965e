// Package services implements group membership, visibility, favorites and
// comments on top of a repository.Store.
//
// Every operation takes an already resolved user ID. Authorization and
// precondition checks run before any write, and every multi-statement
// mutation runs inside a single transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"

	"go.uber.org/zap"
)

// ViewGroups is the logical view name of the group list.
const ViewGroups = "groups"

// GroupView returns the logical view name of one group's detail page.
func GroupView(groupID int64) string {
	return "groups/" + strconv.FormatInt(groupID, 10)
}

// Invalidator is told which logical views a successful mutation made stale.
type Invalidator interface {
	Invalidate(views ...string)
}

// GroupService implements the group directory, membership manager,
// favorites store and owner console.
type GroupService struct {
	store       repository.Store
	invalidator Invalidator
	log         *zap.Logger
	now         func() time.Time
}

// NewGroupService creates a GroupService. A nil invalidator disables signalling.
func NewGroupService(store repository.Store, invalidator Invalidator, log *zap.Logger) *GroupService {
	return &GroupService{
		store:       store,
		invalidator: invalidator,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *GroupService) invalidate(groupID int64) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(ViewGroups, GroupView(groupID))
}

// loadGroup fetches a group, translating a miss into NotFound.
func loadGroup(ctx context.Context, store repository.Store, groupID int64) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", groupID, err)
	}
	return group, nil
}

// loadOwnedGroup fetches a group and checks that userID owns it.
func loadOwnedGroup(ctx context.Context, store repository.Store, groupID, userID int64) (*models.Group, error) {
	group, err := loadGroup(ctx, store, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, apperror.Forbidden("only the group owner can do this")
	}
	return group, nil
}

// findMember returns the membership row or nil.
func findMember(ctx context.Context, store repository.Store, groupID, userID int64) (*models.GroupMember, error) {
	member, err := store.GetMember(ctx, groupID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// trimToNil trims s and returns nil when nothing is left.
func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func normalizeGroupInput(in models.GroupInput) (models.GroupInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimToNil(in.Description)
	if in.Name == "" {
		return in, apperror.Validation("validation failed", map[string]string{"name": "name is required"})
	}
	if !in.Visibility.Valid() {
		return in, apperror.Validation("validation failed", map[string]string{"visibility": "must be public or private"})
	}
	return in, nil
}

// CreateGroup creates a group owned by userID and makes the owner its first member.
func (s *GroupService) CreateGroup(ctx context.Context, userID int64, in models.GroupInput) (*models.Group, error) {
	in, err := normalizeGroupInput(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	group := &models.Group{
		OwnerID:     userID,
		Name:        in.Name,
		Description: in.Description,
		Visibility:  in.Visibility,
		CreatedAt:   now,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateGroup(ctx, group); err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		_, err := tx.AddMember(ctx, &models.GroupMember{
			GroupID:  group.ID,
			UserID:   userID,
			Role:     models.RoleOwner,
			JoinedAt: now,
		})
		if err != nil {
			return fmt.Errorf("add owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("group created", zap.Int64("group_id", group.ID), zap.Int64("user_id", userID))
	s.invalidate(group.ID)
	return group, nil
}

// UpdateGroup overwrites a group's name, description and visibility. Owner only.
func (s *GroupService) UpdateGroup(ctx context.Context, ownerID, groupID int64, in models.GroupInput) (*models.Group, error) {
	in, err := normalizeGroupInput(in)
	if err != nil {
		return nil, err
	}

	group, err := loadOwnedGroup(ctx, s.store, groupID, ownerID)
	if err != nil {
		return nil, err
	}

	group.Name = in.Name
	group.Description = in.Description
	group.Visibility = in.Visibility
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("group not found")
		}
		return nil, fmt.Errorf("update group: %w", err)
	}

	s.log.Info("group updated", zap.Int64("group_id", groupID), zap.Int64("user_id", ownerID))
	s.invalidate(groupID)
	return group, nil
}

// DeleteGroupCascade deletes a group and everything that references it. Owner only.
func (s *GroupService) DeleteGroupCascade(ctx context.Context, ownerID, groupID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := loadOwnedGroup(ctx, tx, groupID, ownerID); err != nil {
			return err
		}
		return deleteGroupRows(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}

	s.log.Info("group deleted", zap.Int64("group_id", groupID), zap.Int64("user_id", ownerID))
	s.invalidate(groupID)
	return nil
}

// deleteGroupRows removes comments, favorites, join requests, memberships
// and finally the group row, in that order.
func deleteGroupRows(ctx context.Context, tx repository.Store, groupID int64) error {
	steps := []struct {
		what string
		fn   func(context.Context, int64) error
	}{
		{"comments", tx.DeleteCommentsByGroup},
		{"favorites", tx.DeleteFavoritesByGroup},
		{"join requests", tx.DeleteJoinRequestsByGroup},
		{"members", tx.DeleteMembersByGroup},
		{"group", tx.DeleteGroup},
	}
	for _, step := range steps {
		if err := step.fn(ctx, groupID); err != nil {
			return fmt.Errorf("delete %s of group %d: %w", step.what, groupID, err)
		}
	}
	return nil
}
