package services

import (
	"context"
	"errors"
	"fmt"

	"filmclub/server/internal/apperror"
	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"

	"go.uber.org/zap"
)

// JoinPublicGroup makes userID a member of a public group.
// Repeat calls are no-ops. A leftover join request is marked approved.
func (s *GroupService) JoinPublicGroup(ctx context.Context, userID, groupID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		group, err := loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group.Visibility != models.VisibilityPublic {
			return apperror.InvalidVisibility("not a public group")
		}

		now := s.now()
		_, err = tx.AddMember(ctx, &models.GroupMember{
			GroupID:  groupID,
			UserID:   userID,
			Role:     models.RoleMember,
			JoinedAt: now,
		})
		if err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		if err := tx.ApproveJoinRequestFor(ctx, groupID, userID, now, group.OwnerID); err != nil {
			return fmt.Errorf("approve join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("joined public group", zap.Int64("group_id", groupID), zap.Int64("user_id", userID))
	s.invalidate(groupID)
	return nil
}

// RequestJoinPrivateGroup files or reopens a join request for a private group.
// It returns the request status, or nil when userID is already a member.
func (s *GroupService) RequestJoinPrivateGroup(ctx context.Context, userID, groupID int64) (*models.JoinRequestStatus, error) {
	var status *models.JoinRequestStatus

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		group, err := loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if group.Visibility != models.VisibilityPrivate {
			return apperror.InvalidVisibility("not a private group")
		}

		member, err := findMember(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if member != nil {
			return nil
		}

		pending := models.JoinRequestPending
		status = &pending
		now := s.now()

		existing, err := tx.FindJoinRequest(ctx, groupID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			_, err := tx.CreateJoinRequest(ctx, &models.JoinRequest{
				GroupID:   groupID,
				UserID:    userID,
				Status:    models.JoinRequestPending,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("create join request: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find join request: %w", err)
		case existing.Status != models.JoinRequestPending:
			if err := tx.ReopenJoinRequest(ctx, existing.ID, now); err != nil {
				return fmt.Errorf("reopen join request: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status != nil {
		s.log.Info("join requested", zap.Int64("group_id", groupID), zap.Int64("user_id", userID))
		s.invalidate(groupID)
	}
	return status, nil
}

// ResolveJoinRequest approves or rejects a join request. Owner only.
// Approval adds the requester as a member.
func (s *GroupService) ResolveJoinRequest(ctx context.Context, ownerID, requestID int64, approve bool) error {
	var groupID int64

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		req, err := tx.GetJoinRequest(ctx, requestID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("join request not found")
		}
		if err != nil {
			return fmt.Errorf("get join request: %w", err)
		}
		groupID = req.GroupID

		if _, err := loadOwnedGroup(ctx, tx, req.GroupID, ownerID); err != nil {
			return err
		}

		status := models.JoinRequestRejected
		if approve {
			status = models.JoinRequestApproved
		}
		now := s.now()
		if err := tx.ResolveJoinRequest(ctx, requestID, status, now, ownerID); err != nil {
			return fmt.Errorf("resolve join request: %w", err)
		}
		if !approve {
			return nil
		}

		_, err = tx.AddMember(ctx, &models.GroupMember{
			GroupID:  req.GroupID,
			UserID:   req.UserID,
			Role:     models.RoleMember,
			JoinedAt: now,
		})
		if err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("join request resolved",
		zap.Int64("group_id", groupID),
		zap.Int64("request_id", requestID),
		zap.Bool("approved", approve),
	)
	s.invalidate(groupID)
	return nil
}

// InviteUserByEmailToPrivateGroup adds an existing user to a private group.
// Owner only. The invitee must have signed in before.
func (s *GroupService) InviteUserByEmailToPrivateGroup(ctx context.Context, ownerID, groupID int64, email string) error {
	var inviteeID int64

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		group, err := loadOwnedGroup(ctx, tx, groupID, ownerID)
		if err != nil {
			return err
		}
		if group.Visibility != models.VisibilityPrivate {
			return apperror.InvalidVisibility("invites are only for private groups")
		}

		invitee, err := tx.FindUserByEmail(ctx, NormalizeEmail(email))
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user with this email does not exist yet")
		}
		if err != nil {
			return fmt.Errorf("find invitee: %w", err)
		}
		inviteeID = invitee.ID

		now := s.now()
		_, err = tx.AddMember(ctx, &models.GroupMember{
			GroupID:  groupID,
			UserID:   invitee.ID,
			Role:     models.RoleMember,
			JoinedAt: now,
		})
		if err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		if err := tx.ApproveJoinRequestFor(ctx, groupID, invitee.ID, now, ownerID); err != nil {
			return fmt.Errorf("approve join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("user invited", zap.Int64("group_id", groupID), zap.Int64("user_id", inviteeID))
	s.invalidate(groupID)
	return nil
}

// KickGroupMember removes a non-owner member and their join request. Owner only.
func (s *GroupService) KickGroupMember(ctx context.Context, ownerID, groupID, memberUserID int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		group, err := loadOwnedGroup(ctx, tx, groupID, ownerID)
		if err != nil {
			return err
		}
		if memberUserID == group.OwnerID {
			return apperror.CannotKickOwner()
		}

		if err := tx.RemoveMember(ctx, groupID, memberUserID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		if err := tx.DeleteJoinRequest(ctx, groupID, memberUserID); err != nil {
			return fmt.Errorf("delete join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("member kicked", zap.Int64("group_id", groupID), zap.Int64("user_id", memberUserID))
	s.invalidate(groupID)
	return nil
}

// LeaveGroup removes userID from a group together with their favorites and
// join request. When the owner leaves, the whole group is deleted.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID int64) (models.LeaveResult, error) {
	var result models.LeaveResult

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		group, err := loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		member, err := findMember(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperror.Forbidden("not a member")
		}

		if group.OwnerID == userID || member.Role == models.RoleOwner {
			result = models.LeaveDeleted
			return deleteGroupRows(ctx, tx, groupID)
		}

		result = models.LeaveLeft
		if err := tx.DeleteCommentsByMember(ctx, groupID, userID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.DeleteFavoritesByMember(ctx, groupID, userID); err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := tx.RemoveMember(ctx, groupID, userID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		if err := tx.DeleteJoinRequest(ctx, groupID, userID); err != nil {
			return fmt.Errorf("delete join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("left group",
		zap.Int64("group_id", groupID),
		zap.Int64("user_id", userID),
		zap.String("result", string(result)),
	)
	s.invalidate(groupID)
	return result, nil
}
