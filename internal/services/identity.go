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

// IdentityService maps externally authenticated principals to user IDs.
type IdentityService struct {
	store repository.UserStore
	log   *zap.Logger
}

// NewIdentityService creates an IdentityService.
func NewIdentityService(store repository.UserStore, log *zap.Logger) *IdentityService {
	return &IdentityService{store: store, log: log}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveUserID returns the ID of the user with the given email.
// Unknown or empty emails are Unauthenticated.
func (s *IdentityService) ResolveUserID(ctx context.Context, email string) (int64, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return 0, apperror.Unauthenticated("not signed in")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, apperror.Unauthenticated("unknown user")
	}
	if err != nil {
		return 0, fmt.Errorf("resolve user: %w", err)
	}
	return user.ID, nil
}

// EnsureUser provisions the user row on first sign-in and returns its ID.
// Known users are a read; existing rows are left untouched.
func (s *IdentityService) EnsureUser(ctx context.Context, p models.Principal) (int64, error) {
	email := NormalizeEmail(p.Email)
	if email == "" {
		return 0, apperror.Unauthenticated("not signed in")
	}

	existing, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("find user: %w", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}
	user := &models.User{Name: name, Email: email}
	if img := strings.TrimSpace(p.Image); img != "" {
		user.Image = &img
	}

	inserted, err := s.store.InsertUserIfMissing(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("provision user: %w", err)
	}
	if inserted {
		s.log.Info("user provisioned", zap.Int64("user_id", user.ID))
		return user.ID, nil
	}
	return s.ResolveUserID(ctx, email)
}

// GetUser returns the user with the given ID.
func (s *IdentityService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
