package repository

import (
	"context"
	"errors"
	"time"

	"filmclub/server/internal/models"

	"github.com/jackc/pgx/v5"
)

const joinRequestColumns = `id, group_id, user_id, status, created_at, resolved_at, resolved_by_id`

func scanJoinRequest(row pgx.Row) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := row.Scan(&r.ID, &r.GroupID, &r.UserID, &r.Status, &r.CreatedAt, &r.ResolvedAt, &r.ResolvedByID)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// GetJoinRequest retrieves a join request by ID.
func (s *PgStore) GetJoinRequest(ctx context.Context, id int64) (*models.JoinRequest, error) {
	return scanJoinRequest(s.q.QueryRow(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests WHERE id = $1`, id))
}

// FindJoinRequest retrieves the join request for a (group, user) pair.
func (s *PgStore) FindJoinRequest(ctx context.Context, groupID, userID int64) (*models.JoinRequest, error) {
	return scanJoinRequest(s.q.QueryRow(ctx,
		`SELECT `+joinRequestColumns+` FROM group_join_requests WHERE group_id = $1 AND user_id = $2`,
		groupID, userID))
}

// CreateJoinRequest inserts a request unless one already exists for the pair.
// It reports whether a row was inserted; on insert req.ID is populated.
func (s *PgStore) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) (bool, error) {
	query := `
		INSERT INTO group_join_requests (group_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
		RETURNING id
	`

	err := s.q.QueryRow(ctx, query, req.GroupID, req.UserID, req.Status, req.CreatedAt).Scan(&req.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReopenJoinRequest puts a resolved request back to pending and clears its resolution.
func (s *PgStore) ReopenJoinRequest(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE group_join_requests
		SET status = 'pending', created_at = $1, resolved_at = NULL, resolved_by_id = NULL
		WHERE id = $2
	`

	_, err := s.q.Exec(ctx, query, at, id)
	return err
}

// ResolveJoinRequest stamps a request as approved or rejected.
func (s *PgStore) ResolveJoinRequest(ctx context.Context, id int64, status models.JoinRequestStatus, at time.Time, resolvedBy int64) error {
	query := `
		UPDATE group_join_requests
		SET status = $1, resolved_at = $2, resolved_by_id = $3
		WHERE id = $4
	`

	_, err := s.q.Exec(ctx, query, status, at, resolvedBy, id)
	return err
}

// ApproveJoinRequestFor marks the request of a (group, user) pair approved, if any exists.
func (s *PgStore) ApproveJoinRequestFor(ctx context.Context, groupID, userID int64, at time.Time, resolvedBy int64) error {
	query := `
		UPDATE group_join_requests
		SET status = 'approved', resolved_at = $1, resolved_by_id = $2
		WHERE group_id = $3 AND user_id = $4
	`

	_, err := s.q.Exec(ctx, query, at, resolvedBy, groupID, userID)
	return err
}

// DeleteJoinRequest deletes the request of a (group, user) pair.
func (s *PgStore) DeleteJoinRequest(ctx context.Context, groupID, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_join_requests WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

// DeleteJoinRequestsByGroup deletes all requests of a group.
func (s *PgStore) DeleteJoinRequestsByGroup(ctx context.Context, groupID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_join_requests WHERE group_id = $1`, groupID)
	return err
}

// ListPendingJoinRequests returns a group's pending requests, newest first.
func (s *PgStore) ListPendingJoinRequests(ctx context.Context, groupID int64) ([]models.JoinRequestSummary, error) {
	query := `
		SELECT jr.id, jr.user_id, u.name, u.email, jr.created_at
		FROM group_join_requests jr
		LEFT JOIN users u ON u.id = jr.user_id
		WHERE jr.group_id = $1 AND jr.status = 'pending'
		ORDER BY jr.created_at DESC
	`

	rows, err := s.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.JoinRequestSummary{}
	for rows.Next() {
		var r models.JoinRequestSummary
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.UserEmail, &r.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
