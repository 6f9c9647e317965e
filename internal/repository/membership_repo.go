package repository

import (
	"context"

	"filmclub/server/internal/models"
)

// AddMember inserts a membership. Repeated calls are no-ops.
// It reports whether a new row was inserted.
func (s *PgStore) AddMember(ctx context.Context, member *models.GroupMember) (bool, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, query, member.GroupID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetMember returns the membership row for a (group, user) pair.
func (s *PgStore) GetMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	var m models.GroupMember
	err := s.q.QueryRow(ctx, query, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// RemoveMember deletes one membership.
func (s *PgStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	return err
}

// DeleteMembersByGroup deletes all memberships of a group.
func (s *PgStore) DeleteMembersByGroup(ctx context.Context, groupID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID)
	return err
}

// ListMembers returns a group's members, most recently joined first.
func (s *PgStore) ListMembers(ctx context.Context, groupID int64) ([]models.MemberSummary, error) {
	query := `
		SELECT gm.user_id, u.name, u.email, u.image, gm.role, gm.joined_at
		FROM group_members gm
		LEFT JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at DESC
	`

	rows, err := s.q.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.MemberSummary{}
	for rows.Next() {
		var m models.MemberSummary
		if err := rows.Scan(&m.UserID, &m.UserName, &m.UserEmail, &m.UserImage, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
