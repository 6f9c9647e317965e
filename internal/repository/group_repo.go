package repository

import (
	"context"

	"filmclub/server/internal/models"
)

// CreateGroup inserts a group and populates group.ID.
func (s *PgStore) CreateGroup(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO groups (owner_id, name, description, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return s.q.QueryRow(ctx, query,
		group.OwnerID, group.Name, group.Description, group.Visibility, group.CreatedAt,
	).Scan(&group.ID)
}

// GetGroup retrieves a group with its owner's name.
func (s *PgStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	query := `
		SELECT g.id, g.owner_id, g.name, g.description, g.visibility, g.created_at, u.name
		FROM groups g
		LEFT JOIN users u ON u.id = g.owner_id
		WHERE g.id = $1
	`

	var g models.Group
	err := s.q.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.OwnerID, &g.Name, &g.Description, &g.Visibility, &g.CreatedAt, &g.OwnerName,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// UpdateGroup overwrites the editable fields of a group.
func (s *PgStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	query := `
		UPDATE groups
		SET name = $1, description = $2, visibility = $3
		WHERE id = $4
	`

	tag, err := s.q.Exec(ctx, query, group.Name, group.Description, group.Visibility, group.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup removes the group row only. Dependent rows must be deleted first.
func (s *PgStore) DeleteGroup(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return err
}

// ListGroupsForViewer returns every group, newest first, annotated with the
// viewer's membership role and join request status in a single query.
func (s *PgStore) ListGroupsForViewer(ctx context.Context, viewerID int64) ([]models.GroupListItem, error) {
	query := `
		SELECT g.id, g.name, g.description, g.visibility, g.owner_id, u.name, gm.role, jr.status
		FROM groups g
		LEFT JOIN users u ON u.id = g.owner_id
		LEFT JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		LEFT JOIN group_join_requests jr ON jr.group_id = g.id AND jr.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
	`

	rows, err := s.q.Query(ctx, query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.GroupListItem{}
	for rows.Next() {
		var item models.GroupListItem
		var role *models.Role
		err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Visibility,
			&item.OwnerID, &item.OwnerName, &role, &item.JoinRequestStatus,
		)
		if err != nil {
			return nil, err
		}

		item.IsMember = role != nil
		item.IsOwner = (role != nil && *role == models.RoleOwner) || item.OwnerID == viewerID
		items = append(items, item)
	}
	return items, rows.Err()
}
