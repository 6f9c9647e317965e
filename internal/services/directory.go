package services

import (
	"context"
	"errors"
	"fmt"

	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"
)

// MovieOptionLimit caps the movie picker offered to members.
const MovieOptionLimit = 500

// GetGroupsOverview lists every group annotated for the viewer and the
// subset the viewer belongs to. Both come from the same query result.
func (s *GroupService) GetGroupsOverview(ctx context.Context, userID int64) (*models.GroupsOverview, error) {
	all, err := s.store.ListGroupsForViewer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	mine := make([]models.GroupListItem, 0, len(all))
	for _, g := range all {
		if g.IsMember {
			mine = append(mine, g)
		}
	}
	return &models.GroupsOverview{MyGroups: mine, AllGroups: all}, nil
}

// GetGroupDetail returns the viewer-gated detail of a group, or nil when it
// does not exist. Content is filled only for members and moderation lists
// only for the owner.
func (s *GroupService) GetGroupDetail(ctx context.Context, userID, groupID int64) (*models.GroupDetail, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	member, err := findMember(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, err
	}

	me := models.GroupViewer{
		UserID:   userID,
		IsMember: member != nil,
		IsOwner:  group.OwnerID == userID || (member != nil && member.Role == models.RoleOwner),
	}
	req, err := s.store.FindJoinRequest(ctx, groupID, userID)
	switch {
	case err == nil:
		status := req.Status
		me.JoinRequestStatus = &status
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find join request: %w", err)
	}

	detail := &models.GroupDetail{
		Group:           *group,
		Me:              me,
		CanSeeContent:   me.IsMember,
		MovieOptions:    []models.MovieOption{},
		Favorites:       []models.FavoriteSummary{},
		PendingRequests: []models.JoinRequestSummary{},
		Members:         []models.MemberSummary{},
	}

	if detail.CanSeeContent {
		if detail.MovieOptions, err = s.store.ListMovieOptions(ctx, MovieOptionLimit); err != nil {
			return nil, fmt.Errorf("list movie options: %w", err)
		}
		if detail.Favorites, err = s.loadFavorites(ctx, groupID); err != nil {
			return nil, err
		}
	}

	if me.IsOwner {
		if detail.PendingRequests, err = s.store.ListPendingJoinRequests(ctx, groupID); err != nil {
			return nil, fmt.Errorf("list join requests: %w", err)
		}
		if detail.Members, err = s.store.ListMembers(ctx, groupID); err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
	}

	return detail, nil
}

// loadFavorites returns a group's favorites with their comments attached.
func (s *GroupService) loadFavorites(ctx context.Context, groupID int64) ([]models.FavoriteSummary, error) {
	favorites, err := s.store.ListFavorites(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if len(favorites) == 0 {
		return favorites, nil
	}

	ids := make([]int64, len(favorites))
	for i, f := range favorites {
		ids[i] = f.ID
	}
	comments, err := s.store.ListComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	byFavorite := make(map[int64][]models.CommentSummary, len(favorites))
	for _, c := range comments {
		byFavorite[c.FavoriteID] = append(byFavorite[c.FavoriteID], c)
	}
	for i := range favorites {
		if cs, ok := byFavorite[favorites[i].ID]; ok {
			favorites[i].Comments = cs
		} else {
			favorites[i].Comments = []models.CommentSummary{}
		}
	}
	return favorites, nil
}
