// Package testutil provides an in-memory repository.Store and fixtures for
// service and handler tests.
//
// MemStore enforces the same unique constraints as the SQL schema, so
// conflict-safe inserts report duplicates the way PostgreSQL does.
package testutil

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"
)

type pairKey struct {
	groupID int64
	userID  int64
}

type favoriteKey struct {
	groupID int64
	userID  int64
	symbol  string
}

type state struct {
	users     map[int64]models.User
	movies    map[int64]models.Movie
	groups    map[int64]models.Group
	members   map[pairKey]models.GroupMember
	requests  map[int64]models.JoinRequest
	favorites map[int64]models.Favorite
	comments  map[int64]models.FavoriteComment
	seq       int64
}

func (st *state) clone() *state {
	return &state{
		users:     maps.Clone(st.users),
		movies:    maps.Clone(st.movies),
		groups:    maps.Clone(st.groups),
		members:   maps.Clone(st.members),
		requests:  maps.Clone(st.requests),
		favorites: maps.Clone(st.favorites),
		comments:  maps.Clone(st.comments),
		seq:       st.seq,
	}
}

// MemStore is an in-memory repository.Store.
type MemStore struct {
	mu    sync.Mutex
	st    *state
	fails map[string]error
	inTx  bool
}

var _ repository.Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		st: &state{
			users:     map[int64]models.User{},
			movies:    map[int64]models.Movie{},
			groups:    map[int64]models.Group{},
			members:   map[pairKey]models.GroupMember{},
			requests:  map[int64]models.JoinRequest{},
			favorites: map[int64]models.Favorite{},
			comments:  map[int64]models.FavoriteComment{},
		},
		fails: map[string]error{},
	}
}

// FailOn makes the named store method return err until cleared with a nil err.
func (s *MemStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, method)
		return
	}
	s.fails[method] = err
}

func (s *MemStore) lock(method string) error {
	s.mu.Lock()
	if err := s.fails[method]; err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemStore) nextID() int64 {
	s.st.seq++
	return s.st.seq
}

// WithinTx snapshots the state and restores it if fn fails.
// Nested calls run inside the outer snapshot.
func (s *MemStore) WithinTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	s.mu.Lock()
	if s.inTx {
		s.mu.Unlock()
		return fn(s)
	}
	snapshot := s.st.clone()
	s.inTx = true
	s.mu.Unlock()

	defer func() {
		p := recover()
		s.mu.Lock()
		if p != nil || err != nil {
			s.st = snapshot
		}
		s.inTx = false
		s.mu.Unlock()
		if p != nil {
			panic(p)
		}
	}()

	return fn(s)
}

// Users

func (s *MemStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if err := s.lock("GetUser"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	u, ok := s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.lock("FindUserByEmail"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	for _, u := range s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStore) InsertUserIfMissing(ctx context.Context, user *models.User) (bool, error) {
	if err := s.lock("InsertUserIfMissing"); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	for _, u := range s.st.users {
		if u.Email == user.Email {
			return false, nil
		}
	}
	user.ID = s.nextID()
	s.st.users[user.ID] = *user
	return true, nil
}

// Movies

func (s *MemStore) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	if err := s.lock("GetMovie"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	m, ok := s.st.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *MemStore) ListMovieOptions(ctx context.Context, limit int) ([]models.MovieOption, error) {
	if err := s.lock("ListMovieOptions"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	options := []models.MovieOption{}
	for _, m := range s.st.movies {
		options = append(options, models.MovieOption{ID: m.ID, Title: m.Title, Year: m.Year})
	}
	slices.SortFunc(options, func(a, b models.MovieOption) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	if len(options) > limit {
		options = options[:limit]
	}
	return options, nil
}

// Groups

func (s *MemStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := s.lock("CreateGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	group.ID = s.nextID()
	stored := *group
	stored.OwnerName = nil
	s.st.groups[group.ID] = stored
	return nil
}

func (s *MemStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	if err := s.lock("GetGroup"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	g, ok := s.st.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	g.OwnerName = s.userName(g.OwnerID)
	return &g, nil
}

func (s *MemStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	if err := s.lock("UpdateGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	g, ok := s.st.groups[group.ID]
	if !ok {
		return repository.ErrNotFound
	}
	g.Name = group.Name
	g.Description = group.Description
	g.Visibility = group.Visibility
	s.st.groups[group.ID] = g
	return nil
}

func (s *MemStore) DeleteGroup(ctx context.Context, id int64) error {
	if err := s.lock("DeleteGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	delete(s.st.groups, id)
	return nil
}

func (s *MemStore) ListGroupsForViewer(ctx context.Context, viewerID int64) ([]models.GroupListItem, error) {
	if err := s.lock("ListGroupsForViewer"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	groups := slices.Collect(maps.Values(s.st.groups))
	slices.SortFunc(groups, func(a, b models.Group) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})

	items := []models.GroupListItem{}
	for _, g := range groups {
		item := models.GroupListItem{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			Visibility:  g.Visibility,
			OwnerID:     g.OwnerID,
			OwnerName:   s.userName(g.OwnerID),
			IsOwner:     g.OwnerID == viewerID,
		}
		if m, ok := s.st.members[pairKey{g.ID, viewerID}]; ok {
			item.IsMember = true
			item.IsOwner = item.IsOwner || m.Role == models.RoleOwner
		}
		if r := s.findRequest(g.ID, viewerID); r != nil {
			status := r.Status
			item.JoinRequestStatus = &status
		}
		items = append(items, item)
	}
	return items, nil
}

// Members

func (s *MemStore) AddMember(ctx context.Context, member *models.GroupMember) (bool, error) {
	if err := s.lock("AddMember"); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	key := pairKey{member.GroupID, member.UserID}
	if _, ok := s.st.members[key]; ok {
		return false, nil
	}
	s.st.members[key] = *member
	return true, nil
}

func (s *MemStore) GetMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	if err := s.lock("GetMember"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	m, ok := s.st.members[pairKey{groupID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *MemStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	if err := s.lock("RemoveMember"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	delete(s.st.members, pairKey{groupID, userID})
	return nil
}

func (s *MemStore) DeleteMembersByGroup(ctx context.Context, groupID int64) error {
	if err := s.lock("DeleteMembersByGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.members, func(k pairKey, _ models.GroupMember) bool { return k.groupID == groupID })
	return nil
}

func (s *MemStore) ListMembers(ctx context.Context, groupID int64) ([]models.MemberSummary, error) {
	if err := s.lock("ListMembers"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	members := []models.MemberSummary{}
	for k, m := range s.st.members {
		if k.groupID != groupID {
			continue
		}
		summary := models.MemberSummary{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if u, ok := s.st.users[m.UserID]; ok {
			summary.UserName = &u.Name
			summary.UserEmail = &u.Email
			summary.UserImage = u.Image
		}
		members = append(members, summary)
	}
	slices.SortFunc(members, func(a, b models.MemberSummary) int {
		return cmp.Or(b.JoinedAt.Compare(a.JoinedAt), cmp.Compare(a.UserID, b.UserID))
	})
	return members, nil
}

// Join requests

func (s *MemStore) findRequest(groupID, userID int64) *models.JoinRequest {
	for _, r := range s.st.requests {
		if r.GroupID == groupID && r.UserID == userID {
			return &r
		}
	}
	return nil
}

func (s *MemStore) GetJoinRequest(ctx context.Context, id int64) (*models.JoinRequest, error) {
	if err := s.lock("GetJoinRequest"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	r, ok := s.st.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *MemStore) FindJoinRequest(ctx context.Context, groupID, userID int64) (*models.JoinRequest, error) {
	if err := s.lock("FindJoinRequest"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if r := s.findRequest(groupID, userID); r != nil {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (s *MemStore) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) (bool, error) {
	if err := s.lock("CreateJoinRequest"); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if s.findRequest(req.GroupID, req.UserID) != nil {
		return false, nil
	}
	req.ID = s.nextID()
	s.st.requests[req.ID] = *req
	return true, nil
}

func (s *MemStore) ReopenJoinRequest(ctx context.Context, id int64, at time.Time) error {
	if err := s.lock("ReopenJoinRequest"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if r, ok := s.st.requests[id]; ok {
		r.Status = models.JoinRequestPending
		r.CreatedAt = at
		r.ResolvedAt = nil
		r.ResolvedByID = nil
		s.st.requests[id] = r
	}
	return nil
}

func (s *MemStore) ResolveJoinRequest(ctx context.Context, id int64, status models.JoinRequestStatus, at time.Time, resolvedBy int64) error {
	if err := s.lock("ResolveJoinRequest"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if r, ok := s.st.requests[id]; ok {
		r.Status = status
		r.ResolvedAt = &at
		r.ResolvedByID = &resolvedBy
		s.st.requests[id] = r
	}
	return nil
}

func (s *MemStore) ApproveJoinRequestFor(ctx context.Context, groupID, userID int64, at time.Time, resolvedBy int64) error {
	if err := s.lock("ApproveJoinRequestFor"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if r := s.findRequest(groupID, userID); r != nil {
		r.Status = models.JoinRequestApproved
		r.ResolvedAt = &at
		r.ResolvedByID = &resolvedBy
		s.st.requests[r.ID] = *r
	}
	return nil
}

func (s *MemStore) DeleteJoinRequest(ctx context.Context, groupID, userID int64) error {
	if err := s.lock("DeleteJoinRequest"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.requests, func(_ int64, r models.JoinRequest) bool {
		return r.GroupID == groupID && r.UserID == userID
	})
	return nil
}

func (s *MemStore) DeleteJoinRequestsByGroup(ctx context.Context, groupID int64) error {
	if err := s.lock("DeleteJoinRequestsByGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.requests, func(_ int64, r models.JoinRequest) bool { return r.GroupID == groupID })
	return nil
}

func (s *MemStore) ListPendingJoinRequests(ctx context.Context, groupID int64) ([]models.JoinRequestSummary, error) {
	if err := s.lock("ListPendingJoinRequests"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	requests := []models.JoinRequestSummary{}
	for _, r := range s.st.requests {
		if r.GroupID != groupID || r.Status != models.JoinRequestPending {
			continue
		}
		summary := models.JoinRequestSummary{ID: r.ID, UserID: r.UserID, CreatedAt: r.CreatedAt}
		if u, ok := s.st.users[r.UserID]; ok {
			summary.UserName = &u.Name
			summary.UserEmail = &u.Email
		}
		requests = append(requests, summary)
	}
	slices.SortFunc(requests, func(a, b models.JoinRequestSummary) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return requests, nil
}

// Favorites and comments

func (s *MemStore) InsertFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	if err := s.lock("InsertFavorite"); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	key := favoriteKey{fav.GroupID, fav.UserID, fav.ItemSymbol}
	for _, f := range s.st.favorites {
		if (favoriteKey{f.GroupID, f.UserID, f.ItemSymbol}) == key {
			return false, nil
		}
	}
	fav.ID = s.nextID()
	s.st.favorites[fav.ID] = *fav
	return true, nil
}

func (s *MemStore) GetFavorite(ctx context.Context, id int64) (*models.Favorite, error) {
	if err := s.lock("GetFavorite"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	f, ok := s.st.favorites[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (s *MemStore) DeleteFavorite(ctx context.Context, id int64) error {
	if err := s.lock("DeleteFavorite"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	delete(s.st.favorites, id)
	return nil
}

func (s *MemStore) DeleteFavoritesByGroup(ctx context.Context, groupID int64) error {
	if err := s.lock("DeleteFavoritesByGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.favorites, func(_ int64, f models.Favorite) bool { return f.GroupID == groupID })
	return nil
}

func (s *MemStore) DeleteFavoritesByMember(ctx context.Context, groupID, userID int64) error {
	if err := s.lock("DeleteFavoritesByMember"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.favorites, func(_ int64, f models.Favorite) bool {
		return f.GroupID == groupID && f.UserID == userID
	})
	return nil
}

func (s *MemStore) ListFavorites(ctx context.Context, groupID int64) ([]models.FavoriteSummary, error) {
	if err := s.lock("ListFavorites"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	favorites := []models.FavoriteSummary{}
	for _, f := range s.st.favorites {
		if f.GroupID != groupID {
			continue
		}
		summary := models.FavoriteSummary{
			ID:        f.ID,
			Title:     f.Title,
			Comment:   f.Comment,
			CreatedAt: f.CreatedAt,
			UserID:    f.UserID,
			Comments:  []models.CommentSummary{},
		}
		if u, ok := s.st.users[f.UserID]; ok {
			summary.UserName = &u.Name
			summary.UserImage = u.Image
		}
		favorites = append(favorites, summary)
	}
	slices.SortFunc(favorites, func(a, b models.FavoriteSummary) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return favorites, nil
}

func (s *MemStore) InsertComment(ctx context.Context, comment *models.FavoriteComment) error {
	if err := s.lock("InsertComment"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	comment.ID = s.nextID()
	s.st.comments[comment.ID] = *comment
	return nil
}

func (s *MemStore) DeleteCommentsByFavorite(ctx context.Context, favoriteID int64) error {
	if err := s.lock("DeleteCommentsByFavorite"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.comments, func(_ int64, c models.FavoriteComment) bool { return c.FavoriteID == favoriteID })
	return nil
}

func (s *MemStore) DeleteCommentsByGroup(ctx context.Context, groupID int64) error {
	if err := s.lock("DeleteCommentsByGroup"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.comments, func(_ int64, c models.FavoriteComment) bool {
		f, ok := s.st.favorites[c.FavoriteID]
		return ok && f.GroupID == groupID
	})
	return nil
}

func (s *MemStore) DeleteCommentsByMember(ctx context.Context, groupID, userID int64) error {
	if err := s.lock("DeleteCommentsByMember"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	maps.DeleteFunc(s.st.comments, func(_ int64, c models.FavoriteComment) bool {
		f, ok := s.st.favorites[c.FavoriteID]
		return ok && f.GroupID == groupID && f.UserID == userID
	})
	return nil
}

func (s *MemStore) ListComments(ctx context.Context, favoriteIDs []int64) ([]models.CommentSummary, error) {
	if err := s.lock("ListComments"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	comments := []models.CommentSummary{}
	for _, c := range s.st.comments {
		if !slices.Contains(favoriteIDs, c.FavoriteID) {
			continue
		}
		summary := models.CommentSummary{
			ID:         c.ID,
			FavoriteID: c.FavoriteID,
			Comment:    c.Comment,
			CreatedAt:  c.CreatedAt,
			UserID:     c.UserID,
		}
		if u, ok := s.st.users[c.UserID]; ok {
			summary.UserName = &u.Name
			summary.UserImage = u.Image
		}
		comments = append(comments, summary)
	}
	slices.SortFunc(comments, func(a, b models.CommentSummary) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return comments, nil
}

func (s *MemStore) userName(id int64) *string {
	if u, ok := s.st.users[id]; ok {
		name := u.Name
		return &name
	}
	return nil
}
