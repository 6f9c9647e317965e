package testutil

import (
	"slices"
	"sync"
	"testing"

	"filmclub/server/internal/models"
)

// CreateUser stores a user and returns it with its generated ID.
func (s *MemStore) CreateUser(t *testing.T, name, email string) models.User {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	u := models.User{ID: s.nextID(), Name: name, Email: email}
	s.st.users[u.ID] = u
	return u
}

// CreateMovie stores a catalog movie under the given ID.
func (s *MemStore) CreateMovie(t *testing.T, id int64, title string, year int32) models.Movie {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Movie{ID: id, Title: title, Year: &year}
	s.st.movies[id] = m
	return m
}

// Members returns the membership rows of a group.
func (s *MemStore) Members(groupID int64) []models.GroupMember {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.GroupMember
	for k, m := range s.st.members {
		if k.groupID == groupID {
			out = append(out, m)
		}
	}
	return out
}

// JoinRequests returns the join request rows of a group.
func (s *MemStore) JoinRequests(groupID int64) []models.JoinRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.JoinRequest
	for _, r := range s.st.requests {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out
}

// Favorites returns the favorite rows of a group.
func (s *MemStore) Favorites(groupID int64) []models.Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Favorite
	for _, f := range s.st.favorites {
		if f.GroupID == groupID {
			out = append(out, f)
		}
	}
	return out
}

// CommentsOn returns the comment rows of a favorite.
func (s *MemStore) CommentsOn(favoriteID int64) []models.FavoriteComment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.FavoriteComment
	for _, c := range s.st.comments {
		if c.FavoriteID == favoriteID {
			out = append(out, c)
		}
	}
	return out
}

// CommentCount returns the total number of stored comments.
func (s *MemStore) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.comments)
}

// Invalidations records invalidated view names.
type Invalidations struct {
	mu    sync.Mutex
	views []string
}

// Invalidate implements services.Invalidator.
func (r *Invalidations) Invalidate(views ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, views...)
}

// Views returns the views invalidated so far.
func (r *Invalidations) Views() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.views)
}

// Reset forgets recorded views.
func (r *Invalidations) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = nil
}
