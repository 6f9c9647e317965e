// Repository tests use pgxmock v4 in place of the pool.
package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"filmclub/server/internal/models"
	"filmclub/server/internal/repository"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *repository.PgStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, repository.NewPgStore(mock)
}

func TestGetUser_NotFound(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("SELECT id, name, email, image, description FROM users WHERE id").
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "image", "description"}))

	user, err := store.GetUser(context.Background(), 9)

	assert.Nil(t, user)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "image", "description"}).
			AddRow(int64(3), "Ana", "ana@example.com", ptr("a.png"), (*string)(nil)))

	user, err := store.FindUserByEmail(context.Background(), "ana@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "a.png", *user.Image)
	assert.Nil(t, user.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUserIfMissing(t *testing.T) {
	tests := []struct {
		name     string
		rows     *pgxmock.Rows
		inserted bool
		wantID   int64
	}{
		{
			name:     "new email inserts",
			rows:     pgxmock.NewRows([]string{"id"}).AddRow(int64(12)),
			inserted: true,
			wantID:   12,
		},
		{
			name:     "existing email is a no-op",
			rows:     pgxmock.NewRows([]string{"id"}),
			inserted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMock(t)

			mock.ExpectQuery("INSERT INTO users (.+) ON CONFLICT \\(email\\) DO NOTHING").
				WithArgs("Ana", "ana@example.com", (*string)(nil)).
				WillReturnRows(tt.rows)

			user := &models.User{Name: "Ana", Email: "ana@example.com"}
			inserted, err := store.InsertUserIfMissing(context.Background(), user)

			require.NoError(t, err)
			assert.Equal(t, tt.inserted, inserted)
			assert.Equal(t, tt.wantID, user.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListMovieOptions(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("SELECT id, title, year FROM movies ORDER BY title ASC LIMIT").
		WithArgs(500).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "year"}).
			AddRow(int64(42), "Alien", ptr(int32(1979))).
			AddRow(int64(7), "Brazil", (*int32)(nil)))

	movies, err := store.ListMovieOptions(context.Background(), 500)

	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, int32(1979), *movies[0].Year)
	assert.Nil(t, movies[1].Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGroup(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("INSERT INTO groups").
		WithArgs(int64(1), "Noir Club", (*string)(nil), models.VisibilityPrivate, testTime).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))

	group := &models.Group{OwnerID: 1, Name: "Noir Club", Visibility: models.VisibilityPrivate, CreatedAt: testTime}
	err := store.CreateGroup(context.Background(), group)

	require.NoError(t, err)
	assert.Equal(t, int64(5), group.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGroup_Missing(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec("UPDATE groups").
		WithArgs("x", (*string)(nil), models.VisibilityPublic, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateGroup(context.Background(), &models.Group{ID: 99, Name: "x", Visibility: models.VisibilityPublic})

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGroupsForViewer(t *testing.T) {
	mock, store := newMock(t)

	pending := models.JoinRequestPending
	owner := models.RoleOwner
	member := models.RoleMember

	rows := pgxmock.NewRows([]string{"id", "name", "description", "visibility", "owner_id", "owner_name", "role", "status"}).
		AddRow(int64(3), "Mine", (*string)(nil), models.VisibilityPublic, int64(1), ptr("Ana"), &owner, (*models.JoinRequestStatus)(nil)).
		AddRow(int64(2), "Joined", ptr("desc"), models.VisibilityPublic, int64(4), ptr("Bo"), &member, (*models.JoinRequestStatus)(nil)).
		AddRow(int64(1), "Closed", (*string)(nil), models.VisibilityPrivate, int64(4), ptr("Bo"), (*models.Role)(nil), &pending)

	mock.ExpectQuery("FROM groups g(.+)LEFT JOIN group_members gm(.+)LEFT JOIN group_join_requests jr").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	items, err := store.ListGroupsForViewer(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.True(t, items[0].IsMember)
	assert.True(t, items[0].IsOwner)

	assert.True(t, items[1].IsMember)
	assert.False(t, items[1].IsOwner)

	assert.False(t, items[2].IsMember)
	assert.False(t, items[2].IsOwner)
	require.NotNil(t, items[2].JoinRequestStatus)
	assert.Equal(t, models.JoinRequestPending, *items[2].JoinRequestStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		inserted bool
	}{
		{"new membership", 1, true},
		{"already a member", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMock(t)

			mock.ExpectExec("INSERT INTO group_members (.+) ON CONFLICT \\(group_id, user_id\\) DO NOTHING").
				WithArgs(int64(5), int64(2), models.RoleMember, testTime).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))

			inserted, err := store.AddMember(context.Background(), &models.GroupMember{
				GroupID: 5, UserID: 2, Role: models.RoleMember, JoinedAt: testTime,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.inserted, inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetMember_NotFound(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("FROM group_members").
		WithArgs(int64(5), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"group_id", "user_id", "role", "joined_at"}))

	_, err := store.GetMember(context.Background(), 5, 2)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJoinRequest_Conflict(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("INSERT INTO group_join_requests (.+) ON CONFLICT").
		WithArgs(int64(5), int64(2), models.JoinRequestPending, testTime).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	inserted, err := store.CreateJoinRequest(context.Background(), &models.JoinRequest{
		GroupID: 5, UserID: 2, Status: models.JoinRequestPending, CreatedAt: testTime,
	})

	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReopenJoinRequest(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectExec("SET status = 'pending', created_at = \\$1, resolved_at = NULL, resolved_by_id = NULL").
		WithArgs(testTime, int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.ReopenJoinRequest(context.Background(), 8, testTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJoinRequest(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("FROM group_join_requests WHERE id").
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "group_id", "user_id", "status", "created_at", "resolved_at", "resolved_by_id"}).
			AddRow(int64(8), int64(5), int64(2), models.JoinRequestRejected, testTime, ptr(testTime), ptr(int64(1))))

	req, err := store.GetJoinRequest(context.Background(), 8)

	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, req.Status)
	assert.Equal(t, int64(1), *req.ResolvedByID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFavorite(t *testing.T) {
	tests := []struct {
		name     string
		rows     *pgxmock.Rows
		inserted bool
	}{
		{"added", pgxmock.NewRows([]string{"id"}).AddRow(int64(30)), true},
		{"duplicate", pgxmock.NewRows([]string{"id"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := newMock(t)

			mock.ExpectQuery("INSERT INTO group_favorites (.+) ON CONFLICT \\(group_id, user_id, item_symbol\\) DO NOTHING").
				WithArgs(int64(7), int64(1), "42", ptr("Alien"), (*string)(nil), testTime, testTime).
				WillReturnRows(tt.rows)

			inserted, err := store.InsertFavorite(context.Background(), &models.Favorite{
				GroupID: 7, UserID: 1, ItemSymbol: "42", Title: ptr("Alien"),
				CreatedAt: testTime, UpdatedAt: testTime,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.inserted, inserted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListComments_EmptyIDs(t *testing.T) {
	mock, store := newMock(t)

	comments, err := store.ListComments(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComments(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectQuery("FROM group_favorite_comments c(.+)= ANY\\(\\$1\\)").
		WithArgs([]int64{30, 31}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "favorite_id", "comment", "created_at", "user_id", "name", "image"}).
			AddRow(int64(2), int64(31), "great pick", testTime, int64(4), ptr("Bo"), (*string)(nil)))

	comments, err := store.ListComments(context.Background(), []int64{30, 31})

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(31), comments[0].FavoriteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_Commit(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM group_favorite_comments WHERE favorite_id = \\$1").
		WithArgs(int64(30)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("DELETE FROM group_favorites WHERE id = \\$1").
		WithArgs(int64(30)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		if err := tx.DeleteCommentsByFavorite(context.Background(), 30); err != nil {
			return err
		}
		return tx.DeleteFavorite(context.Background(), 30)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	mock, store := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM group_favorite_comments").
		WithArgs(int64(7)).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		return tx.DeleteCommentsByGroup(context.Background(), 7)
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_NestedReusesTransaction(t *testing.T) {
	mock, store := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM group_members WHERE group_id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx repository.Store) error {
		return tx.WithinTx(context.Background(), func(inner repository.Store) error {
			return inner.DeleteMembersByGroup(context.Background(), 7)
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
