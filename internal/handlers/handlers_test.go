package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filmclub/server/internal/handlers"
	"filmclub/server/internal/middleware"
	"filmclub/server/internal/models"
	"filmclub/server/internal/routes"
	"filmclub/server/internal/services"
	"filmclub/server/internal/testutil"
	"filmclub/server/internal/utils"
	ws "filmclub/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("handler-test-secret")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app   *fiber.App
	store *testutil.MemStore
	inv   *testutil.Invalidations

	owner    models.User
	member   models.User
	outsider models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zap.NewNop()
	store := testutil.NewMemStore()
	inv := &testutil.Invalidations{}
	identity := services.NewIdentityService(store, log)

	h := handlers.New(handlers.Config{
		Groups:    services.NewGroupService(store, inv, log),
		Identity:  identity,
		Hub:       ws.NewHub(log),
		JWTSecret: testSecret,
		Logger:    log,
	})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(log)})
	routes.SetupRoutes(app, h, middleware.Auth(testSecret, identity))

	s := &testServer{
		app:      app,
		store:    store,
		inv:      inv,
		owner:    store.CreateUser(t, "Olive Owner", "olive@example.com"),
		member:   store.CreateUser(t, "Mo Member", "mo@example.com"),
		outsider: store.CreateUser(t, "Otto Outsider", "otto@example.com"),
	}
	store.CreateMovie(t, 42, "Alien", 1979)
	return s
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, models.Principal{Email: u.Email, Name: u.Name}, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a request as user (nil for anonymous) and decodes the envelope.
func (s *testServer) do(t *testing.T, user *models.User, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *user))
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *testServer) createGroup(t *testing.T, visibility models.Visibility) models.Group {
	t.Helper()
	resp, env := s.do(t, &s.owner, http.MethodPost, "/api/v1/groups", map[string]any{
		"name":       "Film Night",
		"visibility": visibility,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeData[models.Group](t, env)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, nil, http.MethodGet, "/api/v1/groups", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_CookieTokenAndFirstSignIn(t *testing.T) {
	s := newTestServer(t)

	newcomer := models.User{Name: "Nia New", Email: "Nia@Example.com"}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: tokenFor(t, newcomer)})

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	me := decodeData[models.User](t, env)
	assert.Equal(t, "nia@example.com", me.Email)
	assert.Equal(t, "Nia New", me.Name)
	assert.NotZero(t, me.ID)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, &s.member, http.MethodPost, "/api/v1/auth/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeData[map[string]string](t, env)
	claims, err := utils.ValidateToken(testSecret, body["token"])
	require.NoError(t, err)
	assert.Equal(t, s.member.Email, claims.Email)
	assert.Equal(t, body["token"], cookieValue(t, resp, middleware.TokenCookie))

	resp, env = s.do(t, &s.member, http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", env.Message)
	assert.Empty(t, cookieValue(t, resp, middleware.TokenCookie))
}

func cookieValue(t *testing.T, resp *http.Response, name string) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not set", name)
	return ""
}

func TestCreateGroup(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, &s.owner, http.MethodPost, "/api/v1/groups", map[string]any{
		"name":        "  <b>Horror</b> Club ",
		"description": "Late shows",
		"visibility":  "private",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	g := decodeData[models.Group](t, env)
	assert.Equal(t, "Horror Club", g.Name)
	assert.Equal(t, models.VisibilityPrivate, g.Visibility)
	assert.Equal(t, s.owner.ID, g.OwnerID)
	assert.Contains(t, s.inv.Views(), services.ViewGroups)

	resp, env = s.do(t, &s.owner, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := decodeData[models.GroupsOverview](t, env)
	require.Len(t, overview.MyGroups, 1)
	assert.True(t, overview.MyGroups[0].IsOwner)
}

func TestCreateGroup_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"blank name", map[string]any{"name": "   ", "visibility": "public"}, "name"},
		{"bad visibility", map[string]any{"name": "Club", "visibility": "secret"}, "visibility"},
		{"missing visibility", map[string]any{"name": "Club"}, "visibility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := s.do(t, &s.owner, http.MethodPost, "/api/v1/groups", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION", env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}
}

func TestInvalidPathID(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, &s.owner, http.MethodGet, "/api/v1/groups/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestGroupDetail(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPublic)

	resp, env := s.do(t, &s.outsider, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", g.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeData[models.GroupDetail](t, env)
	assert.False(t, detail.CanSeeContent)
	assert.False(t, detail.Me.IsMember)
	assert.Empty(t, detail.Members)

	resp, env = s.do(t, &s.owner, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d", g.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail = decodeData[models.GroupDetail](t, env)
	assert.True(t, detail.CanSeeContent)
	assert.True(t, detail.Me.IsOwner)
	assert.Len(t, detail.Members, 1)
	assert.Len(t, detail.MovieOptions, 1)

	resp, env = s.do(t, &s.owner, http.MethodGet, "/api/v1/groups/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdateAndDeleteGroup_OwnerOnly(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPublic)
	path := fmt.Sprintf("/api/v1/groups/%d", g.ID)
	body := map[string]any{"name": "Renamed", "visibility": "private"}

	resp, env := s.do(t, &s.outsider, http.MethodPut, path, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	resp, env = s.do(t, &s.owner, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decodeData[models.Group](t, env).Name)

	resp, _ = s.do(t, &s.outsider, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, &s.owner, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, &s.owner, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJoinGroup(t *testing.T) {
	s := newTestServer(t)
	public := s.createGroup(t, models.VisibilityPublic)
	private := s.createGroup(t, models.VisibilityPrivate)

	resp, _ := s.do(t, &s.member, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/join", public.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.store.Members(public.ID), 2)

	resp, env := s.do(t, &s.member, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/join", private.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_VISIBILITY", env.Error.Code)
}

func TestJoinRequestFlow(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPrivate)

	resp, env := s.do(t, &s.member, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/requests", g.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending", decodeData[map[string]string](t, env)["status"])

	requests := s.store.JoinRequests(g.ID)
	require.Len(t, requests, 1)
	approvePath := fmt.Sprintf("/api/v1/requests/%d/approve", requests[0].ID)

	resp, _ = s.do(t, &s.member, http.MethodPost, approvePath, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(t, &s.owner, http.MethodPost, approvePath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Request approved", env.Message)
	assert.Len(t, s.store.Members(g.ID), 2)

	resp, env = s.do(t, &s.member, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/requests", g.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":null}`, string(env.Data))

	resp, _ = s.do(t, &s.owner, http.MethodPost, "/api/v1/requests/9999/reject", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInviteAndKick(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPrivate)
	invitePath := fmt.Sprintf("/api/v1/groups/%d/invites", g.ID)

	resp, env := s.do(t, &s.owner, http.MethodPost, invitePath, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "email")

	resp, _ = s.do(t, &s.owner, http.MethodPost, invitePath, map[string]any{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, &s.owner, http.MethodPost, invitePath, map[string]any{"email": "  Mo@Example.com "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.store.Members(g.ID), 2)

	resp, env = s.do(t, &s.owner, http.MethodDelete, fmt.Sprintf("/api/v1/groups/%d/members/%d", g.ID, s.owner.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CANNOT_KICK_OWNER", env.Error.Code)

	resp, _ = s.do(t, &s.owner, http.MethodDelete, fmt.Sprintf("/api/v1/groups/%d/members/%d", g.ID, s.member.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.store.Members(g.ID), 1)
}

func TestLeaveGroup(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPublic)
	leavePath := fmt.Sprintf("/api/v1/groups/%d/leave", g.ID)

	resp, _ := s.do(t, &s.outsider, http.MethodPost, leavePath, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, _ = s.do(t, &s.member, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/join", g.ID), nil)
	resp, env := s.do(t, &s.member, http.MethodPost, leavePath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":"left"}`, string(env.Data))

	resp, env = s.do(t, &s.owner, http.MethodPost, leavePath, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":"deleted"}`, string(env.Data))
	assert.Empty(t, s.store.Members(g.ID))
}

func TestFavoritesAndComments(t *testing.T) {
	s := newTestServer(t)
	g := s.createGroup(t, models.VisibilityPublic)
	favPath := fmt.Sprintf("/api/v1/groups/%d/favorites", g.ID)

	resp, _ := s.do(t, &s.outsider, http.MethodPost, favPath, map[string]any{"movieId": 42})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := s.do(t, &s.owner, http.MethodPost, favPath, map[string]any{"movieId": 42, "comment": "classic"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"result":"added"}`, string(env.Data))

	resp, env = s.do(t, &s.owner, http.MethodPost, favPath, map[string]any{"movieId": 42})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":"duplicate"}`, string(env.Data))

	resp, _ = s.do(t, &s.owner, http.MethodPost, favPath, map[string]any{"movieId": 404})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	favs := s.store.Favorites(g.ID)
	require.Len(t, favs, 1)
	commentPath := fmt.Sprintf("/api/v1/favorites/%d/comments", favs[0].ID)

	resp, env = s.do(t, &s.owner, http.MethodPost, commentPath, map[string]any{"comment": "<i></i> "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "comment")

	resp, env = s.do(t, &s.owner, http.MethodPost, commentPath, map[string]any{"comment": " still great "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "still great", decodeData[models.FavoriteComment](t, env).Comment)

	resp, _ = s.do(t, &s.outsider, http.MethodDelete, fmt.Sprintf("/api/v1/favorites/%d", favs[0].ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, &s.owner, http.MethodDelete, fmt.Sprintf("/api/v1/favorites/%d", favs[0].ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, s.store.Favorites(g.ID))
	assert.Empty(t, s.store.CommentsOn(favs[0].ID))
}

func TestWebSocketEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, &s.owner, http.MethodGet, "/api/v1/ws/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"connections":0,"userIds":[]}`, string(env.Data))

	resp, env = s.do(t, &s.owner, http.MethodGet, "/api/v1/ws", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	require.NotNil(t, env.Error)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.NewNop())})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/boom", http.StatusInternalServerError, "INTERNAL"},
		{"/missing", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var env envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "pq:")
		})
	}
}
