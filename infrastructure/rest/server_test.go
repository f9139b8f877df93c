package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/repositories"
	"chat-sync/services"
	"chat-sync/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type response struct {
	Status  int
	Cookies []*http.Cookie
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupServer(t *testing.T) (*Server, *auth.Sessions) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewStore(db, log, 10)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})

	users := repositories.NewUserRepository(store, log)
	chats := repositories.NewChatRepository(store, log)
	sessions := auth.NewSessions(auth.NewTokens("a_long_enough_secret_for_tests", time.Hour), "u1")
	server := NewServer(
		Config{Prefix: "/api", SessionDuration: time.Hour},
		services.NewChatService(users, chats, log, 100),
		services.NewAuthService(users, sessions, log),
		sessions, log)
	return server, sessions
}

func do(t *testing.T, s *Server, method, path string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	out.Status = resp.StatusCode
	out.Cookies = resp.Cookies()
	return out
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

func TestServer_Unknown_Route_Uses_Envelope(t *testing.T) {
	req := require.New(t)
	s, _ := setupServer(t)

	res := do(t, s, http.MethodGet, "/api/nothing-here", nil)

	req.Equal(http.StatusNotFound, res.Status)
	req.False(res.Success)
	req.NotEmpty(res.Error)
}

func TestServer_Users(t *testing.T) {
	req := require.New(t)
	s, _ := setupServer(t)

	res := do(t, s, http.MethodGet, "/api/users", nil)
	req.Equal(http.StatusOK, res.Status)
	req.True(res.Success)
	page := decode[domain.Page[domain.User]](t, res)
	req.Len(page.Items, 6)
	req.Nil(page.Next)

	res = do(t, s, http.MethodGet, "/api/users?q=ALI&limit=2", nil)
	page = decode[domain.Page[domain.User]](t, res)
	req.Len(page.Items, 1)
	req.Equal("Alice", page.Items[0].Name)
	req.Nil(page.Next)

	res = do(t, s, http.MethodGet, "/api/users?limit=abc", nil)
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodPost, "/api/users", map[string]string{"name": "  Eve  "})
	req.Equal(http.StatusOK, res.Status)
	req.Equal("Eve", decode[domain.User](t, res).Name)

	res = do(t, s, http.MethodPost, "/api/users", map[string]string{"name": ""})
	req.Equal(http.StatusBadRequest, res.Status)
}

func TestServer_Profile(t *testing.T) {
	req := require.New(t)
	s, _ := setupServer(t)

	res := do(t, s, http.MethodPatch, "/api/users/me", map[string]string{"name": "Me"})
	req.Equal(http.StatusNotFound, res.Status, "no directory record before seeding")

	do(t, s, http.MethodGet, "/api/users", nil)

	res = do(t, s, http.MethodPatch, "/api/users/me", map[string]string{"unknown": "x"})
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodPatch, "/api/users/me", map[string]string{"name": "Me"})
	req.Equal(http.StatusOK, res.Status)
	user := decode[domain.User](t, res)
	req.Equal("u1", user.ID)
	req.Equal("Me", user.Name)
	req.Equal(domain.AvatarURL("u1"), user.AvatarURL)
}

func TestServer_Auth(t *testing.T) {
	req := require.New(t)
	s, sessions := setupServer(t)

	res := do(t, s, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Zoe", "email": "zoe@example.com", "password": "pwd"})
	req.Equal(http.StatusOK, res.Status)
	registered := decode[domain.User](t, res)
	req.Equal("Zoe", registered.Name)
	req.NotEmpty(registered.ID)

	res = do(t, s, http.MethodPost, "/api/auth/register", map[string]string{"name": "Zoe"})
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "whoever@example.com", "password": "pwd"})
	req.Equal(http.StatusOK, res.Status)
	req.Equal("u1", decode[domain.User](t, res).ID)
	req.NotEmpty(res.Cookies)
	req.Equal(auth.CookieName, res.Cookies[0].Name)

	res = do(t, s, http.MethodGet, "/api/auth/check", nil,
		"Cookie", fmt.Sprintf("%s=%s", auth.CookieName, res.Cookies[0].Value))
	req.Equal(http.StatusOK, res.Status)
	req.Equal("u1", decode[domain.CheckResult](t, res).User.ID)

	token, err := sessions.Issue(registered.ID)
	req.NoError(err)
	res = do(t, s, http.MethodGet, "/api/auth/check", nil, "Authorization", "Bearer "+token)
	req.Equal(registered.ID, decode[domain.CheckResult](t, res).User.ID)

	res = do(t, s, http.MethodGet, "/api/auth/check", nil, "Authorization", "Bearer forged")
	req.Equal(http.StatusUnauthorized, res.Status)
	req.False(res.Success)
}

func TestServer_Auth_Ignores_Stale_Credential(t *testing.T) {
	s, _ := setupServer(t)
	rotated := auth.NewSessions(auth.NewTokens("a_different_rotated_secret_value", time.Hour), "u1")
	stale, err := rotated.Issue("u1")
	require.NoError(t, err)
	cookie := fmt.Sprintf("%s=%s", auth.CookieName, stale)

	t.Run("should login and replace the cookie", func(t *testing.T) {
		req := require.New(t)
		res := do(t, s, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "you@example.com", "password": "pwd"}, "Cookie", cookie)

		req.Equal(http.StatusOK, res.Status)
		req.True(res.Success)
		req.Equal("u1", decode[domain.User](t, res).ID)
		req.NotEmpty(res.Cookies)
		req.Equal(auth.CookieName, res.Cookies[0].Name)
		req.NotEqual(stale, res.Cookies[0].Value)

		res = do(t, s, http.MethodGet, "/api/auth/check", nil,
			"Cookie", fmt.Sprintf("%s=%s", auth.CookieName, res.Cookies[0].Value))
		req.Equal(http.StatusOK, res.Status)
	})

	t.Run("should register", func(t *testing.T) {
		req := require.New(t)
		res := do(t, s, http.MethodPost, "/api/auth/register",
			map[string]string{"name": "Zoe", "email": "zoe@example.com", "password": "pwd"},
			"Authorization", "Bearer "+stale)

		req.Equal(http.StatusOK, res.Status)
		req.Equal("Zoe", decode[domain.User](t, res).Name)
	})

	t.Run("should still reject it elsewhere", func(t *testing.T) {
		res := do(t, s, http.MethodGet, "/api/chats", nil, "Cookie", cookie)
		require.Equal(t, http.StatusUnauthorized, res.Status)
	})
}

func TestServer_Chats_And_Messages(t *testing.T) {
	req := require.New(t)
	s, _ := setupServer(t)

	res := do(t, s, http.MethodGet, "/api/chats?limit=2", nil)
	req.Equal(http.StatusOK, res.Status)
	first := decode[domain.Page[domain.Chat]](t, res)
	req.Len(first.Items, 2)
	req.NotNil(first.Next)

	res = do(t, s, http.MethodGet, "/api/chats?limit=2&cursor="+*first.Next, nil)
	second := decode[domain.Page[domain.Chat]](t, res)
	req.Len(second.Items, 2)
	req.Nil(second.Next)

	res = do(t, s, http.MethodGet, "/api/chats?cursor=garbage", nil)
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodPost, "/api/chats", map[string]any{"participantIds": []string{"u4"}})
	req.Equal(http.StatusOK, res.Status)
	direct := decode[domain.Chat](t, res)
	req.Equal("u1-u4", direct.ID)
	req.Equal(domain.InitialLastMessage, direct.LastMessage)

	res = do(t, s, http.MethodPost, "/api/chats", map[string]any{"participantIds": []string{"u4", "u1"}})
	req.Equal(direct, decode[domain.Chat](t, res))

	res = do(t, s, http.MethodPost, "/api/chats", map[string]any{"participantIds": []string{"u4", "u5"}})
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodPost, "/api/chats/u1-u4/messages", map[string]string{"userId": "u1", "text": " hey "})
	req.Equal(http.StatusOK, res.Status)
	sent := decode[domain.ChatMessage](t, res)
	req.Equal("hey", sent.Text)

	res = do(t, s, http.MethodPost, "/api/chats/u1-u4/messages", map[string]string{"userId": "u1", "text": "  "})
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodGet, "/api/chats/u1-u4/messages", nil)
	messages := decode[[]domain.ChatMessage](t, res)
	req.Equal([]domain.ChatMessage{sent}, messages)

	res = do(t, s, http.MethodGet, "/api/chats/missing/messages", nil)
	req.Equal(http.StatusNotFound, res.Status)

	res = do(t, s, http.MethodPost, "/api/chats/missing/messages", map[string]string{"userId": "u1", "text": "x"})
	req.Equal(http.StatusNotFound, res.Status)
}

func TestServer_Deletes(t *testing.T) {
	req := require.New(t)
	s, _ := setupServer(t)
	do(t, s, http.MethodGet, "/api/users", nil)
	do(t, s, http.MethodGet, "/api/chats", nil)

	res := do(t, s, http.MethodDelete, "/api/chats/u1-u2", nil)
	req.Equal(domain.DeleteResult{ID: "u1-u2", Deleted: true}, decode[domain.DeleteResult](t, res))

	res = do(t, s, http.MethodDelete, "/api/chats/u1-u2", nil)
	req.False(decode[domain.DeleteResult](t, res).Deleted)

	res = do(t, s, http.MethodPost, "/api/users/deleteMany", map[string]any{"ids": []string{"u5", "u6", "nobody"}})
	req.Equal(domain.DeleteManyResult{DeletedCount: 2, IDs: []string{"u5", "u6", "nobody"}},
		decode[domain.DeleteManyResult](t, res))

	res = do(t, s, http.MethodPost, "/api/chats/deleteMany", map[string]any{"ids": []string{}})
	req.Equal(http.StatusBadRequest, res.Status)

	res = do(t, s, http.MethodGet, "/api/chats/u1-u6/messages", nil)
	req.Equal(http.StatusOK, res.Status, "chat snapshots survive user deletion")
}
