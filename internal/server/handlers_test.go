package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dota-tracker/internal/api"
	"dota-tracker/internal/auth"
	"dota-tracker/internal/config"
	"dota-tracker/internal/database"
	"dota-tracker/internal/domain"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/service"
	"dota-tracker/internal/ws"
)

type noopClient struct{}

func (noopClient) GetPlayer(context.Context, string) (*api.PlayerProfile, error) {
	return nil, errors.New("unavailable")
}
func (noopClient) GetRecentMatches(context.Context, string) ([]domain.MatchRecord, error) {
	return nil, errors.New("unavailable")
}
func (noopClient) GetMatch(context.Context, int64) (*api.MatchDetail, error) {
	return nil, errors.New("unavailable")
}

type testEnv struct {
	handler *Handler
	tokens  *auth.JWTManager
	players *repository.PlayerRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		AdminUser:     "admin",
		AdminPassword: "hunter2",
	}

	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	players := repository.NewPlayerRepository(db, zerolog.Nop())
	users := repository.NewUserRepository(db, zerolog.Nop())
	tokens := auth.NewJWTManager(cfg)
	authSvc := auth.NewService(users, tokens, zerolog.Nop())
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), cfg))

	hub := ws.NewHub(zerolog.Nop())
	syncSvc := service.NewSyncService(noopClient{}, players, hub, cfg, zerolog.Nop())

	return &testEnv{
		handler: NewHandler(players, syncSvc, authSvc, tokens, hub, zerolog.Nop()),
		tokens:  tokens,
		players: players,
	}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Generate("admin", auth.RoleAdmin)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := doJSON(t, env.handler.Routes(), http.MethodGet, "/dota", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	mux := env.handler.Routes()

	rec := doJSON(t, mux, http.MethodPost, "/dota/auth/login", "", map[string]string{
		"username": "admin", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	claims, err := env.tokens.Validate(resp["token"])
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	rec = doJSON(t, mux, http.MethodPost, "/dota/auth/login", "", map[string]string{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/dota/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddPlayerRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	mux := env.handler.Routes()
	body := map[string]string{"steam_id": "22202"}

	rec := doJSON(t, mux, http.MethodPost, "/dota/players", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	playerToken, err := env.tokens.Generate("bob", auth.RolePlayer)
	require.NoError(t, err)
	rec = doJSON(t, mux, http.MethodPost, "/dota/players", playerToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/dota/players", env.adminToken(t), body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddPlayerValidation(t *testing.T) {
	env := newTestEnv(t)
	rec := doJSON(t, env.handler.Routes(), http.MethodPost, "/dota/players", env.adminToken(t), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPlayersIsPublic(t *testing.T) {
	env := newTestEnv(t)
	mux := env.handler.Routes()

	_, err := env.players.Upsert(context.Background(), "22202", nil, nil)
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/dota/players", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int             `json:"count"`
		Players []domain.Player `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "22202", resp.Players[0].SteamID)
}

func TestSyncStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := doJSON(t, env.handler.Routes(), http.MethodGet, "/dota/players/sync/status", env.adminToken(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var run domain.SyncRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.False(t, run.Running)
	assert.Nil(t, run.LastRun)
}

func TestStartSyncEndpoint(t *testing.T) {
	env := newTestEnv(t)
	mux := env.handler.Routes()

	_, err := env.players.Upsert(context.Background(), "22202", nil, nil)
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodPost, "/dota/players/sync", env.adminToken(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var run domain.SyncRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.Running)
	assert.Equal(t, 1, run.Total)
	assert.NotEmpty(t, run.RunID)
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/dota/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/dota/ws?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketConnectsWithToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/dota/ws?token=" + env.adminToken(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.handler.hub.ClientCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
}
