// Package server exposes the REST and websocket surface. Handlers are thin:
// validate input, call the sync engine or a repository, write JSON.
package server

import (
	"errors"
	"net/http"

	"dota-tracker/internal/auth"
	"dota-tracker/internal/importer"
	"dota-tracker/internal/middleware"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/service"
	"dota-tracker/internal/ws"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const maxImportSize = 10 << 20 // 10 MB

type Handler struct {
	players  *repository.PlayerRepository
	syncSvc  *service.SyncService
	authSvc  *auth.Service
	tokens   *auth.JWTManager
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(
	players *repository.PlayerRepository,
	syncSvc *service.SyncService,
	authSvc *auth.Service,
	tokens *auth.JWTManager,
	hub *ws.Hub,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		players: players,
		syncSvc: syncSvc,
		authSvc: authSvc,
		tokens:  tokens,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the separately hosted frontend; CORS already
			// gates the REST surface and the token gates the socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Routes builds the mux. Admin-only endpoints are wrapped here so the caller
// only layers process-wide middleware (CORS, request IDs) on top.
func (h *Handler) Routes() *http.ServeMux {
	admin := middleware.RequireRole(h.tokens, auth.RoleAdmin)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /dota", h.Health)
	mux.HandleFunc("POST /dota/auth/login", h.Login)
	mux.HandleFunc("GET /dota/players", h.ListPlayers)
	mux.Handle("POST /dota/players", admin(http.HandlerFunc(h.AddPlayer)))
	mux.Handle("POST /dota/players/import", admin(http.HandlerFunc(h.ImportRoster)))
	mux.Handle("POST /dota/players/sync", admin(http.HandlerFunc(h.StartSync)))
	mux.Handle("GET /dota/players/sync/status", admin(http.HandlerFunc(h.SyncStatus)))
	mux.HandleFunc("GET /dota/ws", h.WebSocket)
	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "dota-tracker API running"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	token, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list players")
		respondError(w, http.StatusInternalServerError, "failed to list players")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(players),
		"players": players,
	})
}

func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SteamID  string  `json:"steam_id"`
		Name     *string `json:"name"`
		Dotabuff *string `json:"dotabuff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SteamID == "" {
		respondError(w, http.StatusBadRequest, "steam_id required")
		return
	}

	player, err := h.players.Upsert(r.Context(), req.SteamID, req.Name, req.Dotabuff)
	if err != nil {
		h.logger.Error().Err(err).Str("steam_id", req.SteamID).Msg("failed to upsert player")
		respondError(w, http.StatusInternalServerError, "failed to add player")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "player added",
		"player":  player,
	})
}

func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	rows, err := importer.Parse(file)
	if err != nil {
		h.logger.Warn().Err(err).Msg("spreadsheet parse failed")
		respondError(w, http.StatusBadRequest, "could not parse spreadsheet")
		return
	}

	processed := make([]any, 0, len(rows))
	for _, row := range rows {
		player, err := h.players.Upsert(r.Context(), row.SteamID, row.Name, row.Dotabuff)
		if err != nil {
			h.logger.Error().Err(err).Str("steam_id", row.SteamID).Msg("import upsert failed")
			continue
		}
		processed = append(processed, player)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(processed),
		"processed": processed,
	})
}

func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	run, err := h.syncSvc.Start(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start sync")
		respondError(w, http.StatusInternalServerError, "failed to start sync")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.syncSvc.Status())
}

// WebSocket admits a push subscriber. Browsers cannot set headers on socket
// requests, so the credential arrives as a query parameter; it is validated
// before the upgrade and its role decides which events the client sees.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "token required")
		return
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.Username, claims.Role, h.logger)
	client.Start()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
