package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/realtime"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/types"
)

// ChatHandler provides the messaging relay endpoints.
type ChatHandler struct {
	chat         *services.ChatService
	sessions     *services.SessionService
	hub          *realtime.Hub
	pollInterval time.Duration
	log          logging.Logger
}

func NewChatHandler(
	chat *services.ChatService,
	sessions *services.SessionService,
	hub *realtime.Hub,
	pollInterval time.Duration,
	log logging.Logger,
) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions, hub: hub, pollInterval: pollInterval, log: log}
}

// ChatRouter registers chat routes on the given router.
func ChatRouter(
	r chi.Router,
	chat *services.ChatService,
	sessions *services.SessionService,
	hub *realtime.Hub,
	pollInterval time.Duration,
	log logging.Logger,
) {
	handler := NewChatHandler(chat, sessions, hub, pollInterval, log)

	r.Get("/config", handler.Config)
	r.Get("/ws", handler.Stream)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(sessions))
		r.Post("/identity", handler.SignIn)
		r.Get("/messages", handler.Poll)
		r.Post("/messages", handler.Post)
	})
}

func (h *ChatHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChatConfigResponse{PollIntervalMillis: h.pollInterval.Milliseconds()})
}

func (h *ChatHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChatSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	identity, err := h.chat.SignIn(r.Context(), session, req.Identifier)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to sign in to chat")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *ChatHandler) Poll(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var after int64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		after, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || after < 0 {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
	}

	msgs, cursor, err := h.chat.Poll(r.Context(), session, after)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, ChatPollResponse{Items: msgs, Cursor: cursor})
}

func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChatPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	msg, err := h.chat.Post(r.Context(), session, req.Message)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to post message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Stream upgrades to a WebSocket. Browsers cannot set headers on the
// upgrade request, so the token travels in the query string.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.sessions.Resolve(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to load session")
		return
	}

	if err := h.hub.Serve(w, r, session); err != nil {
		h.log.Warn(r.Context(), "ws upgrade failed", "identifier", session.Identifier, "error", err)
	}
}

type ChatConfigResponse struct {
	PollIntervalMillis int64 `json:"pollIntervalMs"`
}

type ChatSignInRequest struct {
	Identifier string `json:"identifier"`
}

type ChatPostRequest struct {
	Message string `json:"message"`
}

type ChatPollResponse struct {
	Items  []types.ChatMessage `json:"items"`
	Cursor int64               `json:"cursor"`
}
