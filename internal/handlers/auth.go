package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
)

// AuthHandler provides session endpoints.
type AuthHandler struct {
	sessions *services.SessionService
	accounts *services.AccountService
	log      logging.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(sessions *services.SessionService, accounts *services.AccountService, log logging.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, log: log}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, sessions *services.SessionService, accounts *services.AccountService, log logging.Logger) {
	handler := NewAuthHandler(sessions, accounts, log)

	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Post("/logout", handler.Logout)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer token and injects the session into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return RequireAuth(h.sessions)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			session, err := sessions.Resolve(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, services.ErrInvalidToken) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load session")
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// RequireUserManager admits admin and phq-kla sessions only.
func RequireUserManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !session.Role.CanManageUsers() {
			writeError(w, http.StatusForbidden, "user management requires the admin or phq-kla role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Identifier, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token:   result.Token,
		Session: describeSession(result.Session, result.Account),
	})
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessions.Logout(r.Context(), session.ID); err != nil {
		writeServiceError(w, r, h.log, err, "failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current session and what it may do.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.accounts.Get(r.Context(), session.Identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, describeSession(session, account))
}

type LoginRequest struct {
	Identifier string     `json:"identifier"`
	Password   string     `json:"password"`
	Role       types.Role `json:"role"`
}

type AuthResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

// SessionResponse describes a signed-in client.
type SessionResponse struct {
	Identifier   string              `json:"identifier"`
	Role         types.Role          `json:"role"`
	Station      string              `json:"station,omitempty"`
	Chat         *types.ChatIdentity `json:"chat,omitempty"`
	ExpiresAt    string              `json:"expiresAt"`
	Capabilities Capabilities        `json:"capabilities"`
}

// Capabilities drives which dashboard actions a client shows.
type Capabilities struct {
	CanManageUsers bool `json:"canManageUsers"`
	CanViewAll     bool `json:"canViewAll"`
	CanSubmit      bool `json:"canSubmit"`
}

func describeSession(session types.Session, account types.Account) SessionResponse {
	resp := SessionResponse{
		Identifier: session.Identifier,
		Role:       session.Role,
		Chat:       session.Chat,
		ExpiresAt:  session.ExpiresAt.UTC().Format(time.RFC3339),
		Capabilities: Capabilities{
			CanManageUsers: session.Role.CanManageUsers(),
			CanViewAll:     session.Role.Unrestricted(),
			CanSubmit:      session.Role.Valid(),
		},
	}
	if session.Role.Restricted() {
		resp.Station = services.AssignedStation(account)
	}
	return resp
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
