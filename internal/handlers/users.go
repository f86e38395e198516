package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/types"
)

// UserHandler provides the user-management endpoints.
type UserHandler struct {
	accounts *services.AccountService
	log      logging.Logger
}

func NewUserHandler(accounts *services.AccountService, log logging.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, log: log}
}

// UserRouter registers user-management routes. Every route requires an
// admin or phq-kla session.
func UserRouter(r chi.Router, accounts *services.AccountService, log logging.Logger, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(accounts, log)

	r.Use(authMiddleware, RequireUserManager)
	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{identifier}", func(r chi.Router) {
		r.Patch("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Items: accounts, Total: len(accounts)})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	var req services.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.accounts.Update(r.Context(), identifier, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "invalid identifier")
		return
	}

	if err := h.accounts.Delete(r.Context(), identifier); err != nil {
		writeServiceError(w, r, h.log, err, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserListResponse is the list response payload.
type UserListResponse struct {
	Items []types.Account `json:"items"`
	Total int             `json:"total"`
}
