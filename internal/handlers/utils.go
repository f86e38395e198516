package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/store"
	"github.com/obotesoftech/prisonreturns/types"
)

type contextKey string

const contextSessionKey contextKey = "session"

// headerClientProfile names the client profile that scopes the submission
// guard and the notification watermark.
const headerClientProfile = "X-Client-Profile"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func withSession(ctx context.Context, session types.Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, session)
}

func sessionFromContext(ctx context.Context) (types.Session, error) {
	session, ok := ctx.Value(contextSessionKey).(types.Session)
	if !ok || session.ID == "" {
		return types.Session{}, errors.New("missing session")
	}
	return session, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, services.ErrNoRows):
		return http.StatusNotFound, "No returns available to export."
	case errors.Is(err, services.ErrWrongPassword):
		return http.StatusUnauthorized, "incorrect password"
	case errors.Is(err, services.ErrUnknownAccount):
		return http.StatusUnauthorized, "no account exists for this email"
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrRoleMismatch):
		return http.StatusForbidden, "the selected role does not match this account"
	case errors.Is(err, services.ErrUnauthorizedStation):
		return http.StatusForbidden, "this account is not authorized for any station"
	case errors.Is(err, services.ErrStationMismatch):
		return http.StatusForbidden, "you can only submit returns for your assigned station"
	case errors.Is(err, services.ErrChatSignInRequired):
		return http.StatusForbidden, "please sign in to chat first"
	case errors.Is(err, services.ErrAuth):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrLastAdmin):
		return http.StatusConflict, "cannot delete the last admin account"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, ""
	}
}

// writeServiceError writes err with its mapped status. Unmapped errors are
// logged and reported as fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, fallback string) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), fallback, "path", r.URL.Path, "error", err)
		message = fallback
	}
	writeError(w, status, message)
}

func clientScope(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerClientProfile))
}

func parseReturnID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "returnID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid return id")
	}
	return id, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
