package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/obotesoftech/prisonreturns/internal/logging"
	"github.com/obotesoftech/prisonreturns/internal/services"
	"github.com/obotesoftech/prisonreturns/internal/stations"
)

// NotificationHandler reports returns submitted since the last check.
type NotificationHandler struct {
	notifications *services.NotificationService
	log           logging.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, log logging.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// NotificationRouter registers notification routes on the given router.
func NotificationRouter(r chi.Router, notifications *services.NotificationService, log logging.Logger, authMiddleware func(http.Handler) http.Handler) {
	handler := NewNotificationHandler(notifications, log)

	r.With(authMiddleware).Get("/returns", handler.NewReturns)
}

func (h *NotificationHandler) NewReturns(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	alerts, err := h.notifications.CheckForNewReturns(r.Context(), session, clientScope(r))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to check for new returns")
		return
	}
	writeJSON(w, http.StatusOK, NotificationListResponse{Items: alerts})
}

// NotificationListResponse is the new-return check payload.
type NotificationListResponse struct {
	Items []services.Notification `json:"items"`
}

// Stations lists the station directory.
func Stations(w http.ResponseWriter, r *http.Request) {
	entries := stations.All()
	writeJSON(w, http.StatusOK, StationListResponse{Items: entries, Names: stations.Names()})
}

// StationListResponse is the station directory payload.
type StationListResponse struct {
	Items []stations.Entry `json:"items"`
	Names []string         `json:"names"`
}
