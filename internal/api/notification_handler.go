package api

import (
	"net/http"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// NotificationHandler exposes the notification log written by the event
// consumer: the processed entries and per-type counts. Served by the
// worker's HTTP endpoint for operators, not by the task API.
type NotificationHandler struct {
	notificationStore store.NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationStore store.NotificationStore) *NotificationHandler {
	return &NotificationHandler{
		notificationStore: notificationStore,
	}
}

const maxLogLimit = 500

// Logs handles GET /logs, returning recent notification log entries.
func (h *NotificationHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	notifications, err := h.notificationStore.Recent(r.Context(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read notification log")
		return
	}

	if notifications == nil {
		notifications = []*domain.Notification{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NotificationListResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}

// Stats handles GET /stats, returning processed event counts by type.
func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.notificationStore.CountByType(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute notification stats")
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NotificationStatsResponse{
		CountsByType: counts,
		Total:        total,
	})
}
