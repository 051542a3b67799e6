package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
	"p9e.in/roofline/config"
	"p9e.in/roofline/models"
)

// NotificationHandler exposes the outbox for the back office: inspecting
// pending rows and marking delivery outcomes.
type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{db: config.DB}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.Notification{}).Order("created_at DESC").Limit(200)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if event := r.URL.Query().Get("event"); event != "" {
		query = query.Where("event = ?", event)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications, "count": len(notifications)})
}

// MarkSent records a delivery outcome reported by the delivery worker.
func (h *NotificationHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, models.NotificationStatusPending).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusSent,
			"sent_at": time.Now(),
		})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusConflict, "notification is not pending")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "notification marked sent"})
}
