package handlers

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"
	"clinic_flow_app_go/templates/pages"
	"clinic_flow_app_go/templates/partials"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	// maxNotificationPage bounds the "view all" page and the limit query parameter
	maxNotificationPage = 100
	streamHeartbeat     = 25 * time.Second
)

var textPolicy = bluemonday.StrictPolicy()

// plainText strips any markup, leaving text that views escape on output.
// The policy entity-escapes what it keeps, so that is undone to keep "O'Brien" intact.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func unreadIn(items []models.Notification) int {
	count := 0
	for i := range items {
		if !items[i].IsRead {
			count++
		}
	}
	return count
}

// GetNotificationsHandler returns the caller's most recent notifications
// GET /api/notifications?limit=20
func GetNotificationsHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	limit := notificationHistory
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= maxNotificationPage {
			limit = l
		}
	}

	items, err := notificationService.RecentNotifications(c.Request().Context(), user.ID, limit)
	if err != nil {
		appLogger.Error("failed to load notifications", zap.String("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load notifications")
	}
	unread := unreadIn(items)

	if isHTMX(c) {
		return partials.NotificationDropdown(items, unread).Render(c.Request().Context(), c.Response().Writer)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": items,
		"unread_count":  unread,
		"badge":         services.BadgeLabel(unread),
	})
}

// NotificationsPageHandler renders the full notification list
func NotificationsPageHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	items, err := notificationService.RecentNotifications(c.Request().Context(), user.ID, maxNotificationPage)
	if err != nil {
		appLogger.Error("failed to load notifications", zap.String("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load notifications")
	}
	return pages.Notifications(items, unreadIn(items), middleware.GetCSRFToken(c)).Render(c.Request().Context(), c.Response().Writer)
}

// MarkNotificationReadHandler marks one notification read.
// HTMX clicks carry the target page in "redirect" and are sent there afterwards.
func MarkNotificationReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	notificationID := c.Param("id")

	if err := notificationService.MarkNotificationRead(c.Request().Context(), user.ID, notificationID); err != nil {
		appLogger.Error("failed to mark notification read", zap.String("notification_id", notificationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error marking as read")
	}

	if isHTMX(c) {
		if redirect := c.FormValue("redirect"); strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//") {
			c.Response().Header().Set("HX-Redirect", redirect)
		}
		return c.NoContent(http.StatusOK)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllNotificationsReadHandler marks all of the caller's notifications read
func MarkAllNotificationsReadHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	ctx := c.Request().Context()

	if err := notificationService.MarkAllNotificationsRead(ctx, user.ID); err != nil {
		appLogger.Error("failed to mark all notifications read", zap.String("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error marking all as read")
	}

	if isHTMX(c) {
		// re-render the dropdown so the badge disappears
		return GetNotificationsHandler(c)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteNotificationHandler deletes one of the caller's notifications
func DeleteNotificationHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	notificationID := c.Param("id")

	if err := notificationService.DeleteNotification(c.Request().Context(), user.ID, notificationID); err != nil {
		appLogger.Error("failed to delete notification", zap.String("notification_id", notificationID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Error deleting notification")
	}

	if isHTMX(c) {
		// empty body removes the row (hx-swap="outerHTML")
		return c.String(http.StatusOK, "")
	}
	return c.NoContent(http.StatusNoContent)
}

type createNotificationRequest struct {
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Message     *string `json:"message"`
	RelatedID   *string `json:"related_id"`
	RelatedType *string `json:"related_type"`
}

var notificationTypes = map[string]bool{
	models.NotificationTypeAppointment: true,
	models.NotificationTypePatient:     true,
	models.NotificationTypeVisit:       true,
	models.NotificationTypeFollowUp:    true,
	models.NotificationTypeOther:       true,
}

// CreateNotificationHandler lets a clinic owner or admin notify a member of the same clinic.
// The insert is published to the recipient's live stream.
// POST /api/notifications
func CreateNotificationHandler(c echo.Context) error {
	clinic, ok := middleware.GetClinicContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "No clinic is associated with this account")
	}

	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification")
	}

	title := plainText(req.Title)
	if req.UserID == "" || title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and title are required")
	}
	if req.Type == "" {
		req.Type = models.NotificationTypeOther
	}
	if !notificationTypes[req.Type] {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type")
	}

	ctx := c.Request().Context()
	recipient, err := services.ResolveClinicContext(ctx, recordStore, req.UserID)
	if err != nil {
		appLogger.Error("failed to resolve recipient clinic", zap.String("user_id", req.UserID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create notification")
	}
	if recipient.ClinicID() != clinic.ClinicID() {
		return echo.NewHTTPError(http.StatusNotFound, "Recipient not found in this clinic")
	}

	clinicID := clinic.ClinicID()
	n := &models.Notification{
		UserID:      req.UserID,
		ClinicID:    &clinicID,
		Type:        req.Type,
		Title:       title,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
	}
	if req.Message != nil {
		if msg := plainText(*req.Message); msg != "" {
			n.Message = &msg
		}
	}

	if err := notificationService.CreateNotification(ctx, n); err != nil {
		appLogger.Error("failed to create notification", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create notification")
	}
	return c.JSON(http.StatusCreated, n)
}

// NotificationStreamHandler relays the caller's insert stream as Server-Sent Events
// GET /api/notifications/stream
func NotificationStreamHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	ctx := c.Request().Context()

	sub, err := notificationBroker.SubscribeInserts(ctx, user.ID)
	if err != nil {
		appLogger.Warn("live notifications unavailable", zap.String("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Live notifications unavailable")
	}
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case n, ok := <-sub.Events():
			if !ok {
				return nil
			}
			payload, err := json.Marshal(n)
			if err != nil {
				appLogger.Warn("failed to encode notification", zap.String("notification_id", n.ID), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ID, payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
