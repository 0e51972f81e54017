package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic_flow_app_go/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedNotifications(t *testing.T, testDB *gorm.DB, userID string, count, unread int) []models.Notification {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	out := make([]models.Notification, 0, count)
	for i := 0; i < count; i++ {
		n := models.Notification{UserID: userID, Title: "Notification", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, testDB.Create(&n).Error)
		if i >= unread {
			require.NoError(t, testDB.Model(&n).Update("is_read", true).Error)
			n.IsRead = true
		}
		out = append(out, n)
	}
	return out
}

func TestGetNotificationsHandler(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)

	t.Run("JSON badge", func(t *testing.T) {
		seedNotifications(t, testDB, fx.Nurse.ID, 3, 2)

		_, c, rec := setupEcho(http.MethodGet, "/api/notifications", nil)
		actAs(t, c, fx.Nurse)
		require.NoError(t, GetNotificationsHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Notifications []models.Notification `json:"notifications"`
			UnreadCount   int                   `json:"unread_count"`
			Badge         string                `json:"badge"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Notifications, 3)
		assert.Equal(t, 2, resp.UnreadCount)
		assert.Equal(t, "2", resp.Badge)
	})

	t.Run("Badge caps at 9+", func(t *testing.T) {
		seedNotifications(t, testDB, fx.Owner.ID, 25, 15)

		_, c, rec := setupEcho(http.MethodGet, "/api/notifications", nil)
		actAs(t, c, fx.Owner)
		require.NoError(t, GetNotificationsHandler(c))

		var resp struct {
			Notifications []models.Notification `json:"notifications"`
			Badge         string                `json:"badge"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Notifications, 20)
		assert.Equal(t, "9+", resp.Badge)
	})

	t.Run("HTMX dropdown", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/notifications", nil)
		c.Request().Header.Set("HX-Request", "true")
		actAs(t, c, fx.Nurse)
		require.NoError(t, GetNotificationsHandler(c))
		assert.Contains(t, rec.Body.String(), `id="notification-dropdown"`)
		assert.Contains(t, rec.Body.String(), `<span class="badge">2</span>`)
	})
}

func TestNotificationMutations(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)
	items := seedNotifications(t, testDB, fx.Nurse.ID, 3, 3)

	unread := func() int64 {
		count, err := notificationService.CountUnread(context.Background(), fx.Nurse.ID)
		require.NoError(t, err)
		return count
	}

	t.Run("Mark read", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/notifications/"+items[0].ID+"/read", nil)
		c.SetParamNames("id")
		c.SetParamValues(items[0].ID)
		actAs(t, c, fx.Nurse)

		require.NoError(t, MarkNotificationReadHandler(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(2), unread())
	})

	t.Run("Mark read cannot touch another user's row", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/notifications/"+items[1].ID+"/read", nil)
		c.SetParamNames("id")
		c.SetParamValues(items[1].ID)
		actAs(t, c, fx.Owner)

		require.NoError(t, MarkNotificationReadHandler(c))
		assert.Equal(t, int64(2), unread())
	})

	t.Run("HTMX read redirects to target", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/notifications/"+items[1].ID+"/read", strings.NewReader("redirect=%2Fpatients%2Fp1"))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		c.Request().Header.Set("HX-Request", "true")
		c.SetParamNames("id")
		c.SetParamValues(items[1].ID)
		actAs(t, c, fx.Nurse)

		require.NoError(t, MarkNotificationReadHandler(c))
		assert.Equal(t, "/patients/p1", rec.Header().Get("HX-Redirect"))
	})

	t.Run("Delete", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodDelete, "/api/notifications/"+items[2].ID, nil)
		c.SetParamNames("id")
		c.SetParamValues(items[2].ID)
		actAs(t, c, fx.Nurse)

		require.NoError(t, DeleteNotificationHandler(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		var count int64
		testDB.Model(&models.Notification{}).Where("user_id = ?", fx.Nurse.ID).Count(&count)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Mark all read", func(t *testing.T) {
		seedNotifications(t, testDB, fx.Nurse.ID, 2, 2)
		_, c, rec := setupEcho(http.MethodPost, "/api/notifications/read-all", nil)
		actAs(t, c, fx.Nurse)

		require.NoError(t, MarkAllNotificationsReadHandler(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(0), unread())
	})
}

func TestCreateNotificationHandler(t *testing.T) {
	testDB, broker := setupTestDB(t)
	fx := seedClinic(t, testDB)
	outsider := seedClinic(t, testDB)

	post := func(body string) (echo.Context, *httptest.ResponseRecorder) {
		_, c, rec := setupEcho(http.MethodPost, "/api/notifications", strings.NewReader(body))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		actAs(t, c, fx.Owner)
		return c, rec
	}

	t.Run("Creates and publishes", func(t *testing.T) {
		sub, err := broker.SubscribeInserts(context.Background(), fx.Nurse.ID)
		require.NoError(t, err)
		defer sub.Close()

		c, rec := post(`{"user_id":"` + fx.Nurse.ID + `","type":"patient","title":"<b>Lab</b> results ready","message":"<script>x</script>Room 4","related_id":"p1","related_type":"patient"}`)
		require.NoError(t, CreateNotificationHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		select {
		case n := <-sub.Events():
			assert.Equal(t, "Lab results ready", n.Title)
			require.NotNil(t, n.Message)
			assert.Equal(t, "Room 4", *n.Message)
			require.NotNil(t, n.ClinicID)
			assert.Equal(t, fx.Clinic.ID, *n.ClinicID)
			assert.False(t, n.IsRead)
		case <-time.After(time.Second):
			t.Fatal("insert was not published")
		}
	})

	t.Run("Recipient outside the clinic", func(t *testing.T) {
		c, _ := post(`{"user_id":"` + outsider.Nurse.ID + `","title":"Hello"}`)
		he, ok := CreateNotificationHandler(c).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})

	t.Run("Validation", func(t *testing.T) {
		c, _ := post(`{"user_id":"` + fx.Nurse.ID + `","title":"<i></i>"}`)
		he, ok := CreateNotificationHandler(c).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)

		c, _ = post(`{"user_id":"` + fx.Nurse.ID + `","title":"Hi","type":"invoice"}`)
		he, ok = CreateNotificationHandler(c).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestNotificationStreamHandler(t *testing.T) {
	testDB, broker := setupTestDB(t)
	fx := seedClinic(t, testDB)

	ctx, cancel := context.WithCancel(context.Background())
	_, c, rec := setupEcho(http.MethodGet, "/api/notifications/stream", nil)
	c.SetRequest(c.Request().WithContext(ctx))
	actAs(t, c, fx.Nurse)

	done := make(chan error, 1)
	go func() { done <- NotificationStreamHandler(c) }()

	require.Eventually(t, func() bool { return broker.SubscriberCount(fx.Nurse.ID) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, broker.PublishInsert(context.Background(), models.Notification{ID: "n-live", UserID: fx.Nurse.ID, Title: "Walk-in"}))

	// give the handler a moment to write the event before closing the stream
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, body, "event: notification\nid: n-live\n")
	assert.Contains(t, body, `"title":"Walk-in"`)
	assert.Equal(t, 0, broker.SubscriberCount(fx.Nurse.ID))
}
