package partials

import (
	"bytes"
	"context"
	"testing"
	"time"

	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestSearchResultsGroupsInOrder(t *testing.T) {
	html := render(t, SearchResults([]services.SearchResult{
		{ID: "p1", Type: services.SearchResultPatient, Title: "Ali Hassan", Subtitle: "MRN001"},
		{ID: "a1", Type: services.SearchResultAppointment, Title: "Appointment"},
		{ID: "v1", Type: services.SearchResultVisit, Title: "Visit 12"},
	}, "ali"))

	patients := bytes.Index([]byte(html), []byte("Patients"))
	visits := bytes.Index([]byte(html), []byte("Visits"))
	appointments := bytes.Index([]byte(html), []byte("Appointments"))
	assert.True(t, patients >= 0 && patients < visits && visits < appointments)
	assert.Contains(t, html, `href="/patients/p1"`)
	assert.Contains(t, html, `href="/visits/v1"`)
	assert.Contains(t, html, `href="/appointments"`)
}

func TestSearchResultsEscapes(t *testing.T) {
	html := render(t, SearchResults(nil, `<script>alert(1)</script>`))
	assert.Contains(t, html, "No results for")
	assert.NotContains(t, html, "<script>")

	assert.Empty(t, render(t, SearchResults(nil, "")))
}

func TestNotificationDropdown(t *testing.T) {
	msg := "Room 4"
	items := []models.Notification{
		{ID: "n1", Title: "Lab results <ready>", Message: &msg, CreatedAt: time.Now(), RelatedID: stringPtr("p1"), RelatedType: stringPtr(models.NotificationTypePatient)},
		{ID: "n2", Title: "Old", IsRead: true, CreatedAt: time.Now().Add(-2 * time.Hour)},
	}

	html := render(t, NotificationDropdown(items, 1))
	assert.Contains(t, html, `<span class="badge">1</span>`)
	assert.Contains(t, html, "Mark all as read")
	assert.Contains(t, html, "Lab results &lt;ready&gt;")
	assert.Contains(t, html, `href="/patients/p1"`)
	assert.Contains(t, html, `class="notification-item unread"`)
	assert.Contains(t, html, "2 hours ago")
	assert.Contains(t, html, `href="/notifications"`)

	html = render(t, NotificationDropdown(nil, 0))
	assert.Contains(t, html, "No notifications")
	assert.NotContains(t, html, "Mark all as read")
	assert.NotContains(t, html, `class="badge"`)
}

func TestNotificationBadgeCaps(t *testing.T) {
	assert.Contains(t, render(t, NotificationBadge(15)), ">9+<")
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", formatRelativeTimeAt(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", formatRelativeTimeAt(now.Add(-time.Minute), now))
	assert.Equal(t, "3 days ago", formatRelativeTimeAt(now.Add(-72*time.Hour), now))
	assert.Equal(t, "Apr 1, 2026", formatRelativeTimeAt(now.AddDate(0, -1, 0), now))
}

func stringPtr(s string) *string {
	return &s
}
