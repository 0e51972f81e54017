package partials

import (
	"context"

	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"
	"clinic_flow_app_go/templates/components"

	"github.com/a-h/templ"
)

// NotificationBadge renders the bell with its unread badge; swapped on every live insert
func NotificationBadge(unread int) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<span id="notification-badge" class="notification-bell">`)
		if label := services.BadgeLabel(unread); label != "" {
			h.raw(`<span class="badge">`)
			h.text(label)
			h.raw(`</span>`)
		}
		h.raw(`</span>`)
	})
}

// NotificationItem renders one dropdown row
func NotificationItem(n models.Notification) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		class := "notification-item"
		if !n.IsRead {
			class += " unread"
		}
		h.raw(`<li`)
		h.attr("id", "notification-"+n.ID)
		h.attr("class", class)
		h.raw(`><a`)
		h.attr("href", notificationHref(n))
		h.attr("hx-post", "/api/notifications/"+n.ID+"/read")
		h.attr("hx-vals", components.JSON(map[string]string{"redirect": notificationHref(n)}))
		h.raw(`><span class="notification-title">`)
		h.text(n.Title)
		h.raw(`</span>`)
		if n.Message != nil && *n.Message != "" {
			h.raw(`<span class="notification-message">`)
			h.text(*n.Message)
			h.raw(`</span>`)
		}
		h.raw(`<time`)
		h.attr("datetime", n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		h.raw(`>`)
		h.text(formatRelativeTime(n.CreatedAt))
		h.raw(`</time></a><button type="button" class="notification-delete"`)
		h.attr("hx-delete", "/api/notifications/"+n.ID)
		h.attr("hx-target", "#notification-"+n.ID)
		h.raw(` hx-swap="outerHTML" aria-label="Delete">&times;</button></li>`)
	})
}

// NotificationDropdown renders the recent notification list with its header actions
func NotificationDropdown(items []models.Notification, unread int) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div id="notification-dropdown" class="notification-dropdown">`)
		if err := NotificationBadge(unread).Render(ctx, h.w); err != nil {
			h.err = err
			return
		}
		h.raw(`<div class="notification-header"><h3>Notifications</h3>`)
		if unread > 0 {
			h.raw(`<button type="button" hx-post="/api/notifications/read-all" hx-target="#notification-dropdown" hx-swap="outerHTML">Mark all as read</button>`)
		}
		h.raw(`</div>`)

		if len(items) == 0 {
			h.raw(`<p class="notification-empty">No notifications</p>`)
		} else {
			h.raw(`<ul class="notification-list">`)
			for _, n := range items {
				if err := NotificationItem(n).Render(ctx, h.w); err != nil {
					h.err = err
					return
				}
			}
			h.raw(`</ul>`)
		}

		h.raw(`<a class="notification-view-all"`)
		h.attr("href", services.RouteNotifications)
		h.raw(`>View all</a></div>`)
	})
}

// notificationHref is the notification's target page, or the full list when it has none
func notificationHref(n models.Notification) string {
	if route, ok := services.RouteForNotification(n); ok {
		return route
	}
	return services.RouteNotifications
}
