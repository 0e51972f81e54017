package pages

import (
	"context"
	"io"

	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/templates/components"
	"clinic_flow_app_go/templates/partials"

	"github.com/a-h/templ"
)

// Layout wraps body in the application shell. The search box and the bell load
// their partials over HTMX; the bell listens on the notification stream.
// Every HTMX request inherits the CSRF header from <body>.
func Layout(title, csrfToken string, signedIn bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		nonce := templ.EscapeString(middleware.GetNonce(ctx))
		headers := components.JSON(map[string]string{middleware.CSRFHeader: csrfToken})
		head := `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>` +
			templ.EscapeString(title) +
			`</title><script nonce="` + nonce + `" src="https://unpkg.com/htmx.org@1.9.12"></script>` +
			`<script nonce="` + nonce + `" src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script></head>` +
			`<body hx-headers="` + templ.EscapeString(headers) + `">`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if signedIn {
			nav := `<header class="topbar">` +
				`<input type="search" name="q" placeholder="Search patients, visits, appointments (Ctrl+K)" ` +
				`hx-get="/api/search" hx-trigger="input changed delay:300ms, search" hx-target="#search-results">` +
				`<div id="search-results"></div>` +
				`<div hx-ext="sse" sse-connect="/api/notifications/stream">` +
				`<div hx-get="/api/notifications" hx-trigger="load, sse:notification" hx-swap="innerHTML"></div></div>` +
				`<form method="post" action="/logout">` + csrfField(csrfToken) +
				`<button type="submit">Sign out</button></form></header>`
			if _, err := io.WriteString(w, nav); err != nil {
				return err
			}
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func csrfField(token string) string {
	return `<input type="hidden" name="` + middleware.CSRFFormField + `" value="` + templ.EscapeString(token) + `">`
}

// Login renders the sign-in form
func Login(errorMessage, csrfToken string) templ.Component {
	form := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<main class="login"><h1>Sign in</h1>`
		if errorMessage != "" {
			html += `<div class="form-error" role="alert">` + templ.EscapeString(errorMessage) + `</div>`
		}
		html += `<form method="post" action="/login">` + csrfField(csrfToken) +
			`<label>Email <input type="email" name="email" required></label>` +
			`<label>Password <input type="password" name="password" required></label>` +
			`<button type="submit">Sign in</button></form></main>`
		_, err := io.WriteString(w, html)
		return err
	})
	return Layout("Sign in | Clinic Flow", csrfToken, false, form)
}

// Notifications renders the full notification list, the "view all" destination
func Notifications(items []models.Notification, unread int, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<main class="notifications-page"><h1>All notifications</h1>`); err != nil {
			return err
		}
		if err := partials.NotificationDropdown(items, unread).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main>`)
		return err
	})
	return Layout("Notifications | Clinic Flow", csrfToken, true, body)
}

// Dashboard is the signed-in landing page
func Dashboard(user *models.User, clinic *models.Clinic, role, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<main class="dashboard"><h1>Welcome, ` + templ.EscapeString(user.Name) + `</h1>`
		if clinic != nil {
			html += `<p class="clinic">` + templ.EscapeString(clinic.Name)
			if role != "" {
				html += ` <span class="role">` + templ.EscapeString(role) + `</span>`
			}
			html += `</p>`
		}
		html += `<nav class="quick-links">` +
			`<a href="/patients">Patients</a>` +
			`<a href="/visits">Visits</a>` +
			`<a href="/appointments">Appointments</a>` +
			`<a href="/notifications">Notifications</a></nav>` +
			`<p class="hint">Press Ctrl+K to search.</p></main>`
		_, err := io.WriteString(w, html)
		return err
	})
	return Layout("Dashboard | Clinic Flow", csrfToken, true, body)
}
