package middleware

import (
	"net/http"
	"strings"

	"clinic_flow_app_go/config"
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "clinic_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
	// ContextKeyClinic is the context key for the resolved services.ClinicContext
	ContextKeyClinic = "clinic"
)

// RoleOwnerOrAdmin may manage clinic-wide resources such as notifications for other staff
var RoleOwnerOrAdmin = []string{models.RoleOwner, models.StaffRoleAdmin}

// sessionToken reads the session cookie, falling back to a bearer token for API clients
func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func isAPIRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// unauthenticated sends API clients a 401 and browsers to the login page
func unauthenticated(c echo.Context) error {
	if isAPIRequest(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// RequireAuth is middleware that requires authentication
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return unauthenticated(c)
			}

			session, err := services.ValidateSession(db.DB, token)
			if err != nil || !session.User.IsActive {
				ClearSessionCookie(c)
				return unauthenticated(c)
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireClinic resolves the clinic the user acts for and rejects users without one
func RequireClinic(dir services.ClinicDirectory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			clinic, err := services.ResolveClinicContext(c.Request().Context(), dir, user.ID)
			if err != nil {
				c.Logger().Errorf("failed to resolve clinic for user %s: %v", user.ID, err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load clinic")
			}
			if !clinic.Resolved() {
				return echo.NewHTTPError(http.StatusForbidden, "No clinic is associated with this account")
			}

			c.Set(ContextKeyClinic, clinic)
			return next(c)
		}
	}
}

// RequireRole is middleware that requires one of the given clinic roles.
// It must run after RequireClinic.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clinic, ok := GetClinicContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			role := clinic.Role()
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// GetClinicContext retrieves the clinic resolved by RequireClinic
func GetClinicContext(c echo.Context) (services.ClinicContext, bool) {
	clinic, ok := c.Get(ContextKeyClinic).(services.ClinicContext)
	return clinic, ok
}

// SetSessionCookie writes the session cookie, expiring with the session
func SetSessionCookie(c echo.Context, session *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func isProduction(c echo.Context) bool {
	if cfg, ok := c.Get("config").(*config.Config); ok {
		return cfg.IsProduction()
	}
	return false
}
