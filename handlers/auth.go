package handlers

import (
	"errors"
	"net/http"
	"strings"

	"clinic_flow_app_go/db"
	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/services"
	"clinic_flow_app_go/templates/pages"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginHandler renders the login page
func LoginHandler(c echo.Context) error {
	return pages.Login("", middleware.GetCSRFToken(c)).Render(c.Request().Context(), c.Response().Writer)
}

// LoginPostHandler handles the login form or a JSON login from API clients
func LoginPostHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid login request")
	}
	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" || req.Password == "" {
		return loginFailed(c, http.StatusBadRequest, "Email and password are required")
	}

	user, err := services.Authenticate(db.DB, appLogger, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			loginMonitor.Failed(c.RealIP())
		} else {
			appLogger.Error("login failed", zap.Error(err))
		}
		return loginFailed(c, http.StatusUnauthorized, "Invalid email or password")
	}

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		appLogger.Error("failed to create session", zap.String("user_id", user.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}
	loginMonitor.Succeeded(c.RealIP())
	middleware.SetSessionCookie(c, session)

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"token":      session.Token,
			"expires_at": session.ExpiresAt,
			"user":       user,
		})
	}
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func loginFailed(c echo.Context, status int, message string) error {
	if wantsJSON(c) {
		return echo.NewHTTPError(status, message)
	}
	c.Response().WriteHeader(status)
	return pages.Login(message, middleware.GetCSRFToken(c)).Render(c.Request().Context(), c.Response().Writer)
}

// LogoutHandler deletes the session and clears the cookie
func LogoutHandler(c echo.Context) error {
	if session := middleware.GetCurrentSession(c); session != nil {
		if err := services.DeleteSession(db.DB, session.Token); err != nil {
			appLogger.Warn("failed to delete session", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(c)

	if wantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// GetCurrentUserHandler returns the signed-in user and the clinic they act for
func GetCurrentUserHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	clinicCtx, err := services.ResolveClinicContext(c.Request().Context(), recordStore, user.ID)
	if err != nil {
		appLogger.Error("failed to resolve clinic", zap.String("user_id", user.ID), zap.Error(err))
	}

	response := map[string]interface{}{
		"user":   user,
		"clinic": nil,
		"role":   clinicCtx.Role(),
	}
	if clinicCtx.Resolved() {
		response["clinic"] = clinicCtx.Clinic
	}
	return c.JSON(http.StatusOK, response)
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// wantsJSON is true for API routes and JSON bodies
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
