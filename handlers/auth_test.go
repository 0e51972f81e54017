package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPostHandler(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)

	t.Run("JSON success", func(t *testing.T) {
		body := `{"email":"` + strings.ToUpper(fx.Owner.Email) + `","password":"secret-pass"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/login", strings.NewReader(body))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		require.NoError(t, LoginPostHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, fx.Owner.ID, resp.User.ID)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), middleware.SessionCookieName+"="+resp.Token)

		session, err := services.ValidateSession(testDB, resp.Token)
		require.NoError(t, err)
		assert.Equal(t, fx.Owner.ID, session.UserID)
	})

	t.Run("Form success redirects", func(t *testing.T) {
		form := url.Values{"email": {fx.Nurse.Email}, "password": {"secret-pass"}}
		_, c, rec := setupEcho(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

		require.NoError(t, LoginPostHandler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("Wrong password", func(t *testing.T) {
		form := url.Values{"email": {fx.Owner.Email}, "password": {"nope"}}
		_, c, rec := setupEcho(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

		require.NoError(t, LoginPostHandler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid email or password")
	})

	t.Run("Missing fields JSON", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/login", strings.NewReader(`{"email":""}`))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		err := LoginPostHandler(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestLoginFailuresRaiseAlert(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)

	for i := 0; i < services.FailedLoginThreshold; i++ {
		form := url.Values{"email": {fx.Owner.Email}, "password": {"wrong-pass"}}
		_, c, _ := setupEcho(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		require.NoError(t, LoginPostHandler(c))
	}

	alerts := loginMonitor.RecentAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "192.0.2.1", alerts[0].IP)
}

func TestLogoutHandler(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)
	session, err := services.CreateSession(testDB, fx.Owner.ID, "127.0.0.1", "test")
	require.NoError(t, err)

	_, c, rec := setupEcho(http.MethodPost, "/logout", nil)
	c.Set(middleware.ContextKeySession, session)

	require.NoError(t, LogoutHandler(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	_, err = services.ValidateSession(testDB, session.Token)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestGetCurrentUserHandler(t *testing.T) {
	testDB, _ := setupTestDB(t)
	fx := seedClinic(t, testDB)

	_, c, rec := setupEcho(http.MethodGet, "/api/me", nil)
	c.Set(middleware.ContextKeyUser, fx.Nurse)

	require.NoError(t, GetCurrentUserHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User   models.User    `json:"user"`
		Clinic *models.Clinic `json:"clinic"`
		Role   string         `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fx.Nurse.ID, resp.User.ID)
	require.NotNil(t, resp.Clinic)
	assert.Equal(t, fx.Clinic.ID, resp.Clinic.ID)
	assert.Equal(t, models.StaffRoleNurse, resp.Role)
}
