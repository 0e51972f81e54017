package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic_flow_app_go/db"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = testDB.AutoMigrate(models.MigrationModels()...)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// Set the global DB variable used by middleware
	db.DB = testDB
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *models.User {
	user := &models.User{Name: "Test User", Email: email, Password: "x", IsActive: true}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "success")
}

func TestRequireAuth(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()

	user := createUser(t, testDB, "test@example.com")
	session, err := services.CreateSession(testDB, user.ID, "127.0.0.1", "test-agent")
	require.NoError(t, err)

	handler := RequireAuth()(okHandler)

	t.Run("ValidSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
		assert.Equal(t, session.Token, GetCurrentSession(c).Token)
	})

	t.Run("BearerToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+session.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
	})

	t.Run("NoCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("HTMXRedirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
	})

	t.Run("APIUnauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		inactive := createUser(t, testDB, "inactive@example.com")
		require.NoError(t, testDB.Model(inactive).Update("is_active", false).Error)
		s, err := services.CreateSession(testDB, inactive.ID, "127.0.0.1", "test-agent")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.Error(t, handler(c))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), SessionCookieName+"=;")
	})
}

func TestRequireClinicAndRole(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()
	store := services.NewRecordStore(testDB)

	owner := createUser(t, testDB, "owner@example.com")
	clinic := &models.Clinic{OwnerID: owner.ID, Name: "Cedar Clinic"}
	require.NoError(t, testDB.Create(clinic).Error)

	nurse := createUser(t, testDB, "nurse@example.com")
	require.NoError(t, testDB.Create(&models.ClinicStaff{ClinicID: clinic.ID, UserID: nurse.ID, Role: models.StaffRoleNurse}).Error)

	stranger := createUser(t, testDB, "stranger@example.com")

	run := func(user *models.User, roles ...string) (*httptest.ResponseRecorder, echo.Context, error) {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUser, user)

		handler := okHandler
		if len(roles) > 0 {
			handler = RequireRole(roles...)(handler)
		}
		err := RequireClinic(store)(handler)(c)
		return rec, c, err
	}

	t.Run("Owner", func(t *testing.T) {
		rec, c, err := run(owner, RoleOwnerOrAdmin...)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		clinicCtx, ok := GetClinicContext(c)
		require.True(t, ok)
		assert.Equal(t, clinic.ID, clinicCtx.ClinicID())
		assert.Equal(t, models.RoleOwner, clinicCtx.Role())
	})

	t.Run("StaffWithoutRole", func(t *testing.T) {
		_, _, err := run(nurse, RoleOwnerOrAdmin...)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("StaffAnyRole", func(t *testing.T) {
		rec, _, err := run(nurse)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NoClinic", func(t *testing.T) {
		_, _, err := run(stranger)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})
}
