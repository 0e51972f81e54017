package handlers

import (
	"io"
	"net/http/httptest"
	"testing"

	"clinic_flow_app_go/config"
	"clinic_flow_app_go/db"
	"clinic_flow_app_go/middleware"
	"clinic_flow_app_go/models"
	"clinic_flow_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated database, sets db.DB and wires the handler services on a memory broker
func setupTestDB(t *testing.T) (*gorm.DB, *services.MemoryBroker) {
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = testDB.AutoMigrate(models.MigrationModels()...)
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	log := zaptest.NewLogger(t)
	broker := services.NewMemoryBroker(log)
	InitServices(Options{Logger: log, Broker: broker})

	return testDB, broker
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment: "test",
	})

	return e, c, rec
}

// clinicFixture is an owner, a nurse on their staff and the clinic itself
type clinicFixture struct {
	Owner  *models.User
	Nurse  *models.User
	Clinic *models.Clinic
}

func seedClinic(t *testing.T, testDB *gorm.DB) clinicFixture {
	t.Helper()
	hash, err := services.HashPassword("secret-pass")
	require.NoError(t, err)

	owner := &models.User{Name: "Dr. Owner", Email: uuid.New().String() + "@clinic.test", Password: hash, IsActive: true}
	require.NoError(t, testDB.Create(owner).Error)
	clinic := &models.Clinic{OwnerID: owner.ID, Name: "Cedar Clinic"}
	require.NoError(t, testDB.Create(clinic).Error)

	nurse := &models.User{Name: "Nurse Joy", Email: uuid.New().String() + "@clinic.test", Password: hash, IsActive: true}
	require.NoError(t, testDB.Create(nurse).Error)
	require.NoError(t, testDB.Create(&models.ClinicStaff{ClinicID: clinic.ID, UserID: nurse.ID, Role: models.StaffRoleNurse}).Error)

	return clinicFixture{Owner: owner, Nurse: nurse, Clinic: clinic}
}

// actAs puts user and their resolved clinic on the context the way the middleware chain does
func actAs(t *testing.T, c echo.Context, user *models.User) {
	t.Helper()
	c.Set(middleware.ContextKeyUser, user)
	clinicCtx, err := services.ResolveClinicContext(c.Request().Context(), ClinicDirectory(), user.ID)
	require.NoError(t, err)
	if clinicCtx.Resolved() {
		c.Set(middleware.ContextKeyClinic, clinicCtx)
	}
}

func stringToPtr(s string) *string {
	return &s
}
