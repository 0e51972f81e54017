package services

import (
	"fmt"
	"testing"
	"time"

	"clinic_flow_app_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.MigrationModels()...))
	return db
}

func stringToPtr(s string) *string {
	return &s
}

// seedClinic creates an owner, a clinic and returns both
func seedClinic(t *testing.T, db *gorm.DB, name string) (*models.User, *models.Clinic) {
	t.Helper()
	owner := &models.User{Name: name + " Owner", Email: uuid.New().String() + "@clinic.test", Password: "x", IsActive: true}
	require.NoError(t, db.Create(owner).Error)
	clinic := &models.Clinic{OwnerID: owner.ID, Name: name}
	require.NoError(t, db.Create(clinic).Error)
	return owner, clinic
}

func seedNotification(t *testing.T, db *gorm.DB, userID, title string, read bool, createdAt time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{UserID: userID, Title: title, Type: models.NotificationTypeOther, CreatedAt: createdAt}
	require.NoError(t, db.Create(n).Error)
	if read {
		require.NoError(t, db.Model(n).Update("is_read", true).Error)
		n.IsRead = true
	}
	return n
}
