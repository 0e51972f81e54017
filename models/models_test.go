package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(MigrationModels()...))
	return db
}

func TestClinicSlugGeneration(t *testing.T) {
	db := setupModelsTestDB(t)

	first := &Clinic{OwnerID: "owner-1", Name: "Sunrise Family Clinic!"}
	require.NoError(t, db.Create(first).Error)
	assert.Equal(t, "sunrise-family-clinic", first.Slug)
	assert.NotEmpty(t, first.ID)

	second := &Clinic{OwnerID: "owner-2", Name: "Sunrise  Family Clinic"}
	require.NoError(t, db.Create(second).Error)
	assert.Equal(t, "sunrise-family-clinic-1", second.Slug)

	blank := &Clinic{OwnerID: "owner-3", Name: "***"}
	require.NoError(t, db.Create(blank).Error)
	assert.Equal(t, "clinic", blank.Slug)
}

func TestPatientFullName(t *testing.T) {
	assert.Equal(t, "Ali Hassan", (&Patient{FirstName: "Ali", LastName: "Hassan"}).FullName())
	assert.Equal(t, "Ali", (&Patient{FirstName: "Ali"}).FullName())
	assert.Equal(t, "", (&Patient{}).FullName())
}

func TestNotificationDefaults(t *testing.T) {
	db := setupModelsTestDB(t)

	n := &Notification{UserID: "user-1", Title: "New patient registered"}
	require.NoError(t, db.Create(n).Error)

	var stored Notification
	require.NoError(t, db.First(&stored, "id = ?", n.ID).Error)
	assert.False(t, stored.IsRead)
	assert.Equal(t, NotificationTypeOther, stored.Type)
	assert.False(t, stored.CreatedAt.IsZero())
}
