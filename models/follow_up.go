package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FollowUpStatusPending   = "pending"
	FollowUpStatusCompleted = "completed"
)

// FollowUp is a reminder to re-contact a patient after a visit
type FollowUp struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID  string  `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PatientID string  `gorm:"type:uuid;not null;index" json:"patient_id"`
	VisitID   *string `gorm:"type:uuid;index" json:"visit_id,omitempty"`

	DueDate time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Notes   string    `gorm:"type:text" json:"notes"`
	Status  string    `gorm:"size:20;default:'pending'" json:"status"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (f *FollowUp) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

func (FollowUp) TableName() string {
	return "follow_ups"
}
