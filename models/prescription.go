package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prescription is a medication ordered during a visit
type Prescription struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID  string `gorm:"type:uuid;not null;index" json:"clinic_id"`
	VisitID   string `gorm:"type:uuid;not null;index" json:"visit_id"`
	PatientID string `gorm:"type:uuid;not null;index" json:"patient_id"`

	Medication   string `gorm:"not null" json:"medication"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days"`
	Instructions string `gorm:"type:text" json:"instructions"`
}

func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (Prescription) TableName() string {
	return "prescriptions"
}
