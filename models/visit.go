package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit status constants
const (
	VisitStatusOpen      = "open"
	VisitStatusCompleted = "completed"
	VisitStatusCancelled = "cancelled"
)

// Visit is a single clinical encounter with a patient
type Visit struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID  string  `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PatientID string  `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID  *string `gorm:"type:uuid;index" json:"doctor_id,omitempty"`

	VisitNumber    string    `gorm:"not null;index" json:"visit_number"`
	VisitDate      time.Time `gorm:"not null;index" json:"visit_date"`
	ChiefComplaint string    `gorm:"type:text" json:"chief_complaint"`
	Diagnosis      string    `gorm:"type:text" json:"diagnosis"`
	Notes          string    `gorm:"type:text" json:"notes"`
	Status         string    `gorm:"size:20;default:'open'" json:"status"`

	Patient       Patient        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Prescriptions []Prescription `gorm:"foreignKey:VisitID" json:"prescriptions,omitempty"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

func (Visit) TableName() string {
	return "visits"
}
