package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment status constants
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
)

// Appointment is a scheduled slot between a patient and a clinician
type Appointment struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID  string  `gorm:"type:uuid;not null;index" json:"clinic_id"`
	PatientID string  `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID  *string `gorm:"type:uuid;index" json:"doctor_id,omitempty"`

	ScheduledAt     time.Time `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null;default:30" json:"duration_minutes"`
	Reason          string    `json:"reason"`
	Status          string    `gorm:"size:20;default:'scheduled';index" json:"status"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (Appointment) TableName() string {
	return "appointments"
}

// EndTime returns when the appointment slot finishes
func (a *Appointment) EndTime() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
