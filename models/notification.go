package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeAppointment = "appointment"
	NotificationTypePatient     = "patient"
	NotificationTypeVisit       = "visit"
	NotificationTypeFollowUp    = "follow_up"
	NotificationTypeOther       = "other"
)

// Notification is a per-user event record. Rows are never soft-deleted;
// deleting one from the dropdown removes it.
type Notification struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID   string  `gorm:"type:uuid;not null;index" json:"user_id"`
	ClinicID *string `gorm:"type:uuid;index" json:"clinic_id,omitempty"`

	Type    string  `gorm:"not null;default:other" json:"type"`
	Title   string  `gorm:"not null" json:"title"`
	Message *string `gorm:"type:text" json:"message,omitempty"`

	// Optional reference used for navigation on click
	RelatedID   *string `gorm:"type:uuid" json:"related_id,omitempty"`
	RelatedType *string `json:"related_type,omitempty"`

	IsRead bool `gorm:"not null;default:false;index" json:"is_read"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}
