package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID string `gorm:"type:uuid;not null;index" json:"clinic_id"`

	FirstName   string     `gorm:"not null" json:"first_name"`
	LastName    string     `gorm:"not null" json:"last_name"`
	MRN         string     `gorm:"column:mrn;index" json:"mrn"` // medical record number
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender"`
	BloodType   string     `json:"blood_type"`
	Allergies   string     `gorm:"type:text" json:"allergies"`

	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"-"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

func (Patient) TableName() string {
	return "patients"
}

// FullName joins first and last name, skipping empty parts
func (p *Patient) FullName() string {
	return strings.TrimSpace(strings.Join([]string{p.FirstName, p.LastName}, " "))
}
