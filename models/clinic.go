package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff roles
const (
	StaffRoleAdmin        = "admin"
	StaffRoleDoctor       = "doctor"
	StaffRoleNurse        = "nurse"
	StaffRoleReceptionist = "receptionist"

	// RoleOwner is reported for a user who owns the clinic without a staff row
	RoleOwner = "owner"
)

type Clinic struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OwnerID  string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Timezone string `gorm:"not null;default:UTC" json:"timezone"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// BeforeCreate hook to generate UUID and slug
func (c *Clinic) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Slug == "" {
		c.Slug = generateSlug(tx, c.Name)
	}
	return nil
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes       = regexp.MustCompile(`-+`)
)

// generateSlug creates a unique URL-friendly slug from the clinic name
func generateSlug(tx *gorm.DB, name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	if slug == "" {
		slug = "clinic"
	}

	original := slug
	for counter := 1; ; counter++ {
		var count int64
		tx.Model(&Clinic{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			break
		}
		slug = original + "-" + strconv.Itoa(counter)
	}

	return slug
}

func (Clinic) TableName() string {
	return "clinics"
}

// ClinicStaff links a user to the clinic they work at.
type ClinicStaff struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClinicID string `gorm:"type:uuid;not null;index" json:"clinic_id"`
	UserID   string `gorm:"type:uuid;not null;index" json:"user_id"`
	Role     string `gorm:"not null;default:receptionist" json:"role"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	Clinic Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (s *ClinicStaff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (ClinicStaff) TableName() string {
	return "clinic_staff"
}
