package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic_flow_app_go/models"

	"gorm.io/gorm"
)

// SearchStore is the scoped read surface used by the search service.
// Every lookup is restricted to one clinic and bounded by limit.
type SearchStore interface {
	SearchPatients(ctx context.Context, clinicID, term string, limit int) ([]models.Patient, error)
	SearchVisits(ctx context.Context, clinicID, term string, limit int) ([]models.Visit, error)
	SearchAppointments(ctx context.Context, clinicID, term string, limit int) ([]models.Appointment, error)
}

// ClinicDirectory resolves which clinic a user belongs to.
// Both lookups return (nil, nil) when nothing matches.
type ClinicDirectory interface {
	FindActiveStaffMembership(ctx context.Context, userID string) (*models.ClinicStaff, error)
	FindOwnedClinic(ctx context.Context, userID string) (*models.Clinic, error)
}

// RecordStore implements SearchStore and ClinicDirectory on top of gorm
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching term anywhere
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (s *RecordStore) SearchPatients(ctx context.Context, clinicID, term string, limit int) ([]models.Patient, error) {
	pattern := containsPattern(term)
	var patients []models.Patient
	err := s.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(mrn) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern).
		Limit(limit).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("patient search failed: %w", err)
	}
	return patients, nil
}

func (s *RecordStore) SearchVisits(ctx context.Context, clinicID, term string, limit int) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("clinic_id = ?", clinicID).
		Where(`LOWER(visit_number) LIKE ? ESCAPE '\'`, containsPattern(term)).
		Limit(limit).
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("visit search failed: %w", err)
	}
	return visits, nil
}

func (s *RecordStore) SearchAppointments(ctx context.Context, clinicID, term string, limit int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Patient").
		Where("clinic_id = ?", clinicID).
		Where(`LOWER(reason) LIKE ? ESCAPE '\'`, containsPattern(term)).
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("appointment search failed: %w", err)
	}
	return appointments, nil
}

func (s *RecordStore) FindActiveStaffMembership(ctx context.Context, userID string) (*models.ClinicStaff, error) {
	var staff models.ClinicStaff
	err := s.db.WithContext(ctx).
		Preload("Clinic").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load staff membership: %w", err)
	}
	if staff.Clinic.ID == "" {
		// membership points at a deleted clinic
		return nil, nil
	}
	return &staff, nil
}

func (s *RecordStore) FindOwnedClinic(ctx context.Context, userID string) (*models.Clinic, error) {
	var clinic models.Clinic
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at ASC").
		First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load owned clinic: %w", err)
	}
	return &clinic, nil
}
