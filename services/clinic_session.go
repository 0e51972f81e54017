package services

import (
	"context"
	"sync"

	"clinic_flow_app_go/models"

	"go.uber.org/zap"
)

// ClinicContext is the clinic a signed-in user acts for.
// The zero value means no clinic was resolved.
type ClinicContext struct {
	Clinic *models.Clinic
	// Staff is set when the context came from a staff membership
	Staff *models.ClinicStaff
}

// ClinicID returns the resolved clinic id, or ""
func (c ClinicContext) ClinicID() string {
	if c.Clinic == nil {
		return ""
	}
	return c.Clinic.ID
}

// Role is the staff role, "owner" for an owner without a staff row, or "" when unresolved
func (c ClinicContext) Role() string {
	switch {
	case c.Staff != nil:
		return c.Staff.Role
	case c.Clinic != nil:
		return models.RoleOwner
	default:
		return ""
	}
}

func (c ClinicContext) Resolved() bool {
	return c.Clinic != nil
}

// ResolveClinicContext checks active staff membership first and clinic ownership second
func ResolveClinicContext(ctx context.Context, dir ClinicDirectory, userID string) (ClinicContext, error) {
	if userID == "" {
		return ClinicContext{}, nil
	}

	staff, err := dir.FindActiveStaffMembership(ctx, userID)
	if err != nil {
		return ClinicContext{}, err
	}
	if staff != nil {
		clinic := staff.Clinic
		return ClinicContext{Clinic: &clinic, Staff: staff}, nil
	}

	clinic, err := dir.FindOwnedClinic(ctx, userID)
	if err != nil {
		return ClinicContext{}, err
	}
	if clinic != nil {
		return ClinicContext{Clinic: clinic}, nil
	}

	return ClinicContext{}, nil
}

// ClinicSession holds the clinic context for one signed-in user for the
// lifetime of a client session. Consumers only read it; it re-resolves when
// the user changes or Refresh is called.
type ClinicSession struct {
	dir    ClinicDirectory
	logger *zap.Logger

	mu      sync.RWMutex
	userID  string
	current ClinicContext
}

func NewClinicSession(dir ClinicDirectory, logger *zap.Logger) *ClinicSession {
	return &ClinicSession{dir: dir, logger: logger}
}

// SetUser switches identity, resolving the clinic when the user differs from the current one
func (s *ClinicSession) SetUser(ctx context.Context, userID string) {
	s.mu.Lock()
	if s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.userID = userID
	s.current = ClinicContext{}
	s.mu.Unlock()

	s.resolve(ctx, userID)
}

// Refresh re-resolves the clinic for the current user
func (s *ClinicSession) Refresh(ctx context.Context) {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()

	s.resolve(ctx, userID)
}

func (s *ClinicSession) resolve(ctx context.Context, userID string) {
	resolved, err := ResolveClinicContext(ctx, s.dir, userID)
	if err != nil {
		s.logger.Error("failed to resolve clinic context", zap.String("user_id", userID), zap.Error(err))
		resolved = ClinicContext{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a newer SetUser won the race
	if s.userID != userID {
		return
	}
	s.current = resolved
}

// Clear drops the identity on sign-out
func (s *ClinicSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.current = ClinicContext{}
}

func (s *ClinicSession) Current() ClinicContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *ClinicSession) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// ClinicID implements ClinicScope
func (s *ClinicSession) ClinicID() string {
	return s.Current().ClinicID()
}
