package services

import (
	"context"
	"strings"

	"clinic_flow_app_go/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Search result types, in the order their groups are presented
const (
	SearchResultPatient     = "patient"
	SearchResultVisit       = "visit"
	SearchResultAppointment = "appointment"
)

// DefaultSearchLimit bounds each collection's contribution to a search
const DefaultSearchLimit = 5

// SearchResult is built fresh on every search pass and never mutated afterwards
type SearchResult struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Searcher runs one settled query for a clinic
type Searcher interface {
	Search(ctx context.Context, clinicID, query string) []SearchResult
}

// SearchService fans a query out to the patient, visit and appointment collections
type SearchService struct {
	store  SearchStore
	limit  int
	logger *zap.Logger
}

func NewSearchService(store SearchStore, limit int, logger *zap.Logger) *SearchService {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &SearchService{store: store, limit: limit, logger: logger}
}

// Search returns patients, then visits, then appointments matching query.
// A blank query or missing clinic yields an empty result without touching the store.
// A failing collection is logged and contributes nothing.
func (s *SearchService) Search(ctx context.Context, clinicID, query string) []SearchResult {
	term := strings.TrimSpace(query)
	if term == "" || clinicID == "" {
		return []SearchResult{}
	}

	var patients, visits, appointments []SearchResult

	var g errgroup.Group
	g.Go(func() error {
		rows, err := s.store.SearchPatients(ctx, clinicID, term, s.limit)
		if err != nil {
			s.logFailure(SearchResultPatient, clinicID, err)
			return nil
		}
		patients = make([]SearchResult, 0, len(rows))
		for i := range rows {
			patients = append(patients, patientResult(&rows[i]))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.SearchVisits(ctx, clinicID, term, s.limit)
		if err != nil {
			s.logFailure(SearchResultVisit, clinicID, err)
			return nil
		}
		visits = make([]SearchResult, 0, len(rows))
		for i := range rows {
			visits = append(visits, visitResult(&rows[i]))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.SearchAppointments(ctx, clinicID, term, s.limit)
		if err != nil {
			s.logFailure(SearchResultAppointment, clinicID, err)
			return nil
		}
		appointments = make([]SearchResult, 0, len(rows))
		for i := range rows {
			appointments = append(appointments, appointmentResult(&rows[i]))
		}
		return nil
	})
	_ = g.Wait()

	results := make([]SearchResult, 0, len(patients)+len(visits)+len(appointments))
	results = append(results, patients...)
	results = append(results, visits...)
	results = append(results, appointments...)
	return results
}

func (s *SearchService) logFailure(collection, clinicID string, err error) {
	s.logger.Warn("search collection failed",
		zap.String("collection", collection),
		zap.String("clinic_id", clinicID),
		zap.Error(err))
}

func patientResult(p *models.Patient) SearchResult {
	var details []string
	if p.MRN != "" {
		details = append(details, p.MRN)
	}
	if p.Phone != "" {
		details = append(details, p.Phone)
	}
	return SearchResult{
		ID:       p.ID,
		Type:     SearchResultPatient,
		Title:    p.FullName(),
		Subtitle: strings.Join(details, " · "),
	}
}

func visitResult(v *models.Visit) SearchResult {
	return SearchResult{
		ID:       v.ID,
		Type:     SearchResultVisit,
		Title:    "Visit " + v.VisitNumber,
		Subtitle: v.Patient.FullName(),
	}
}

func appointmentResult(a *models.Appointment) SearchResult {
	title := "Appointment"
	if a.Reason != "" {
		title += " " + a.Reason
	}
	subtitle := a.ScheduledAt.Format("Jan 2, 2006 3:04 PM")
	if name := a.Patient.FullName(); name != "" {
		subtitle = name + " · " + subtitle
	}
	return SearchResult{
		ID:       a.ID,
		Type:     SearchResultAppointment,
		Title:    title,
		Subtitle: subtitle,
	}
}
