package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meditrack/clinic-ops/internal/followup"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

var (
	ErrMissingName  = errors.New("patient name is required")
	ErrMissingPhone = errors.New("patient phone is required")
)

// VisitReader and FollowupReader supply the two halves of a patient's
// history; implemented by the schedule and followup repositories.
type VisitReader interface {
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]schedule.Appointment, error)
}

type FollowupReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]followup.Followup, error)
}

type Service struct {
	repo      Repository
	visits    VisitReader
	followups FollowupReader
}

func NewService(repo Repository, visits VisitReader, followups FollowupReader) *Service {
	return &Service{
		repo:      repo,
		visits:    visits,
		followups: followups,
	}
}

// Search looks up patients by name or phone. An empty term returns nothing
// rather than the whole roster.
func (s *Service) Search(ctx context.Context, term string) ([]Patient, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	patients, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return patients, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return p, nil
}

// Create registers a patient from the intake flow.
func (s *Service) Create(ctx context.Context, p Patient) (*Patient, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrMissingName
	}
	if strings.TrimSpace(p.Phone) == "" {
		return nil, ErrMissingPhone
	}

	p.ID = uuid.New()
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

// History merges a patient's appointments and follow-ups into one timeline,
// most recent event first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]HistoryItem, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	appts, err := s.visits.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	fups, err := s.followups.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list followups: %w", err)
	}

	items := make([]HistoryItem, 0, len(appts)+len(fups))
	for i := range appts {
		items = append(items, HistoryItem{
			Kind:        HistoryAppointment,
			EventDate:   appts[i].StartTime,
			Appointment: &appts[i],
		})
	}
	for i := range fups {
		items = append(items, HistoryItem{
			Kind:      HistoryFollowup,
			EventDate: fups[i].ScheduledDate,
			Followup:  &fups[i],
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EventDate.After(items[j].EventDate)
	})

	return items, nil
}
