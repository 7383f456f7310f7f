package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/meditrack/clinic-ops/internal/redis"
)

const (
	EventVisitBooked         = "VISIT_BOOKED"
	EventVisitCheckedIn      = "VISIT_CHECKED_IN"
	EventVisitConsultStarted = "VISIT_CONSULT_STARTED"
	EventVisitCompleted      = "VISIT_COMPLETED"
	EventVisitCanceled       = "VISIT_CANCELED"
	EventBlockerCreated      = "BLOCKER_CREATED"
	EventReminderFlagged     = "REMINDER_FLAGGED"
)

var (
	ErrSlotTaken         = errors.New("requested time conflicts with an existing appointment or blocker")
	ErrSlotBeingBooked   = errors.New("time is currently being booked, please retry")
	ErrPastStartTime     = errors.New("appointment start time is in the past")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrNotCancelable     = errors.New("appointment can no longer be canceled")
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
)

// Biller creates the invoice when a visit completes. Implemented by the
// billing service; kept narrow here so schedule does not depend on billing
// internals.
type Biller interface {
	CreateInvoice(ctx context.Context, appointmentID uuid.UUID, serviceName string, amount int, patientName string) (uuid.UUID, error)
}

type BookingRequest struct {
	PatientID uuid.UUID
	ServiceID uuid.UUID
	BranchID  uuid.UUID
	DoctorID  uuid.UUID
	StartTime time.Time
}

// ConsultOutcome is the clinical payload recorded when a consult finishes.
type ConsultOutcome struct {
	Vitals       *Vitals
	Notes        *string
	Prescription []PrescriptionItem
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	biller Biller
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, biller Biller) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		biller: biller,
		now:    time.Now,
	}
}

// AvailableSlots is the single refetch-then-recompute step: it loads the
// service to fix the duration, fetches the day's occupancy fresh, and runs
// the slot computation. UI callers must not cache results across input
// changes.
func (s *Service) AvailableSlots(ctx context.Context, day time.Time, serviceID uuid.UUID, branchID *uuid.UUID, doctorID uuid.UUID) ([]Slot, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	appts, err := s.repo.ListAppointmentsByDate(ctx, day, branchID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	blockers, err := s.repo.ListBlockersByDate(ctx, day, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list blockers: %w", err)
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	return ComputeSlots(day, duration, activeOnly(appts), blockers, s.now()), nil
}

// BookAppointment reserves a start time for a patient. The per doctor, per
// start time lock keeps two concurrent requests for the same opening from
// both passing the conflict check.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	svc, err := s.repo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	if req.StartTime.Before(s.now()) {
		return nil, ErrPastStartTime
	}

	start := req.StartTime
	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, req.DoctorID, start, func(lockCtx context.Context) error {
		// Re-check occupancy inside the critical section.
		appts, err := s.repo.ListAppointmentsByDate(lockCtx, start, nil)
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}
		blockers, err := s.repo.ListBlockersByDate(lockCtx, start, req.DoctorID)
		if err != nil {
			return fmt.Errorf("list blockers: %w", err)
		}
		for _, a := range activeOnly(appts) {
			if a.DoctorID == req.DoctorID && start.Before(a.EndTime) && end.After(a.StartTime) {
				return ErrSlotTaken
			}
		}
		for _, b := range blockers {
			if start.Before(b.EndTime) && end.After(b.StartTime) {
				return ErrSlotTaken
			}
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:        uuid.New(),
			BranchID:  req.BranchID,
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			ServiceID: req.ServiceID,
			StartTime: start,
			EndTime:   end,
			Status:    StatusConfirmed,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventVisitBooked, map[string]any{
			"patient_id": req.PatientID.String(),
			"doctor_id":  req.DoctorID.String(),
			"start_time": start,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// CheckIn moves a confirmed visit to checked_in and stamps the arrival time.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	checkedIn := s.now()
	appt, err := s.advance(ctx, id, StatusCheckedIn, AppointmentUpdate{CheckedInTime: &checkedIn})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, appt.ID, EventVisitCheckedIn, map[string]any{})
	return appt, nil
}

// StartConsult moves a checked-in visit into consultation.
func (s *Service) StartConsult(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.advance(ctx, id, StatusInConsult, AppointmentUpdate{})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, appt.ID, EventVisitConsultStarted, map[string]any{})
	return appt, nil
}

// Complete finishes a consultation, records the clinical outcome, and
// auto-creates the invoice when the visit has none yet. Invoice failure is
// logged but does not undo the completion; the visit can be re-billed later.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, outcome ConsultOutcome) (*Appointment, error) {
	appt, err := s.advance(ctx, id, StatusCompleted, AppointmentUpdate{
		Vitals:       outcome.Vitals,
		Notes:        outcome.Notes,
		Prescription: outcome.Prescription,
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventVisitCompleted, map[string]any{})

	if appt.InvoiceID == nil && s.biller != nil {
		linked, err := s.attachInvoice(ctx, appt)
		if err != nil {
			log.Printf("failed to create invoice for appointment %s: %v", appt.ID, err)
			return appt, nil
		}
		return linked, nil
	}

	return appt, nil
}

// Cancel aborts a visit from any pre-completion state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanCancel(appt.Status) {
		return nil, ErrNotCancelable
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, StatusCanceled, AppointmentUpdate{})
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventVisitCanceled, map[string]any{
		"from": string(appt.Status),
	})

	return updated, nil
}

// CreateBlocker records doctor-unavailable time. Blockers have no status
// machine; they are created and later deleted or simply expire.
func (s *Service) CreateBlocker(ctx context.Context, doctorID uuid.UUID, start, end time.Time, reason string) (*CalendarBlocker, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	blocker, err := s.repo.CreateBlocker(ctx, CalendarBlocker{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Reason:    reason,
	})
	if err != nil {
		return nil, fmt.Errorf("create blocker: %w", err)
	}

	s.logEvent(ctx, blocker.ID, EventBlockerCreated, map[string]any{
		"doctor_id": doctorID.String(),
		"reason":    reason,
	})

	return blocker, nil
}

func (s *Service) DeleteBlocker(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBlocker(ctx, id); err != nil {
		return fmt.Errorf("delete blocker: %w", err)
	}
	return nil
}

func (s *Service) ListBlockers(ctx context.Context, day time.Time, doctorID uuid.UUID) ([]CalendarBlocker, error) {
	blockers, err := s.repo.ListBlockersByDate(ctx, day, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list blockers: %w", err)
	}
	return blockers, nil
}

func (s *Service) ListAppointments(ctx context.Context, day time.Time, branchID *uuid.UUID) ([]Appointment, error) {
	appts, err := s.repo.ListAppointmentsByDate(ctx, day, branchID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) ListServices(ctx context.Context) ([]ClinicService, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FlagUpcomingReminders is called by the reminder worker periodically. It
// marks confirmed visits starting within leadTime whose reminder has not
// gone out yet.
func (s *Service) FlagUpcomingReminders(ctx context.Context, leadTime time.Duration) error {
	now := s.now()
	due, err := s.repo.FindDueReminders(ctx, now, now.Add(leadTime))
	if err != nil {
		return fmt.Errorf("find due reminders: %w", err)
	}

	for _, appt := range due {
		if err := s.repo.MarkReminderSent(ctx, appt.ID); err != nil {
			log.Printf("failed to flag reminder for appointment %s: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventReminderFlagged, map[string]any{
			"start_time": appt.StartTime,
		})
	}

	return nil
}

func (s *Service) advance(ctx context.Context, id uuid.UUID, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanAdvance(appt.Status, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, to, upd)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return updated, nil
}

func (s *Service) attachInvoice(ctx context.Context, appt *Appointment) (*Appointment, error) {
	svc, err := s.repo.GetServiceByID(ctx, appt.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	patient, err := s.repo.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	invoiceID, err := s.biller.CreateInvoice(ctx, appt.ID, svc.Name, svc.Price, patient.Name)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	linked, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusCompleted, StatusCompleted, AppointmentUpdate{
		InvoiceID: &invoiceID,
	})
	if err != nil {
		return nil, fmt.Errorf("link invoice: %w", err)
	}
	return linked, nil
}

func (s *Service) logEvent(ctx context.Context, subjectID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	subj := subjectID

	ev := EventLog{
		EventType: eventType,
		SubjectID: &subj,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for %s: %v", eventType, subjectID, err)
	}
}

// activeOnly drops canceled visits; they no longer occupy their interval.
func activeOnly(appts []Appointment) []Appointment {
	out := appts[:0:0]
	for _, a := range appts {
		if a.Status != StatusCanceled {
			out = append(out, a)
		}
	}
	return out
}
