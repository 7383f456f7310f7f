package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrBlockerNotFound     = errors.New("blocker not found")
)

// AppointmentUpdate carries the optional fields a status transition may
// attach. Nil fields are left untouched.
type AppointmentUpdate struct {
	CheckedInTime *time.Time
	Vitals        *Vitals
	Notes         *string
	Prescription  []PrescriptionItem
	InvoiceID     *uuid.UUID
}

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*ClinicService, error)
	ListServices(ctx context.Context) ([]ClinicService, error)

	// Occupancy reads for slot computation and conflict checks. day is
	// date-only; branchID filters appointments when non-nil.
	ListAppointmentsByDate(ctx context.Context, day time.Time, branchID *uuid.UUID) ([]Appointment, error)
	ListBlockersByDate(ctx context.Context, day time.Time, doctorID uuid.UUID) ([]CalendarBlocker, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error)

	CreateBlocker(ctx context.Context, blocker CalendarBlocker) (*CalendarBlocker, error)
	DeleteBlocker(ctx context.Context, id uuid.UUID) error

	// Reminder worker
	FindDueReminders(ctx context.Context, from, until time.Time) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error

	// Audit trail
	InsertEvent(ctx context.Context, ev EventLog) error
}
