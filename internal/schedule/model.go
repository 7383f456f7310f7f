package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCheckedIn AppointmentStatus = "checked_in"
	StatusInConsult AppointmentStatus = "in_consult"
	StatusCompleted AppointmentStatus = "completed"
	StatusCanceled  AppointmentStatus = "canceled"
)

// forwardTransitions is the visit flow from booking to completion. Cancel is
// handled separately since it is allowed from any pre-completion state.
var forwardTransitions = map[AppointmentStatus]AppointmentStatus{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusCheckedIn,
	StatusCheckedIn: StatusInConsult,
	StatusInConsult: StatusCompleted,
}

// CanAdvance reports whether from -> to is a single forward step.
func CanAdvance(from, to AppointmentStatus) bool {
	return forwardTransitions[from] == to
}

// CanCancel reports whether a visit in the given state may still be canceled.
func CanCancel(from AppointmentStatus) bool {
	return from != StatusCompleted && from != StatusCanceled
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	DOB       *string
	Gender    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClinicService is a bookable service from the catalog. Its duration fixes
// the length of every appointment booked for it.
type ClinicService struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	Price           int
}

type Vitals struct {
	BP       string  `json:"bp"`
	TempC    float64 `json:"temp"`
	WeightKG float64 `json:"weight"`
}

type PrescriptionItem struct {
	Medicine  string `json:"medicine"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Appointment occupies the half-open interval [StartTime, EndTime), with
// EndTime = StartTime + service duration.
type Appointment struct {
	ID            uuid.UUID
	BranchID      uuid.UUID
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	ServiceID     uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Status        AppointmentStatus
	CheckedInTime *time.Time
	Vitals        *Vitals
	Notes         *string
	Prescription  []PrescriptionItem
	InvoiceID     *uuid.UUID
	ReminderSent  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CalendarBlocker is doctor-unavailable time. It occupies [StartTime,
// EndTime) like an appointment for conflict purposes but never becomes a
// billable event.
type CalendarBlocker struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Reason    string
	CreatedAt time.Time
}

// Slot is a candidate appointment start time for a single day. Slots are
// derived per query and never persisted.
type Slot struct {
	Time        string // HH:MM, clinic-local
	Recommended bool
}

type EventLog struct {
	ID        int64
	EventType string
	SubjectID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
