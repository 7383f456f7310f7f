package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/clinic-ops/internal/followup"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	DOB       *string
	Gender    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type HistoryKind string

const (
	HistoryAppointment HistoryKind = "appointment"
	HistoryFollowup    HistoryKind = "followup"
)

// HistoryItem is one entry of a patient's merged timeline. Exactly one of
// Appointment or Followup is set, matching Kind.
type HistoryItem struct {
	Kind        HistoryKind
	EventDate   time.Time
	Appointment *schedule.Appointment
	Followup    *followup.Followup
}
