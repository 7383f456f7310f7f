package followup

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusSnoozed  Status = "snoozed"
	StatusCanceled Status = "canceled"
)

// IsTerminal reports whether a follow-up record accepts no further
// transitions. Snoozed records are still active obligations.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCanceled
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityUrgent: 4,
	PriorityHigh:   3,
	PriorityNormal: 2,
	PriorityLow:    1,
}

func (p Priority) Rank() int {
	return priorityRank[p]
}

type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
)

// Recurrence regenerates a follow-up after completion: the next occurrence is
// Interval units of Type after the completed record's scheduled date.
type Recurrence struct {
	Type     RecurrenceType `json:"type"`
	Interval int            `json:"interval"`
}

// Followup is a scheduled non-appointment contact task. It belongs to exactly
// one calendar date at a time: snoozing moves ScheduledDate in place, it never
// duplicates the record.
type Followup struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	PatientName   string // joined from the patient record for display/filtering
	PatientPhone  string
	DoctorID      uuid.UUID
	BranchID      uuid.UUID
	ScheduledDate time.Time // date granularity, midnight in the clinic zone
	ScheduledTime *string   // HH:MM:SS, optional
	Status        Status
	Priority      Priority
	Recurrence    *Recurrence
	Notes         *string
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overdue reports whether a pending follow-up's date has already passed.
func (f Followup) Overdue(now time.Time) bool {
	if f.Status != StatusPending {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return f.ScheduledDate.Before(today)
}
