package followup

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFollowupNotFound = errors.New("followup not found")
)

// FollowupUpdate carries the mutable fields of a lifecycle transition. Nil
// fields are left untouched.
type FollowupUpdate struct {
	Status        *Status
	ScheduledDate *time.Time
}

// Repository contains all DB interactions needed by the lifecycle manager.
// List reads exclude canceled records; they are conceptually destroyed.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Followup, error)
	ListByDate(ctx context.Context, day time.Time, branchID *uuid.UUID) ([]Followup, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Followup, error)
	Create(ctx context.Context, f Followup) (*Followup, error)
	Update(ctx context.Context, id uuid.UUID, upd FollowupUpdate) (*Followup, error)

	// CountPendingInRange returns pending follow-up counts keyed by
	// YYYY-MM-DD, for calendar badges.
	CountPendingInRange(ctx context.Context, from, to time.Time, branchID *uuid.UUID) (map[string]int, error)
}
