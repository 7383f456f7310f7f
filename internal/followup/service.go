package followup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrTerminalState         = errors.New("followup is already done or canceled")
	ErrUnsupportedRecurrence = errors.New("unsupported recurrence type")
	ErrInvalidSnoozeDays     = errors.New("snooze days must be positive")
	ErrMissingPatient        = errors.New("patient is required")
	ErrMissingDate           = errors.New("scheduled date is required")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateParams struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	BranchID      uuid.UUID
	ScheduledDate time.Time
	ScheduledTime *string
	Priority      Priority
	Recurrence    *Recurrence
	Notes         *string
	CreatedBy     uuid.UUID
}

// Create registers a new pending follow-up from the intake flow.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Followup, error) {
	if p.PatientID == uuid.Nil {
		return nil, ErrMissingPatient
	}
	if p.ScheduledDate.IsZero() {
		return nil, ErrMissingDate
	}
	if p.Priority == "" {
		p.Priority = PriorityNormal
	}

	created, err := s.repo.Create(ctx, Followup{
		ID:            uuid.New(),
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		BranchID:      p.BranchID,
		ScheduledDate: dateOnly(p.ScheduledDate),
		ScheduledTime: p.ScheduledTime,
		Status:        StatusPending,
		Priority:      p.Priority,
		Recurrence:    p.Recurrence,
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create followup: %w", err)
	}
	return created, nil
}

// MarkDone closes a follow-up. For a recurring record the next occurrence
// date is computed before any write, so an unsupported recurrence fails fast
// and leaves the record unchanged. The successor carries forward doctor,
// branch, time, priority, recurrence, and notes, reset to pending.
func (s *Service) MarkDone(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Followup, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load followup: %w", err)
	}
	if record.Status.IsTerminal() {
		return nil, ErrTerminalState
	}

	var nextDate time.Time
	if record.Recurrence != nil {
		nextDate, err = NextOccurrence(record.ScheduledDate, *record.Recurrence)
		if err != nil {
			return nil, err
		}
	}

	done := StatusDone
	updated, err := s.repo.Update(ctx, id, FollowupUpdate{Status: &done})
	if err != nil {
		return nil, fmt.Errorf("mark followup done: %w", err)
	}

	if record.Recurrence != nil {
		_, err := s.repo.Create(ctx, Followup{
			ID:            uuid.New(),
			PatientID:     record.PatientID,
			DoctorID:      record.DoctorID,
			BranchID:      record.BranchID,
			ScheduledDate: nextDate,
			ScheduledTime: record.ScheduledTime,
			Status:        StatusPending,
			Priority:      record.Priority,
			Recurrence:    record.Recurrence,
			Notes:         record.Notes,
			CreatedBy:     actorID,
		})
		if err != nil {
			// The original is already done; surface the regeneration
			// failure so staff can recreate the task by hand.
			return updated, fmt.Errorf("schedule next occurrence: %w", err)
		}
		log.Printf("followup %s recurred, next occurrence %s", id, nextDate.Format("2006-01-02"))
	}

	return updated, nil
}

// Snooze defers a follow-up by the given number of days. The record moves to
// the new date in place; it disappears from the originally queried date's
// list.
func (s *Service) Snooze(ctx context.Context, id uuid.UUID, days int) (*Followup, error) {
	if days <= 0 {
		return nil, ErrInvalidSnoozeDays
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load followup: %w", err)
	}
	if record.Status.IsTerminal() {
		return nil, ErrTerminalState
	}

	newDate := record.ScheduledDate.AddDate(0, 0, days)
	snoozed := StatusSnoozed
	updated, err := s.repo.Update(ctx, id, FollowupUpdate{
		Status:        &snoozed,
		ScheduledDate: &newDate,
	})
	if err != nil {
		return nil, fmt.Errorf("snooze followup: %w", err)
	}

	return updated, nil
}

// BulkMarkDone applies MarkDone to every id concurrently. Partial failure is
// reported as one aggregate error without rolling back the records that
// succeeded; callers must re-query to learn true state.
func (s *Service) BulkMarkDone(ctx context.Context, ids []uuid.UUID, actorID uuid.UUID) error {
	errs := s.bulk(ctx, ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.MarkDone(ctx, id, actorID)
		return err
	})
	if len(errs) > 0 {
		return fmt.Errorf("bulk mark done (%d of %d failed): %w", len(errs), len(ids), errors.Join(errs...))
	}
	return nil
}

// BulkSnooze applies Snooze to every id concurrently, with the same partial
// failure semantics as BulkMarkDone.
func (s *Service) BulkSnooze(ctx context.Context, ids []uuid.UUID, days int) error {
	if days <= 0 {
		return ErrInvalidSnoozeDays
	}
	errs := s.bulk(ctx, ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.Snooze(ctx, id, days)
		return err
	})
	if len(errs) > 0 {
		return fmt.Errorf("bulk snooze (%d of %d failed): %w", len(errs), len(ids), errors.Join(errs...))
	}
	return nil
}

// bulk fans the operation out without cancelling siblings on failure: each
// update is independent and successes must be retained.
func (s *Service) bulk(ctx context.Context, ids []uuid.UUID, op func(ctx context.Context, id uuid.UUID) error) []error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := op(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("followup %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

// ListForDate fetches a date's follow-ups and applies the presentation
// contract: priority-descending stable sort, then the status and patient-name
// filters.
func (s *Service) ListForDate(ctx context.Context, day time.Time, branchID *uuid.UUID, filter ListFilter) ([]Followup, error) {
	records, err := s.repo.ListByDate(ctx, dateOnly(day), branchID)
	if err != nil {
		return nil, fmt.Errorf("list followups: %w", err)
	}
	return SortAndFilter(records, filter), nil
}

// PendingCounts returns per-date pending counts for a calendar range.
func (s *Service) PendingCounts(ctx context.Context, from, to time.Time, branchID *uuid.UUID) (map[string]int, error) {
	counts, err := s.repo.CountPendingInRange(ctx, dateOnly(from), dateOnly(to), branchID)
	if err != nil {
		return nil, fmt.Errorf("count pending followups: %w", err)
	}
	return counts, nil
}

// NextOccurrence computes the follow-up date that succeeds completing a
// recurring record. Only daily recurrence has a defined advance policy;
// weekly and monthly are rejected rather than miscalculated.
func NextOccurrence(scheduled time.Time, rec Recurrence) (time.Time, error) {
	if rec.Interval <= 0 {
		return time.Time{}, fmt.Errorf("%w: interval %d", ErrUnsupportedRecurrence, rec.Interval)
	}
	switch rec.Type {
	case RecurDaily:
		return scheduled.AddDate(0, 0, rec.Interval), nil
	case RecurWeekly, RecurMonthly:
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnsupportedRecurrence, rec.Type)
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnsupportedRecurrence, rec.Type)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
