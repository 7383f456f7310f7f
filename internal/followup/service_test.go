package followup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Followup

	failCreate bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[uuid.UUID]*Followup{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Followup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, ErrFollowupNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRepo) ListByDate(_ context.Context, day time.Time, branchID *uuid.UUID) ([]Followup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Followup
	for _, r := range f.records {
		if r.Status == StatusCanceled || !r.ScheduledDate.Equal(day) {
			continue
		}
		if branchID != nil && r.BranchID != *branchID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Followup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Followup
	for _, r := range f.records {
		if r.PatientID == patientID && r.Status != StatusCanceled {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, rec Followup) (*Followup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return nil, errors.New("store unavailable")
	}
	clone := rec
	f.records[rec.ID] = &clone
	result := clone
	return &result, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, upd FollowupUpdate) (*Followup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, ErrFollowupNotFound
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.ScheduledDate != nil {
		r.ScheduledDate = *upd.ScheduledDate
	}
	clone := *r
	return &clone, nil
}

func (f *fakeRepo) CountPendingInRange(_ context.Context, from, to time.Time, branchID *uuid.UUID) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, r := range f.records {
		if r.Status != StatusPending {
			continue
		}
		if r.ScheduledDate.Before(from) || r.ScheduledDate.After(to) {
			continue
		}
		if branchID != nil && r.BranchID != *branchID {
			continue
		}
		counts[r.ScheduledDate.Format("2006-01-02")]++
	}
	return counts, nil
}

func (f *fakeRepo) byDate(day time.Time) []Followup {
	out, _ := f.ListByDate(context.Background(), day, nil)
	return out
}

var baseDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func seedFollowup(repo *fakeRepo, mutate func(*Followup)) *Followup {
	rec := &Followup{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		BranchID:      uuid.New(),
		PatientName:   "Kavya Reddy",
		ScheduledDate: baseDate,
		Status:        StatusPending,
		Priority:      PriorityNormal,
	}
	if mutate != nil {
		mutate(rec)
	}
	repo.records[rec.ID] = rec
	return rec
}

func TestCreateDefaultsToNormalPendingMidnight(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateParams{
		PatientID:     uuid.New(),
		ScheduledDate: time.Date(2024, 6, 1, 15, 42, 7, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, PriorityNormal, created.Priority)
	assert.Equal(t, baseDate, created.ScheduledDate)
}

func TestCreateRequiresPatientAndDate(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateParams{ScheduledDate: baseDate})
	assert.ErrorIs(t, err, ErrMissingPatient)

	_, err = svc.Create(context.Background(), CreateParams{PatientID: uuid.New()})
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestMarkDoneNonRecurring(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, nil)

	updated, err := svc.MarkDone(context.Background(), rec.ID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, StatusDone, updated.Status)
	assert.Len(t, repo.records, 1, "no successor for a non-recurring followup")
}

func TestMarkDoneDailyRecurrenceSpawnsSuccessor(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	notes := "check sugar levels"
	scheduledTime := "10:30"
	rec := seedFollowup(repo, func(f *Followup) {
		f.Recurrence = &Recurrence{Type: RecurDaily, Interval: 7}
		f.Priority = PriorityHigh
		f.Notes = &notes
		f.ScheduledTime = &scheduledTime
	})
	actor := uuid.New()

	updated, err := svc.MarkDone(context.Background(), rec.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, updated.Status)

	require.Len(t, repo.records, 2)
	next := repo.byDate(time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC))
	require.Len(t, next, 1)
	successor := next[0]

	assert.Equal(t, StatusPending, successor.Status)
	assert.Equal(t, rec.PatientID, successor.PatientID)
	assert.Equal(t, rec.DoctorID, successor.DoctorID)
	assert.Equal(t, PriorityHigh, successor.Priority)
	assert.Equal(t, rec.Recurrence, successor.Recurrence)
	assert.Equal(t, &notes, successor.Notes)
	assert.Equal(t, &scheduledTime, successor.ScheduledTime)
	assert.Equal(t, actor, successor.CreatedBy)
}

func TestMarkDoneUnsupportedRecurrenceLeavesRecordUnchanged(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, func(f *Followup) {
		f.Recurrence = &Recurrence{Type: RecurWeekly, Interval: 2}
	})

	_, err := svc.MarkDone(context.Background(), rec.ID, uuid.New())
	assert.ErrorIs(t, err, ErrUnsupportedRecurrence)

	reloaded, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reloaded.Status)
	assert.Len(t, repo.records, 1)
}

func TestMarkDoneSuccessorCreateFailureKeepsCompletion(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, func(f *Followup) {
		f.Recurrence = &Recurrence{Type: RecurDaily, Interval: 1}
	})
	repo.failCreate = true

	updated, err := svc.MarkDone(context.Background(), rec.ID, uuid.New())
	require.Error(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, StatusDone, updated.Status)

	reloaded, err := repo.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, reloaded.Status, "completion stands even when the successor fails")
}

func TestMarkDoneTerminalRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, func(f *Followup) { f.Status = StatusDone })

	_, err := svc.MarkDone(context.Background(), rec.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTerminalState)
}

func TestSnoozeMovesDateInPlace(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, nil)

	updated, err := svc.Snooze(context.Background(), rec.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusSnoozed, updated.Status)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), updated.ScheduledDate)
	assert.Empty(t, repo.byDate(baseDate), "snoozed record leaves the original date")
	assert.Len(t, repo.records, 1, "snooze mutates, never copies")
}

func TestSnoozeRejectsNonPositiveDays(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	rec := seedFollowup(repo, nil)

	_, err := svc.Snooze(context.Background(), rec.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidSnoozeDays)

	_, err = svc.Snooze(context.Background(), rec.ID, -2)
	assert.ErrorIs(t, err, ErrInvalidSnoozeDays)
}

func TestBulkMarkDonePartialFailureKeepsSuccesses(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	a := seedFollowup(repo, nil)
	b := seedFollowup(repo, func(f *Followup) { f.Status = StatusDone }) // terminal, will fail
	c := seedFollowup(repo, nil)

	err := svc.BulkMarkDone(context.Background(), []uuid.UUID{a.ID, b.ID, c.ID}, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminalState)
	assert.Contains(t, err.Error(), "1 of 3 failed")

	for _, id := range []uuid.UUID{a.ID, c.ID} {
		reloaded, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusDone, reloaded.Status, "successes are not rolled back")
	}
}

func TestBulkSnoozeAllSucceed(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	a := seedFollowup(repo, nil)
	b := seedFollowup(repo, nil)

	require.NoError(t, svc.BulkSnooze(context.Background(), []uuid.UUID{a.ID, b.ID}, 2))

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		reloaded, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusSnoozed, reloaded.Status)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), reloaded.ScheduledDate)
	}
}

func TestNextOccurrence(t *testing.T) {
	next, err := NextOccurrence(baseDate, Recurrence{Type: RecurDaily, Interval: 7})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC), next)

	_, err = NextOccurrence(baseDate, Recurrence{Type: RecurWeekly, Interval: 1})
	assert.ErrorIs(t, err, ErrUnsupportedRecurrence)

	_, err = NextOccurrence(baseDate, Recurrence{Type: RecurMonthly, Interval: 1})
	assert.ErrorIs(t, err, ErrUnsupportedRecurrence)

	_, err = NextOccurrence(baseDate, Recurrence{Type: RecurDaily, Interval: 0})
	assert.ErrorIs(t, err, ErrUnsupportedRecurrence)
}

func TestPendingCountsKeyedByDate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	seedFollowup(repo, nil)
	seedFollowup(repo, nil)
	seedFollowup(repo, func(f *Followup) {
		f.ScheduledDate = time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	})
	seedFollowup(repo, func(f *Followup) { f.Status = StatusDone })

	counts, err := svc.PendingCounts(context.Background(), baseDate, baseDate.AddDate(0, 0, 6), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"2024-06-01": 2,
		"2024-06-02": 1,
	}, counts)
}
