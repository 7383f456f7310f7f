package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/clinic-ops/internal/followup"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

type fakeRepo struct {
	patients map[uuid.UUID]*Patient
	searched []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{patients: map[uuid.UUID]*Patient{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (f *fakeRepo) Search(_ context.Context, term string) ([]Patient, error) {
	f.searched = append(f.searched, term)
	var out []Patient
	for _, p := range f.patients {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) ||
			strings.Contains(p.Phone, term) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, p Patient) (*Patient, error) {
	clone := p
	f.patients[p.ID] = &clone
	result := clone
	return &result, nil
}

type stubVisits struct{ appts []schedule.Appointment }

func (s stubVisits) ListAppointmentsByPatient(context.Context, uuid.UUID) ([]schedule.Appointment, error) {
	return s.appts, nil
}

type stubFollowups struct{ fups []followup.Followup }

func (s stubFollowups) ListByPatient(context.Context, uuid.UUID) ([]followup.Followup, error) {
	return s.fups, nil
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestSearchEmptyTermReturnsNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, stubVisits{}, stubFollowups{})

	out, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, repo.searched, "blank searches never hit the store")
}

func TestSearchByNameAndPhone(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, stubVisits{}, stubFollowups{})
	id := uuid.New()
	repo.patients[id] = &Patient{ID: id, Name: "Kavya Reddy", Phone: "9876543210"}

	byName, err := svc.Search(context.Background(), "kavya")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, id, byName[0].ID)

	byPhone, err := svc.Search(context.Background(), "98765")
	require.NoError(t, err)
	assert.Len(t, byPhone, 1)
}

func TestCreateValidatesNameAndPhone(t *testing.T) {
	svc := NewService(newFakeRepo(), stubVisits{}, stubFollowups{})

	_, err := svc.Create(context.Background(), Patient{Phone: "9876543210"})
	assert.ErrorIs(t, err, ErrMissingName)

	_, err = svc.Create(context.Background(), Patient{Name: "Ravi Kumar"})
	assert.ErrorIs(t, err, ErrMissingPhone)

	created, err := svc.Create(context.Background(), Patient{Name: "Ravi Kumar", Phone: "9876543210"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestHistoryMergesNewestFirst(t *testing.T) {
	repo := newFakeRepo()
	patientID := uuid.New()
	repo.patients[patientID] = &Patient{ID: patientID, Name: "Sowmya", Phone: "9876543210"}

	visits := stubVisits{appts: []schedule.Appointment{
		{ID: uuid.New(), PatientID: patientID, StartTime: day(3).Add(10 * time.Hour)},
		{ID: uuid.New(), PatientID: patientID, StartTime: day(1).Add(9 * time.Hour)},
	}}
	fups := stubFollowups{fups: []followup.Followup{
		{ID: uuid.New(), PatientID: patientID, ScheduledDate: day(2)},
	}}

	svc := NewService(repo, visits, fups)
	items, err := svc.History(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, HistoryAppointment, items[0].Kind)
	assert.Equal(t, day(3).Add(10*time.Hour), items[0].EventDate)
	assert.Equal(t, HistoryFollowup, items[1].Kind)
	assert.Equal(t, HistoryAppointment, items[2].Kind)

	for _, item := range items {
		switch item.Kind {
		case HistoryAppointment:
			assert.NotNil(t, item.Appointment)
			assert.Nil(t, item.Followup)
		case HistoryFollowup:
			assert.NotNil(t, item.Followup)
			assert.Nil(t, item.Appointment)
		}
	}
}

func TestHistoryUnknownPatient(t *testing.T) {
	svc := NewService(newFakeRepo(), stubVisits{}, stubFollowups{})

	_, err := svc.History(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
