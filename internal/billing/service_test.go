package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*Invoice
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: map[uuid.UUID]*Invoice{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	clone := *inv
	return &clone, nil
}

func (f *fakeRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.AppointmentID == appointmentID {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (f *fakeRepo) ListByDateRange(_ context.Context, from, to string) ([]Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Invoice
	for _, inv := range f.invoices {
		day := inv.InvoiceDate.Format("2006-01-02")
		if day >= from && day <= to {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, inv Invoice) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := inv
	f.invoices[inv.ID] = &clone
	result := clone
	return &result, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to InvoiceStatus) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.Status != from {
		return nil, ErrInvoiceNotFound
	}
	inv.Status = to
	clone := *inv
	return &clone, nil
}

func TestCreateInvoiceIdempotentPerAppointment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	apptID := uuid.New()

	first, err := svc.CreateInvoice(context.Background(), apptID, "Consultation", 500, "Sowmya")
	require.NoError(t, err)

	second, err := svc.CreateInvoice(context.Background(), apptID, "Consultation", 500, "Sowmya")
	require.NoError(t, err)

	assert.Equal(t, first, second, "same visit always maps to the same invoice")
	assert.Len(t, repo.invoices, 1)
}

func TestCreateInvoiceDenormalizesFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }
	apptID := uuid.New()

	id, err := svc.CreateInvoice(context.Background(), apptID, "Extended Consultation", 900, "Ravi Kumar")
	require.NoError(t, err)

	inv, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, apptID, inv.AppointmentID)
	assert.Equal(t, "Extended Consultation", inv.ServiceName)
	assert.Equal(t, 900, inv.Amount)
	assert.Equal(t, "Ravi Kumar", inv.PatientName)
	assert.Equal(t, InvoicePending, inv.Status)
	assert.Equal(t, "2024-06-03", inv.InvoiceDate.Format("2006-01-02"))
}

func TestRecordPayment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	id, err := svc.CreateInvoice(context.Background(), uuid.New(), "Consultation", 500, "Sowmya")
	require.NoError(t, err)

	paid, err := svc.RecordPayment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, InvoicePaid, paid.Status)

	_, err = svc.RecordPayment(context.Background(), id)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestRecordPaymentUnknownInvoice(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.RecordPayment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestListForRange(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	seed := func(day time.Time, amount int) {
		svc.now = func() time.Time { return day }
		_, err := svc.CreateInvoice(context.Background(), uuid.New(), "Consultation", amount, "Sowmya")
		require.NoError(t, err)
	}
	seed(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), 500)
	seed(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC), 300)
	seed(time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC), 900)

	invoices, err := svc.ListForRange(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, invoices, 2)
}
