package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	ListByDateRange(ctx context.Context, from, to string) ([]Invoice, error)
	Create(ctx context.Context, inv Invoice) (*Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to InvoiceStatus) (*Invoice, error)
}
