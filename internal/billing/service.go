package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyPaid = errors.New("invoice is already paid")
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

// CreateInvoice raises a pending invoice for a completed visit. It is
// idempotent per appointment: completing the same visit twice returns the
// existing invoice instead of double-billing.
func (s *Service) CreateInvoice(ctx context.Context, appointmentID uuid.UUID, serviceName string, amount int, patientName string) (uuid.UUID, error) {
	existing, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil && !errors.Is(err, ErrInvoiceNotFound) {
		return uuid.Nil, fmt.Errorf("check existing invoice: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	inv, err := s.repo.Create(ctx, Invoice{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		ServiceName:   serviceName,
		Amount:        amount,
		Status:        InvoicePending,
		PatientName:   patientName,
		InvoiceDate:   s.now(),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create invoice: %w", err)
	}

	return inv.ID, nil
}

// RecordPayment marks a pending invoice paid.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	if inv.Status == InvoicePaid {
		return nil, ErrAlreadyPaid
	}

	paid, err := s.repo.UpdateStatus(ctx, id, InvoicePending, InvoicePaid)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return paid, nil
}

// ListForRange returns invoices raised between from and to inclusive, for
// end-of-day and period reconciliation.
func (s *Service) ListForRange(ctx context.Context, from, to time.Time) ([]Invoice, error) {
	invoices, err := s.repo.ListByDateRange(ctx, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *Service) GetForAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	return inv, nil
}
