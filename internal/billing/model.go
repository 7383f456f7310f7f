package billing

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// Invoice is raised once per completed visit. ServiceName and PatientName
// are denormalized at creation time so the invoice stays readable even if
// the catalog changes later.
type Invoice struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ServiceName   string
	Amount        int
	Status        InvoiceStatus
	PatientName   string
	InvoiceDate   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
