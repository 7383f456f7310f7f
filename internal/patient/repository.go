package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Search matches a case-insensitive name substring or a phone substring.
	Search(ctx context.Context, term string) ([]Patient, error)
	Create(ctx context.Context, p Patient) (*Patient, error)
}
