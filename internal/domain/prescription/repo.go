package prescription

import (
	"context"
	"errors"

	"github.com/ayurclinic/clinic/pkg/pagination"
)

var ErrNotFound = errors.New("prescription not found")

// ListFilter narrows a prescription listing.
type ListFilter struct {
	DoctorID  int64
	PatientID int64
	pagination.Params
}

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	List(ctx context.Context, f ListFilter) ([]*Prescription, int64, error)
}
