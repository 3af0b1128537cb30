package patient

import (
	"context"
	"errors"

	"github.com/ayurclinic/clinic/pkg/pagination"
)

var ErrNotFound = errors.New("patient not found")

// ListFilter narrows a patient listing. DoctorID zero means all doctors,
// which only admin callers are allowed to request.
type ListFilter struct {
	DoctorID int64
	Search   string
	pagination.Params
}

// Repository is the persistence boundary for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	List(ctx context.Context, f ListFilter) ([]*Patient, int64, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Patient, error)
	Recent(ctx context.Context, doctorID int64, limit int) ([]*Patient, error)
	CountByDoctor(ctx context.Context, doctorID int64) (int64, error)
}
