package payment

import (
	"context"
	"errors"

	"github.com/ayurclinic/clinic/pkg/pagination"
)

var ErrNotFound = errors.New("payment not found")

// ListFilter narrows a payment listing. DoctorID scopes through the owning
// patient since payments carry no doctor column.
type ListFilter struct {
	DoctorID  int64
	PatientID int64
	Status    Status
	pagination.Params
}

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id int64) (*Payment, error)
	List(ctx context.Context, f ListFilter) ([]*Payment, int64, error)
	UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*Payment, error)
	// OwnerDoctor returns the doctor owning the payment's patient.
	OwnerDoctor(ctx context.Context, id int64) (int64, error)
}
