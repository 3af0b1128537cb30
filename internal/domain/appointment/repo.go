package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/ayurclinic/clinic/pkg/pagination"
)

var ErrNotFound = errors.New("appointment not found")

// ListFilter narrows an appointment listing. Date, when set, selects the
// calendar day containing it.
type ListFilter struct {
	DoctorID int64
	Date     *time.Time
	pagination.Params
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, f ListFilter) ([]*Appointment, int64, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Appointment, error)
	CountToday(ctx context.Context, doctorID int64, now time.Time) (int64, error)
}
