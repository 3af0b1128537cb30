package loginlog

import (
	"context"

	"github.com/ayurclinic/clinic/pkg/pagination"
)

// Filter narrows an audit query. Zero values mean no constraint.
type Filter struct {
	UserID int64
	Status Status
	pagination.Params
}

// Repository is append plus filtered reads. Entries are immutable; there is
// deliberately no update or delete.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	Query(ctx context.Context, f Filter) ([]*Entry, int64, error)
}
