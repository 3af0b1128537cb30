package user

import (
	"context"
	"errors"

	"github.com/ayurclinic/clinic/internal/domain/patient"
	"github.com/ayurclinic/clinic/internal/platform/auth"
)

// Directory adapts the account repository to the patient allocator's view of
// doctors. Only active doctor accounts are visible through it.
type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) GetDoctor(ctx context.Context, id int64) (*patient.Doctor, error) {
	u, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, patient.ErrDoctorNotFound
		}
		return nil, err
	}
	if u.Role != auth.RoleDoctor || !u.IsActive {
		return nil, patient.ErrDoctorNotFound
	}
	return &patient.Doctor{ID: u.ID, FullName: u.FullName}, nil
}

func (d *Directory) ListDoctors(ctx context.Context) ([]*patient.Doctor, error) {
	users, err := d.repo.List(ctx, auth.RoleDoctor)
	if err != nil {
		return nil, err
	}
	out := make([]*patient.Doctor, 0, len(users))
	for _, u := range users {
		out = append(out, &patient.Doctor{ID: u.ID, FullName: u.FullName})
	}
	return out, nil
}
