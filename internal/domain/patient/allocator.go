package patient

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDoctorNotFound is returned when an identifier is requested for a
	// doctor id that does not resolve to an active doctor account.
	ErrDoctorNotFound = errors.New("doctor not found")
)

// Doctor is the slice of a user account the allocator needs.
type Doctor struct {
	ID       int64
	FullName string
}

// DoctorDirectory resolves doctor accounts. The user package implements it.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]*Doctor, error)
}

// CounterStore hands out per-doctor sequence numbers. Next must be atomic:
// concurrent calls for the same doctor must never return the same value.
type CounterStore interface {
	Next(ctx context.Context, doctorID int64) (int64, error)
}

// Allocator mints human-readable patient identifiers of the form
// <prefix><count>, where the prefix is derived from the owning doctor's name
// and the count is a per-doctor sequence starting at 1.
type Allocator struct {
	doctors  DoctorDirectory
	counters CounterStore
}

func NewAllocator(doctors DoctorDirectory, counters CounterStore) *Allocator {
	return &Allocator{doctors: doctors, counters: counters}
}

// Generate returns the next patient identifier for doctorID.
func (a *Allocator) Generate(ctx context.Context, doctorID int64) (string, error) {
	doc, err := a.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return "", err
	}
	prefix, err := a.prefixFor(ctx, doc)
	if err != nil {
		return "", err
	}
	n, err := a.counters.Next(ctx, doctorID)
	if err != nil {
		return "", fmt.Errorf("next patient count for doctor %d: %w", doctorID, err)
	}
	return fmt.Sprintf("%s%d", prefix, n), nil
}

// PrefixFor returns the identifier prefix the allocator would use for the
// given doctor, including the collision fallback against other doctors.
func (a *Allocator) PrefixFor(ctx context.Context, doctorID int64) (string, error) {
	doc, err := a.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return a.prefixFor(ctx, doc)
}

// ValidateNameUniqueness reports whether fullName can be used for a doctor
// account without colliding with the derived prefix of an existing doctor.
// excludeID skips the doctor being renamed, zero excludes nobody.
func (a *Allocator) ValidateNameUniqueness(ctx context.Context, fullName string, excludeID int64) (bool, error) {
	others, err := a.doctors.ListDoctors(ctx)
	if err != nil {
		return false, err
	}
	candidate := DerivePrefix(fullName, excludeID)
	for _, o := range others {
		if o.ID == excludeID {
			continue
		}
		if DerivePrefix(o.FullName, o.ID) == candidate {
			return false, nil
		}
	}
	return true, nil
}

func (a *Allocator) prefixFor(ctx context.Context, doc *Doctor) (string, error) {
	prefix := DerivePrefix(doc.FullName, doc.ID)
	others, err := a.doctors.ListDoctors(ctx)
	if err != nil {
		return "", err
	}
	for _, o := range others {
		if o.ID == doc.ID {
			continue
		}
		if DerivePrefix(o.FullName, o.ID) == prefix {
			return FallbackPrefix(prefix, doc.ID), nil
		}
	}
	return prefix, nil
}
