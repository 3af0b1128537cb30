package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/patient"
)

var ErrValidation = errors.New("validation failed")

// PatientSource resolves patients for ownership checks.
type PatientSource interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientSource
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientSource, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		logger:   logger.With().Str("component", "payment-service").Logger(),
	}
}

// Create records a pending payment against a patient. doctorID zero skips
// the ownership check, which only the admin path uses.
func (s *Service) Create(ctx context.Context, doctorID int64, params CreateParams) (*Payment, error) {
	if params.PatientID == 0 {
		return nil, fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	amount, err := strconv.ParseFloat(params.Amount, 64)
	if err != nil || amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}
	if !params.Method.Valid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, params.Method)
	}

	p, err := s.patients.Get(ctx, params.PatientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, fmt.Errorf("%w: patient does not exist", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	if doctorID != 0 && p.DoctorID != doctorID {
		return nil, fmt.Errorf("%w: patient belongs to another doctor", ErrValidation)
	}

	y := &Payment{
		PatientID:     params.PatientID,
		AppointmentID: params.AppointmentID,
		Amount:        params.Amount,
		Method:        params.Method,
		Status:        StatusPending,
		Notes:         params.Notes,
	}
	if err := s.repo.Create(ctx, y); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.logger.Info().
		Int64("payment_id", y.ID).
		Str("amount", y.Amount).
		Msg("payment recorded")
	return y, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Payment, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", ErrValidation, f.Status)
	}
	return s.repo.List(ctx, f)
}

// UpdateStatus transitions a payment. Completing stamps paidAt; no other
// transition touches it.
func (s *Service) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*Payment, error) {
	if !update.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, update.Status)
	}
	y, err := s.repo.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("payment_id", id).
		Str("status", string(update.Status)).
		Msg("payment status updated")
	return y, nil
}

// OwnerDoctor resolves which doctor's patient a payment belongs to.
func (s *Service) OwnerDoctor(ctx context.Context, id int64) (int64, error) {
	return s.repo.OwnerDoctor(ctx, id)
}
