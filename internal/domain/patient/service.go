package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrValidation wraps client-correctable input problems.
var ErrValidation = errors.New("validation failed")

// Service owns patient business rules on top of the repository and the
// identifier allocator.
type Service struct {
	repo      Repository
	allocator *Allocator
	logger    zerolog.Logger
}

func NewService(repo Repository, allocator *Allocator, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		logger:    logger.With().Str("component", "patient-service").Logger(),
	}
}

// Create registers a patient under doctorID, minting a fresh patient
// identifier. The identifier and the owning doctor are server-assigned.
func (s *Service) Create(ctx context.Context, doctorID int64, params CreateParams) (*Patient, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	pid, err := s.allocator.Generate(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("generate patient id: %w", err)
	}

	p := &Patient{
		PatientID:        pid,
		DoctorID:         doctorID,
		FullName:         strings.TrimSpace(params.FullName),
		Age:              params.Age,
		Gender:           params.Gender,
		PhoneNumber:      params.PhoneNumber,
		Email:            params.Email,
		Address:          params.Address,
		Prakriti:         params.Prakriti,
		Vikriti:          params.Vikriti,
		ChiefComplaints:  params.ChiefComplaints,
		MedicalHistory:   params.MedicalHistory,
		Allergies:        params.Allergies,
		EmergencyContact: params.EmergencyContact,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.logger.Info().
		Str("patient_id", p.PatientID).
		Int64("doctor_id", doctorID).
		Msg("patient registered")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Patient, int64, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Patient, error) {
	if params.FullName != nil && strings.TrimSpace(*params.FullName) == "" {
		return nil, fmt.Errorf("%w: fullName cannot be empty", ErrValidation)
	}
	if params.Age != nil && (*params.Age < 0 || *params.Age > 150) {
		return nil, fmt.Errorf("%w: age out of range", ErrValidation)
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Recent(ctx context.Context, doctorID int64, limit int) ([]*Patient, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	return s.repo.Recent(ctx, doctorID, limit)
}

func (s *Service) CountByDoctor(ctx context.Context, doctorID int64) (int64, error) {
	return s.repo.CountByDoctor(ctx, doctorID)
}

func validateCreate(params CreateParams) error {
	var missing []string
	if strings.TrimSpace(params.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if params.Gender == "" {
		missing = append(missing, "gender")
	}
	if params.PhoneNumber == "" {
		missing = append(missing, "phoneNumber")
	}
	if params.Prakriti == "" {
		missing = append(missing, "prakriti")
	}
	if params.ChiefComplaints == "" {
		missing = append(missing, "chiefComplaints")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if params.Age < 0 || params.Age > 150 {
		return fmt.Errorf("%w: age out of range", ErrValidation)
	}
	return nil
}
