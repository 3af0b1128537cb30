package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/patient"
)

var ErrValidation = errors.New("validation failed")

// PatientSource resolves patients for ownership checks. The patient service
// satisfies it.
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
		logger:   logger.With().Str("component", "appointment-service").Logger(),
	}
}

// Create books an appointment. doctorID is the caller's own id for doctors
// and staff; zero means take the patient's owning doctor, which only the
// admin handler path uses. The appointment always lands under the doctor
// who owns the patient.
func (s *Service) Create(ctx context.Context, doctorID int64, params CreateParams) (*Appointment, error) {
	if params.PatientID == 0 {
		return nil, fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	if params.AppointmentDate.IsZero() {
		return nil, fmt.Errorf("%w: appointmentDate is required", ErrValidation)
	}

	p, err := s.patients.Get(ctx, params.PatientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, fmt.Errorf("%w: patient does not exist", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}
	if doctorID == 0 {
		doctorID = p.DoctorID
	} else if p.DoctorID != doctorID {
		return nil, fmt.Errorf("%w: patient belongs to another doctor", ErrValidation)
	}

	duration := params.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	apptType := params.Type
	if apptType == "" {
		apptType = "consultation"
	}

	a := &Appointment{
		PatientID:       params.PatientID,
		DoctorID:        doctorID,
		AppointmentDate: params.AppointmentDate,
		Duration:        duration,
		Type:            apptType,
		Status:          StatusScheduled,
		Notes:           params.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info().
		Int64("appointment_id", a.ID).
		Int64("doctor_id", doctorID).
		Time("date", a.AppointmentDate).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Appointment, int64, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*Appointment, error) {
	if params.Status != nil && !params.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *params.Status)
	}
	if params.Duration != nil && *params.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) CountToday(ctx context.Context, doctorID int64) (int64, error) {
	return s.repo.CountToday(ctx, doctorID, time.Now())
}
