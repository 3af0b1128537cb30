package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/appointment"
	"github.com/ayurclinic/clinic/internal/domain/patient"
)

// AppointmentSource lists appointments for the today view.
type AppointmentSource interface {
	List(ctx context.Context, f appointment.ListFilter) ([]*appointment.Appointment, int64, error)
}

// PatientSource supplies the recent-patients view.
type PatientSource interface {
	Recent(ctx context.Context, doctorID int64, limit int) ([]*patient.Patient, error)
	List(ctx context.Context, f patient.ListFilter) ([]*patient.Patient, int64, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentSource
	patients     PatientSource
	logger       zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentSource, patients PatientSource, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		patients:     patients,
		logger:       logger.With().Str("component", "dashboard-service").Logger(),
	}
}

func (s *Service) DoctorMetrics(ctx context.Context, doctorID int64) (*Metrics, error) {
	return s.repo.DoctorMetrics(ctx, doctorID, time.Now())
}

func (s *Service) AdminMetrics(ctx context.Context) (*AdminMetrics, error) {
	return s.repo.AdminMetrics(ctx, time.Now())
}

func (s *Service) DoctorStats(ctx context.Context) ([]*DoctorStats, error) {
	return s.repo.DoctorStats(ctx)
}

// TodayAppointments lists the doctor's appointments for the current day.
func (s *Service) TodayAppointments(ctx context.Context, doctorID int64) ([]*appointment.Appointment, error) {
	now := time.Now()
	items, _, err := s.appointments.List(ctx, appointment.ListFilter{
		DoctorID: doctorID,
		Date:     &now,
	})
	return items, err
}

func (s *Service) RecentPatients(ctx context.Context, doctorID int64, limit int) ([]*patient.Patient, error) {
	return s.patients.Recent(ctx, doctorID, limit)
}

// DoctorPatients backs the admin cross-doctor patient view.
func (s *Service) DoctorPatients(ctx context.Context, f patient.ListFilter) ([]*patient.Patient, int64, error) {
	return s.patients.List(ctx, f)
}
