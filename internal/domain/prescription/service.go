package prescription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/patient"
	"github.com/ayurclinic/clinic/internal/platform/blobstore"
)

var ErrValidation = errors.New("validation failed")

// PatientSource resolves patients for ownership checks.
type PatientSource interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientSource
	blobs    blobstore.BlobStore
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientSource, blobs blobstore.BlobStore, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		blobs:    blobs,
		logger:   logger.With().Str("component", "prescription-service").Logger(),
	}
}

// Create writes a prescription. A prescription needs either a diagnosis with
// at least one medication, or an uploaded file reference; doctorID follows
// the same convention as appointments, zero meaning the patient's owner.
func (s *Service) Create(ctx context.Context, doctorID int64, params CreateParams) (*Prescription, error) {
	if params.PatientID == 0 {
		return nil, fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	structured := strings.TrimSpace(params.Diagnosis) != "" && len(params.Medications) > 0
	uploaded := params.PrescriptionURL != nil && *params.PrescriptionURL != ""
	if !structured && !uploaded {
		return nil, fmt.Errorf("%w: a prescription needs diagnosis and medications, or an uploaded file", ErrValidation)
	}
	for i, m := range params.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("%w: medication %d has no name", ErrValidation, i+1)
		}
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

	rx := &Prescription{
		PatientID:       params.PatientID,
		DoctorID:        doctorID,
		AppointmentID:   params.AppointmentID,
		Diagnosis:       params.Diagnosis,
		TreatmentPlan:   params.TreatmentPlan,
		Medications:     params.Medications,
		DietaryAdvice:   params.DietaryAdvice,
		LifestyleAdvice: params.LifestyleAdvice,
		FollowUpDate:    params.FollowUpDate,
		Notes:           params.Notes,
		PrescriptionURL: params.PrescriptionURL,
	}
	if err := s.repo.Create(ctx, rx); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}

	s.logger.Info().
		Int64("prescription_id", rx.ID).
		Int64("doctor_id", doctorID).
		Int("medications", len(rx.Medications)).
		Msg("prescription issued")
	return rx, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Prescription, int64, error) {
	return s.repo.List(ctx, f)
}

// Upload stores a prescription scan and returns its serving URL.
func (s *Service) Upload(ctx context.Context, uploadedBy int64, originalName, contentType string, size int64, content io.Reader) (string, error) {
	meta, err := s.blobs.Save(ctx, blobstore.BlobMetadata{
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		UploadedBy:   uploadedBy,
	}, content)
	if err != nil {
		return "", err
	}
	s.logger.Info().
		Str("blob", meta.Name).
		Int64("uploaded_by", uploadedBy).
		Int64("size", meta.Size).
		Msg("prescription file uploaded")
	return "/uploads/" + meta.Name, nil
}

// OpenUpload streams a stored prescription file back.
func (s *Service) OpenUpload(ctx context.Context, name string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	return s.blobs.Open(ctx, name)
}
