package prescription

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/patient"
	"github.com/ayurclinic/clinic/internal/platform/blobstore"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Prescription
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[int64]*Prescription)}
}

func (m *memRepo) Create(_ context.Context, p *Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]*Prescription, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Prescription
	for _, p := range m.rows {
		if f.DoctorID != 0 && p.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != 0 && p.PatientID != f.PatientID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type fakePatients struct {
	rows map[int64]*patient.Patient
}

func (f *fakePatients) Get(_ context.Context, id int64) (*patient.Patient, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

func newTestService() *Service {
	patients := &fakePatients{rows: map[int64]*patient.Patient{
		10: {ID: 10, PatientID: "SARW1", DoctorID: 1},
		20: {ID: 20, PatientID: "PRIN1", DoctorID: 2},
	}}
	return NewService(newMemRepo(), patients, blobstore.NewMemoryBlobStore(), zerolog.Nop())
}

func structuredParams() CreateParams {
	return CreateParams{
		PatientID:     10,
		Diagnosis:     "vata imbalance",
		TreatmentPlan: "panchakarma over 14 days, review after",
		Medications: []Medication{
			{Name: "Ashwagandha", Dosage: "500mg", Frequency: "twice daily", Duration: "30 days"},
		},
	}
}

func TestCreateStructured(t *testing.T) {
	svc := newTestService()

	rx, err := svc.Create(context.Background(), 1, structuredParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rx.DoctorID != 1 || len(rx.Medications) != 1 {
		t.Fatalf("unexpected prescription %+v", rx)
	}
	if rx.TreatmentPlan != "panchakarma over 14 days, review after" {
		t.Fatalf("treatmentPlan = %q", rx.TreatmentPlan)
	}
}

func TestCreateRequiresContentOrUpload(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), 1, CreateParams{PatientID: 10})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	url := "/uploads/prescription_abc.pdf"
	rx, err := svc.Create(context.Background(), 1, CreateParams{PatientID: 10, PrescriptionURL: &url})
	if err != nil {
		t.Fatalf("Create with upload: %v", err)
	}
	if rx.PrescriptionURL == nil || *rx.PrescriptionURL != url {
		t.Fatalf("prescriptionUrl = %v", rx.PrescriptionURL)
	}
}

func TestCreateRejectsForeignPatient(t *testing.T) {
	svc := newTestService()
	params := structuredParams()
	params.PatientID = 20
	if _, err := svc.Create(context.Background(), 1, params); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateRejectsUnnamedMedication(t *testing.T) {
	svc := newTestService()
	params := structuredParams()
	params.Medications = append(params.Medications, Medication{Dosage: "5ml"})
	if _, err := svc.Create(context.Background(), 1, params); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	svc := newTestService()

	content := "%PDF-1.4 fake"
	url, err := svc.Upload(context.Background(), 1, "scan.pdf", "application/pdf",
		int64(len(content)), strings.NewReader(content))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/prescription_") || !strings.HasSuffix(url, ".pdf") {
		t.Fatalf("url = %q", url)
	}

	name := strings.TrimPrefix(url, "/uploads/")
	rc, meta, err := svc.OpenUpload(context.Background(), name)
	if err != nil {
		t.Fatalf("OpenUpload: %v", err)
	}
	defer rc.Close()
	if meta.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", meta.ContentType)
	}

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != content {
		t.Fatalf("content mismatch: %q", data)
	}
}

func TestUploadRejectsBadType(t *testing.T) {
	svc := newTestService()
	_, err := svc.Upload(context.Background(), 1, "notes.txt", "text/plain",
		4, strings.NewReader("text"))
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Fatalf("err = %v, want ErrInvalidContentType", err)
	}
}
