package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/patient"
)

type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]*Payment
	doctors map[int64]int64 // patient id -> doctor id
}

func newMemRepo(doctors map[int64]int64) *memRepo {
	return &memRepo{rows: make(map[int64]*Payment), doctors: doctors}
}

func (m *memRepo) Create(_ context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]*Payment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Payment
	for _, p := range m.rows {
		if f.DoctorID != 0 && m.doctors[p.PatientID] != f.DoctorID {
			continue
		}
		if f.PatientID != 0 && p.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, update StatusUpdate) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = update.Status
	if update.TransactionID != nil {
		p.TransactionID = update.TransactionID
	}
	if update.Status == StatusCompleted {
		now := time.Now()
		p.PaidAt = &now
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) OwnerDoctor(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return 0, ErrNotFound
	}
	return m.doctors[p.PatientID], nil
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

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo(map[int64]int64{10: 1, 20: 2})
	patients := &fakePatients{rows: map[int64]*patient.Patient{
		10: {ID: 10, DoctorID: 1},
		20: {ID: 20, DoctorID: 2},
	}}
	return NewService(repo, patients, zerolog.Nop()), repo
}

func TestCreatePayment(t *testing.T) {
	svc, _ := newTestService()

	y, err := svc.Create(context.Background(), 1, CreateParams{
		PatientID: 10, Amount: "1500.00", Method: MethodCash,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if y.Status != StatusPending {
		t.Fatalf("status = %s, want pending", y.Status)
	}
	if y.PaidAt != nil {
		t.Fatal("paidAt set on creation")
	}
}

func TestMethodSet(t *testing.T) {
	accepted := []Method{MethodCash, MethodCard, MethodUPI, MethodNetbanking, MethodCheque, MethodOnline}
	for _, m := range accepted {
		if !m.Valid() {
			t.Errorf("Method(%q).Valid() = false, want true", m)
		}
	}
	for _, m := range []Method{"insurance", "barter", ""} {
		if m.Valid() {
			t.Errorf("Method(%q).Valid() = true, want false", m)
		}
	}
}

func TestCreatePaymentWithAppointment(t *testing.T) {
	svc, repo := newTestService()

	apptID := int64(7)
	y, err := svc.Create(context.Background(), 1, CreateParams{
		PatientID: 10, AppointmentID: &apptID, Amount: "750.00", Method: MethodCheque,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if y.AppointmentID == nil || *y.AppointmentID != apptID {
		t.Fatalf("appointmentId = %v, want %d", y.AppointmentID, apptID)
	}

	stored, err := repo.GetByID(context.Background(), y.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.AppointmentID == nil || *stored.AppointmentID != apptID {
		t.Fatalf("stored appointmentId = %v, want %d", stored.AppointmentID, apptID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"missing patient", CreateParams{Amount: "100", Method: MethodCash}},
		{"bad amount", CreateParams{PatientID: 10, Amount: "lots", Method: MethodCash}},
		{"negative amount", CreateParams{PatientID: 10, Amount: "-5", Method: MethodCash}},
		{"bad method", CreateParams{PatientID: 10, Amount: "100", Method: "barter"}},
		{"foreign patient", CreateParams{PatientID: 20, Amount: "100", Method: MethodCash}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), 1, tc.params); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdateStatusSetsPaidAtOnCompletion(t *testing.T) {
	svc, _ := newTestService()
	y, err := svc.Create(context.Background(), 1, CreateParams{
		PatientID: 10, Amount: "500", Method: MethodUPI,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	txn := "UPI-12345"
	updated, err := svc.UpdateStatus(context.Background(), y.ID, StatusUpdate{
		Status: StatusCompleted, TransactionID: &txn,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.PaidAt == nil {
		t.Fatal("paidAt not set on completion")
	}
	if updated.TransactionID == nil || *updated.TransactionID != txn {
		t.Fatalf("transactionId = %v", updated.TransactionID)
	}
}

func TestUpdateStatusLeavesPaidAtOnOtherTransitions(t *testing.T) {
	svc, _ := newTestService()
	y, err := svc.Create(context.Background(), 1, CreateParams{
		PatientID: 10, Amount: "500", Method: MethodCard,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Failing a pending payment never stamps paidAt.
	updated, err := svc.UpdateStatus(context.Background(), y.ID, StatusUpdate{Status: StatusFailed})
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.PaidAt != nil {
		t.Fatal("paidAt set on failed transition")
	}

	// Complete, then refund: the completion timestamp survives.
	updated, err = svc.UpdateStatus(context.Background(), y.ID, StatusUpdate{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}
	paidAt := *updated.PaidAt

	updated, err = svc.UpdateStatus(context.Background(), y.ID, StatusUpdate{Status: StatusRefunded})
	if err != nil {
		t.Fatalf("UpdateStatus refunded: %v", err)
	}
	if updated.PaidAt == nil || !updated.PaidAt.Equal(paidAt) {
		t.Fatalf("paidAt changed by refund: %v -> %v", paidAt, updated.PaidAt)
	}
}

func TestUpdateStatusRejectsInvalid(t *testing.T) {
	svc, _ := newTestService()
	y, err := svc.Create(context.Background(), 1, CreateParams{
		PatientID: 10, Amount: "500", Method: MethodCash,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), y.ID, StatusUpdate{Status: "settled"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestListScopesThroughPatient(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), 1, CreateParams{PatientID: 10, Amount: "100", Method: MethodCash}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), 2, CreateParams{PatientID: 20, Amount: "200", Method: MethodCash}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, total, err := svc.List(context.Background(), ListFilter{DoctorID: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || items[0].PatientID != 10 {
		t.Fatalf("doctor scope leaked: %+v", items)
	}
}
