package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/domain/appointment"
	"github.com/ayurclinic/clinic/internal/domain/patient"
)

type fakeRepo struct {
	metrics Metrics
}

func (f *fakeRepo) DoctorMetrics(_ context.Context, _ int64, _ time.Time) (*Metrics, error) {
	m := f.metrics
	return &m, nil
}

func (f *fakeRepo) AdminMetrics(_ context.Context, _ time.Time) (*AdminMetrics, error) {
	return &AdminMetrics{TotalDoctors: 2}, nil
}

func (f *fakeRepo) DoctorStats(_ context.Context) ([]*DoctorStats, error) {
	return []*DoctorStats{{DoctorID: 1, DoctorName: "Sarah Wilson"}}, nil
}

type fakeAppointments struct {
	gotFilter appointment.ListFilter
}

func (f *fakeAppointments) List(_ context.Context, filter appointment.ListFilter) ([]*appointment.Appointment, int64, error) {
	f.gotFilter = filter
	return []*appointment.Appointment{{ID: 1, DoctorID: filter.DoctorID}}, 1, nil
}

type fakePatients struct{}

func (fakePatients) Recent(_ context.Context, doctorID int64, limit int) ([]*patient.Patient, error) {
	out := make([]*patient.Patient, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, &patient.Patient{ID: int64(i + 1), DoctorID: doctorID})
	}
	return out, nil
}

func (fakePatients) List(_ context.Context, f patient.ListFilter) ([]*patient.Patient, int64, error) {
	return []*patient.Patient{{ID: 1, DoctorID: f.DoctorID}}, 1, nil
}

func TestTodayAppointmentsScopesToDoctorAndDay(t *testing.T) {
	appts := &fakeAppointments{}
	svc := NewService(&fakeRepo{}, appts, fakePatients{}, zerolog.Nop())

	items, err := svc.TodayAppointments(context.Background(), 7)
	if err != nil {
		t.Fatalf("TodayAppointments: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	if appts.gotFilter.DoctorID != 7 {
		t.Fatalf("doctor filter = %d, want 7", appts.gotFilter.DoctorID)
	}
	if appts.gotFilter.Date == nil {
		t.Fatal("date filter not set")
	}
	y1, m1, d1 := appts.gotFilter.Date.Date()
	y2, m2, d2 := time.Now().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		t.Fatalf("date filter = %v, want today", appts.gotFilter.Date)
	}
}

func TestDoctorMetricsPassThrough(t *testing.T) {
	repo := &fakeRepo{metrics: Metrics{TotalPatients: 12, MonthlyRevenue: 4500}}
	svc := NewService(repo, &fakeAppointments{}, fakePatients{}, zerolog.Nop())

	m, err := svc.DoctorMetrics(context.Background(), 1)
	if err != nil {
		t.Fatalf("DoctorMetrics: %v", err)
	}
	if m.TotalPatients != 12 || m.MonthlyRevenue != 4500 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestRecentPatients(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeAppointments{}, fakePatients{}, zerolog.Nop())
	items, err := svc.RecentPatients(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("RecentPatients: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d patients, want 3", len(items))
	}
}
