package loginlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []*Entry
}

func (m *memRepo) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	e.LoginTime = time.Now()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memRepo) Query(_ context.Context, f Filter) ([]*Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func TestRecordValidatesStatus(t *testing.T) {
	svc := NewService(&memRepo{}, zerolog.Nop())
	err := svc.Record(context.Background(), &Entry{UserID: 1, Status: "weird"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestRecordFillsLocation(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, zerolog.Nop())

	cases := []struct {
		ip       string
		location string
	}{
		{"127.0.0.1", "localhost"},
		{"10.1.2.3", "private network"},
		{"203.0.113.9", "external"},
		{"not-an-ip", ""},
	}
	for _, tc := range cases {
		e := &Entry{UserID: 1, Status: StatusSuccess, IPAddress: tc.ip}
		if err := svc.Record(context.Background(), e); err != nil {
			t.Fatalf("Record(%s): %v", tc.ip, err)
		}
		if e.Location != tc.location {
			t.Fatalf("location for %s = %q, want %q", tc.ip, e.Location, tc.location)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, zerolog.Nop())

	seed := []struct {
		userID int64
		status Status
	}{
		{1, StatusSuccess},
		{1, StatusFailed},
		{2, StatusLocked},
	}
	for _, s := range seed {
		if err := svc.Record(context.Background(), &Entry{UserID: s.userID, Status: s.status, IPAddress: "127.0.0.1"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, total, err := svc.Query(context.Background(), Filter{UserID: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("user filter: got %d entries, want 2", total)
	}

	got, _, err = svc.Query(context.Background(), Filter{Status: StatusLocked})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].UserID != 2 {
		t.Fatalf("status filter returned %+v", got)
	}

	if _, _, err := svc.Query(context.Background(), Filter{Status: "bogus"}); err == nil {
		t.Fatal("expected error for invalid status filter")
	}
}
