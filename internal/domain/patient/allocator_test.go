package patient

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type fakeDirectory struct {
	doctors map[int64]*Doctor
}

func (f *fakeDirectory) GetDoctor(_ context.Context, id int64) (*Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (f *fakeDirectory) ListDoctors(_ context.Context) ([]*Doctor, error) {
	out := make([]*Doctor, 0, len(f.doctors))
	for _, d := range f.doctors {
		out = append(out, d)
	}
	return out, nil
}

type memCounter struct {
	mu     sync.Mutex
	counts map[int64]int64
}

func newMemCounter() *memCounter {
	return &memCounter{counts: make(map[int64]int64)}
}

func (m *memCounter) Next(_ context.Context, doctorID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[doctorID]++
	return m.counts[doctorID], nil
}

func TestAllocatorGenerateSequence(t *testing.T) {
	dir := &fakeDirectory{doctors: map[int64]*Doctor{
		1: {ID: 1, FullName: "Dr. Sarah Wilson"},
	}}
	a := NewAllocator(dir, newMemCounter())

	for i := 1; i <= 3; i++ {
		id, err := a.Generate(context.Background(), 1)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		want := fmt.Sprintf("SARW%d", i)
		if id != want {
			t.Fatalf("id = %q, want %q", id, want)
		}
	}
}

func TestAllocatorUnknownDoctor(t *testing.T) {
	a := NewAllocator(&fakeDirectory{doctors: map[int64]*Doctor{}}, newMemCounter())
	if _, err := a.Generate(context.Background(), 99); err != ErrDoctorNotFound {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}

func TestAllocatorCollisionFallback(t *testing.T) {
	// Both doctors derive SARW; the second falls back to SA + padded id.
	dir := &fakeDirectory{doctors: map[int64]*Doctor{
		1: {ID: 1, FullName: "Sarah Wilson"},
		2: {ID: 2, FullName: "Sara Williams"},
	}}
	a := NewAllocator(dir, newMemCounter())

	id, err := a.Generate(context.Background(), 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if id != "SA021" {
		t.Fatalf("id = %q, want SA021", id)
	}
}

func TestAllocatorValidateNameUniqueness(t *testing.T) {
	dir := &fakeDirectory{doctors: map[int64]*Doctor{
		1: {ID: 1, FullName: "Sarah Wilson"},
	}}
	a := NewAllocator(dir, newMemCounter())

	ok, err := a.ValidateNameUniqueness(context.Background(), "Sara Williams", 0)
	if err != nil {
		t.Fatalf("ValidateNameUniqueness: %v", err)
	}
	if ok {
		t.Fatal("expected prefix collision for Sara Williams")
	}

	ok, err = a.ValidateNameUniqueness(context.Background(), "Priya Nair", 0)
	if err != nil {
		t.Fatalf("ValidateNameUniqueness: %v", err)
	}
	if !ok {
		t.Fatal("expected Priya Nair to be available")
	}

	// Renaming a doctor to their own current name is not a collision.
	ok, err = a.ValidateNameUniqueness(context.Background(), "Sarah Wilson", 1)
	if err != nil {
		t.Fatalf("ValidateNameUniqueness: %v", err)
	}
	if !ok {
		t.Fatal("self rename flagged as collision")
	}
}

func TestAllocatorConcurrentGenerateUnique(t *testing.T) {
	dir := &fakeDirectory{doctors: map[int64]*Doctor{
		1: {ID: 1, FullName: "Sarah Wilson"},
	}}
	a := NewAllocator(dir, newMemCounter())

	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Generate(context.Background(), 1)
			if err != nil {
				t.Errorf("Generate: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate patient id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d unique ids, want %d", len(seen), n)
	}
}
