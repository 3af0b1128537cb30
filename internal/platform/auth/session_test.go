package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	sess, err := store.Create(ctx, 7, RoleDoctor, "Dr. Sarah Wilson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.SID == "" {
		t.Fatal("expected non-empty sid")
	}

	got, err := store.Get(ctx, sess.SID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != 7 || got.Role != RoleDoctor || got.UserName != "Dr. Sarah Wilson" {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := store.Destroy(ctx, sess.SID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, sess.SID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after destroy, got %v", err)
	}
}

func TestMemorySessionStore_DestroyIdempotent(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	sess, _ := store.Create(ctx, 1, RoleStaff, "Reception")
	if err := store.Destroy(ctx, sess.SID); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := store.Destroy(ctx, sess.SID); err != nil {
		t.Errorf("second destroy should be a no-op, got %v", err)
	}
	if err := store.Destroy(ctx, "never-existed"); err != nil {
		t.Errorf("destroying an unknown sid should be a no-op, got %v", err)
	}
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(-time.Minute) // already expired on creation
	ctx := context.Background()

	sess, _ := store.Create(ctx, 1, RoleAdmin, "Admin")
	if _, err := store.Get(ctx, sess.SID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected expired session to be not found, got %v", err)
	}
}

func TestMemorySessionStore_TouchSlidesExpiry(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	sess, _ := store.Create(ctx, 1, RoleDoctor, "Doc")
	before := sess.ExpiresAt

	time.Sleep(5 * time.Millisecond)
	if err := store.Touch(ctx, sess.SID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, sess.SID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ExpiresAt.After(before) {
		t.Error("expected Touch to extend expiry")
	}
}

func TestMemorySessionStore_DeleteExpired(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	live, _ := store.Create(ctx, 1, RoleDoctor, "Doc")
	expired, _ := store.Create(ctx, 2, RoleStaff, "Staff")

	store.mu.Lock()
	store.sessions[expired.SID].ExpiresAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired session deleted, got %d", n)
	}
	if _, err := store.Get(ctx, live.SID); err != nil {
		t.Errorf("live session should survive, got %v", err)
	}
}
