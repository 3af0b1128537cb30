package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a server-side session record keyed by an opaque id. The cookie
// carries only the SID; everything else lives in the store.
type Session struct {
	SID       string    `json:"sid"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionStore is the server-side session lifecycle: create on login, touch
// on activity (sliding expiry), destroy on logout. Destroy is idempotent —
// destroying an unknown or already-destroyed session is not an error.
type SessionStore interface {
	Create(ctx context.Context, userID int64, role Role, userName string) (*Session, error)
	Get(ctx context.Context, sid string) (*Session, error)
	Touch(ctx context.Context, sid string) error
	Destroy(ctx context.Context, sid string) error
	DeleteExpired(ctx context.Context) (int, error)
}

// MemorySessionStore is an in-process SessionStore for tests and development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (m *MemorySessionStore) Create(_ context.Context, userID int64, role Role, userName string) (*Session, error) {
	now := time.Now()
	sess := &Session{
		SID:       uuid.New().String(),
		UserID:    userID,
		Role:      role,
		UserName:  userName,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[sess.SID] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *MemorySessionStore) Get(_ context.Context, sid string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sid]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Expired() {
		m.mu.Lock()
		delete(m.sessions, sid)
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

func (m *MemorySessionStore) Touch(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sid]; ok && !sess.Expired() {
		sess.ExpiresAt = time.Now().Add(m.ttl)
	}
	return nil
}

func (m *MemorySessionStore) Destroy(_ context.Context, sid string) error {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for sid, sess := range m.sessions {
		if sess.Expired() {
			delete(m.sessions, sid)
			count++
		}
	}
	return count, nil
}
