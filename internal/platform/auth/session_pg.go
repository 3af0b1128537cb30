package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSessionStore persists sessions in the sessions table so logins survive
// server restarts and multiple instances share one session space.
type PGSessionStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPGSessionStore(pool *pgxpool.Pool, ttl time.Duration) *PGSessionStore {
	return &PGSessionStore{pool: pool, ttl: ttl}
}

func (s *PGSessionStore) Create(ctx context.Context, userID int64, role Role, userName string) (*Session, error) {
	now := time.Now()
	sess := &Session{
		SID:       uuid.New().String(),
		UserID:    userID,
		Role:      role,
		UserName:  userName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (sid, user_id, user_role, user_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.SID, sess.UserID, string(sess.Role), sess.UserName, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PGSessionStore) Get(ctx context.Context, sid string) (*Session, error) {
	sess := &Session{}
	var role string
	err := s.pool.QueryRow(ctx, `
		SELECT sid, user_id, user_role, user_name, created_at, expires_at
		FROM sessions
		WHERE sid = $1 AND expires_at > NOW()`, sid,
	).Scan(&sess.SID, &sess.UserID, &role, &sess.UserName, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	parsed, err := ParseRole(role)
	if err != nil {
		// A session row with an unparseable role cannot authorize anything.
		_ = s.Destroy(ctx, sid)
		return nil, ErrSessionNotFound
	}
	sess.Role = parsed
	return sess, nil
}

func (s *PGSessionStore) Touch(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET expires_at = NOW() + $2
		WHERE sid = $1 AND expires_at > NOW()`,
		sid, s.ttl,
	)
	return err
}

func (s *PGSessionStore) Destroy(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE sid = $1`, sid)
	return err
}

func (s *PGSessionStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
