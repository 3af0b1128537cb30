package loginlog

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Service records and queries the login audit trail. Record must complete
// before the login response is written so an attempt is never lost.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "loginlog-service").Logger(),
	}
}

// Record appends one audit entry. Location is filled in best-effort from the
// client IP when the caller left it empty.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if !e.Status.Valid() {
		return fmt.Errorf("invalid login status %q", e.Status)
	}
	if e.Location == "" {
		e.Location = locateIP(e.IPAddress)
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return fmt.Errorf("append login log: %w", err)
	}
	s.logger.Info().
		Int64("user_id", e.UserID).
		Str("status", string(e.Status)).
		Str("ip", e.IPAddress).
		Msg("login attempt recorded")
	return nil
}

func (s *Service) Query(ctx context.Context, f Filter) ([]*Entry, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid login status %q", f.Status)
	}
	return s.repo.Query(ctx, f)
}

// locateIP gives a coarse location label without any external lookup.
func locateIP(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	switch {
	case ip.IsLoopback():
		return "localhost"
	case ip.IsPrivate():
		return "private network"
	default:
		return "external"
	}
}
