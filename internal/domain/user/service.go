package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayurclinic/clinic/internal/platform/auth"
)

var (
	// ErrNameConflict means a doctor's display name would derive the same
	// patient identifier prefix as an existing doctor.
	ErrNameConflict = errors.New("doctor name conflicts with an existing identifier prefix")

	// ErrAccountInactive means the credentials were valid but the account
	// has been deactivated.
	ErrAccountInactive = errors.New("account is deactivated")

	ErrValidation = errors.New("validation failed")
)

// NameValidator checks whether a doctor display name is available. The
// patient identifier allocator implements it.
type NameValidator interface {
	ValidateNameUniqueness(ctx context.Context, fullName string, excludeID int64) (bool, error)
}

// Service owns account lifecycle and credential checks.
type Service struct {
	repo   Repository
	names  NameValidator
	logger zerolog.Logger
}

func NewService(repo Repository, names NameValidator, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		names:  names,
		logger: logger.With().Str("component", "user-service").Logger(),
	}
}

// Create registers an account. Doctor accounts additionally pass the name
// uniqueness check so every doctor keeps a distinct identifier prefix.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	role, err := auth.ParseRole(params.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(params.Username) == "" || strings.TrimSpace(params.FullName) == "" ||
		strings.TrimSpace(params.Email) == "" {
		return nil, fmt.Errorf("%w: username, email and fullName are required", ErrValidation)
	}
	if len(params.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	if role == auth.RoleDoctor {
		ok, err := s.names.ValidateNameUniqueness(ctx, params.FullName, 0)
		if err != nil {
			return nil, fmt.Errorf("validate doctor name: %w", err)
		}
		if !ok {
			return nil, ErrNameConflict
		}
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username: strings.TrimSpace(params.Username),
		Password: hash,
		Email:    strings.ToLower(strings.TrimSpace(params.Email)),
		FullName: strings.TrimSpace(params.FullName),
		Role:     role,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", u.ID).
		Str("role", u.Role.String()).
		Msg("account created")
	return u, nil
}

// Update applies a partial update. Renaming or re-roling into a doctor
// re-runs the prefix uniqueness check against all other doctors.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Password != nil {
		if len(*params.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}
	if params.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*params.Email))
	}
	if params.FullName != nil {
		if strings.TrimSpace(*params.FullName) == "" {
			return nil, fmt.Errorf("%w: fullName cannot be empty", ErrValidation)
		}
		u.FullName = strings.TrimSpace(*params.FullName)
	}
	if params.Role != nil {
		role, err := auth.ParseRole(*params.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		u.Role = role
	}
	if params.IsActive != nil {
		u.IsActive = *params.IsActive
	}

	if u.Role == auth.RoleDoctor && (params.FullName != nil || params.Role != nil) {
		ok, err := s.names.ValidateNameUniqueness(ctx, u.FullName, u.ID)
		if err != nil {
			return nil, fmt.Errorf("validate doctor name: %w", err)
		}
		if !ok {
			return nil, ErrNameConflict
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role auth.Role) ([]*User, error) {
	return s.repo.List(ctx, role)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("account deleted")
	return nil
}

func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	return s.Update(ctx, id, UpdateParams{IsActive: &active})
}

// Authenticate checks username/password. It distinguishes a deactivated
// account from bad credentials so the login audit can record a lockout.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return u, auth.ErrInvalidCredentials
	}
	if !u.IsActive {
		return u, ErrAccountInactive
	}
	return u, nil
}

// ProvisionExternal resolves an identity-provider login to a local account,
// creating a staff account on first sight of the email.
func (s *Service) ProvisionExternal(ctx context.Context, ident auth.ExternalIdentity) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if !u.IsActive {
			return u, ErrAccountInactive
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// No local password is usable on provisioned accounts.
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	fullName := strings.TrimSpace(ident.FullName)
	if fullName == "" {
		fullName = email
	}
	u = &User{
		Username: email,
		Password: hash,
		Email:    email,
		FullName: fullName,
		Role:     auth.RoleStaff,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Str("provider_subject", ident.Subject).
		Msg("provisioned account from identity provider")
	return u, nil
}

// UserExists implements the session middleware's user check.
func (s *Service) UserExists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}
