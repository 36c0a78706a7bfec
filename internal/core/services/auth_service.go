package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// AuthService implements registration and credential verification.
type AuthService struct {
	userRepo ports.UserRepository
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo ports.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		logger:   logger.With("service", "auth"),
	}
}

// Register creates a new account. The email must not already be taken.
func (s *AuthService) Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrUserExists
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Login verifies credentials. It returns ErrInvalidCredentials for both
// unknown emails and wrong passwords so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}
