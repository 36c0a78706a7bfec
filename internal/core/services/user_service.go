package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// UserService implements account listing and profile updates.
type UserService struct {
	userRepo    ports.UserRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service.
func NewUserService(
	userRepo ports.UserRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		broadcaster: broadcaster,
		logger:      logger.With("service", "user"),
	}
}

// GetUser retrieves a single user.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns every active account.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListActive(ctx)
}

// UpdateUser applies a partial profile update.
func (s *UserService) UpdateUser(ctx context.Context, params ports.UpdateUserParams) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.ProfileImageURL != nil {
		user.ProfileImageURL = *params.ProfileImageURL
	}
	if params.Phone != nil {
		user.Phone = *params.Phone
	}
	if params.Role != nil {
		if !domain.IsValidUserRole(*params.Role) {
			return nil, apperrors.ErrInvalidRole
		}
		user.Role = *params.Role
	}
	if params.Department != nil {
		user.Department = *params.Department
	}
	if params.Active != nil {
		user.Active = *params.Active
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewUserUpdated(updated))
	return updated, nil
}

func (s *UserService) announce(event domain.Event) {
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event",
			"event", event.Name,
			"error", err,
		)
	}
}
