package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// SLAService implements business logic for SLA templates. Templates are
// soft-deleted so tickets created under them keep a valid reference.
type SLAService struct {
	slaRepo     ports.SLARepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.SLAService = (*SLAService)(nil)

// NewSLAService creates a new SLA template service.
func NewSLAService(
	slaRepo ports.SLARepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *SLAService {
	return &SLAService{
		slaRepo:     slaRepo,
		broadcaster: broadcaster,
		logger:      logger.With("service", "sla"),
	}
}

// CreateTemplate creates an active SLA template.
func (s *SLAService) CreateTemplate(ctx context.Context, params ports.CreateSLATemplateParams) (*domain.SLATemplate, error) {
	template, err := domain.NewSLATemplate(domain.SLATemplateParams{
		Name:           params.Name,
		Priority:       params.Priority,
		ResponseTime:   params.ResponseTime,
		ResolutionTime: params.ResolutionTime,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.slaRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewSLACreated(created))
	return created, nil
}

// ListTemplates returns every active template.
func (s *SLAService) ListTemplates(ctx context.Context) ([]*domain.SLATemplate, error) {
	return s.slaRepo.ListActive(ctx)
}

// UpdateTemplate applies a partial update.
func (s *SLAService) UpdateTemplate(ctx context.Context, params ports.UpdateSLATemplateParams) (*domain.SLATemplate, error) {
	template, err := s.slaRepo.GetByID(ctx, params.TemplateID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.ErrSLANameRequired
		}
		template.Name = *params.Name
	}
	if params.Priority != nil {
		if !domain.IsValidPriority(*params.Priority) {
			return nil, apperrors.ErrInvalidPriority
		}
		template.Priority = *params.Priority
	}
	if params.ResponseTime != nil {
		if *params.ResponseTime <= 0 {
			return nil, apperrors.ErrSLAResponseRequired
		}
		template.ResponseTime = *params.ResponseTime
	}
	if params.ResolutionTime != nil {
		if *params.ResolutionTime <= 0 {
			return nil, apperrors.ErrSLAResolutionRequired
		}
		template.ResolutionTime = *params.ResolutionTime
	}

	updated, err := s.slaRepo.Update(ctx, template)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewSLAUpdated(updated))
	return updated, nil
}

// DeleteTemplate deactivates a template rather than removing its row.
func (s *SLAService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.slaRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.announce(domain.NewSLADeleted(id))
	return nil
}

func (s *SLAService) announce(event domain.Event) {
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event",
			"event", event.Name,
			"error", err,
		)
	}
}
