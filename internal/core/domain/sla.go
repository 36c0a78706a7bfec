package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

// SLATemplate defines response and resolution targets for a priority level.
// Times are in minutes. Deleting a template deactivates it so historical
// tickets keep their reference.
type SLATemplate struct {
	ID             uuid.UUID
	Name           string
	Priority       Priority
	ResponseTime   int
	ResolutionTime int
	Active         bool
	CreatedAt      time.Time
}

// SLATemplateParams holds the validated inputs for creating a template.
type SLATemplateParams struct {
	Name           string
	Priority       Priority
	ResponseTime   int
	ResolutionTime int
}

// NewSLATemplate creates a valid SLA template.
func NewSLATemplate(params SLATemplateParams) (*SLATemplate, error) {
	if params.Name == "" {
		return nil, apperrors.ErrSLANameRequired
	}
	if !IsValidPriority(params.Priority) {
		return nil, apperrors.ErrInvalidPriority
	}
	if params.ResponseTime <= 0 {
		return nil, apperrors.ErrSLAResponseRequired
	}
	if params.ResolutionTime <= 0 {
		return nil, apperrors.ErrSLAResolutionRequired
	}

	return &SLATemplate{
		ID:             uuid.New(),
		Name:           params.Name,
		Priority:       params.Priority,
		ResponseTime:   params.ResponseTime,
		ResolutionTime: params.ResolutionTime,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// MatchSLATemplate picks the active template for a priority, or nil when no
// template governs it.
func MatchSLATemplate(templates []*SLATemplate, priority Priority) *SLATemplate {
	for _, t := range templates {
		if t.Active && t.Priority == priority {
			return t
		}
	}
	return nil
}
