package services

import (
	"context"
	"log/slog"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// StatsService computes the dashboard aggregates.
type StatsService struct {
	analyticsRepo ports.AnalyticsRepository
	logger        *slog.Logger
}

var _ ports.StatsService = (*StatsService)(nil)

// NewStatsService creates a new dashboard statistics service.
func NewStatsService(analyticsRepo ports.AnalyticsRepository, logger *slog.Logger) *StatsService {
	return &StatsService{
		analyticsRepo: analyticsRepo,
		logger:        logger.With("service", "stats"),
	}
}

// GetDashboardStats returns the current ticket counters and SLA aggregates.
func (s *StatsService) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	return s.analyticsRepo.GetDashboardStats(ctx)
}
