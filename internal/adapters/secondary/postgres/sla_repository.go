package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

const slaColumns = `id, name, priority, response_time, resolution_time, active, created_at`

// SLARepository is the secondary adapter for SLA template persistence.
type SLARepository struct {
	pool *pgxpool.Pool
}

var _ ports.SLARepository = (*SLARepository)(nil)

// NewSLARepository creates a new SLA template repository.
func NewSLARepository(pool *pgxpool.Pool) ports.SLARepository {
	return &SLARepository{pool: pool}
}

func scanSLATemplate(row pgx.Row) (*domain.SLATemplate, error) {
	var (
		t         domain.SLATemplate
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(&id, &t.Name, &t.Priority, &t.ResponseTime, &t.ResolutionTime, &t.Active, &createdAt)
	if err != nil {
		return nil, err
	}

	t.ID = id.Bytes
	t.CreatedAt = createdAt.Time

	return &t, nil
}

// Create persists a new SLA template.
func (r *SLARepository) Create(ctx context.Context, template *domain.SLATemplate) (*domain.SLATemplate, error) {
	const query = `
INSERT INTO sla_templates (id, name, priority, response_time, resolution_time, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + slaColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(template.ID),
		template.Name,
		string(template.Priority),
		template.ResponseTime,
		template.ResolutionTime,
		template.Active,
		pgTime(template.CreatedAt),
	)

	return scanSLATemplate(row)
}

// GetByID retrieves a single SLA template by its ID.
func (r *SLARepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SLATemplate, error) {
	const query = `SELECT ` + slaColumns + ` FROM sla_templates WHERE id = $1`

	template, err := scanSLATemplate(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSLATemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

// ListActive retrieves all active templates, oldest first so the first
// created template for a priority wins matching.
func (r *SLARepository) ListActive(ctx context.Context) ([]*domain.SLATemplate, error) {
	const query = `
SELECT ` + slaColumns + `
FROM sla_templates
WHERE active = TRUE
ORDER BY created_at ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.SLATemplate, 0)
	for rows.Next() {
		template, err := scanSLATemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

// Update persists changes to an existing SLA template.
func (r *SLARepository) Update(ctx context.Context, template *domain.SLATemplate) (*domain.SLATemplate, error) {
	const query = `
UPDATE sla_templates
SET name = $2, priority = $3, response_time = $4, resolution_time = $5, active = $6
WHERE id = $1
RETURNING ` + slaColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(template.ID),
		template.Name,
		string(template.Priority),
		template.ResponseTime,
		template.ResolutionTime,
		template.Active,
	)

	updated, err := scanSLATemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSLATemplateNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Deactivate soft-deletes a template. Historical tickets keep their
// reference to it.
func (r *SLARepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE sla_templates SET active = FALSE WHERE id = $1`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSLATemplateNotFound
	}
	return nil
}
