package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, phone,
	role, department, hashed_password, active, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// UserRepository is the secondary adapter for account persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u         domain.User
		id        pgtype.UUID
		imageURL  pgtype.Text
		phone     pgtype.Text
		dept      pgtype.Text
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(&id, &u.Email, &u.FirstName, &u.LastName, &imageURL, &phone,
		&u.Role, &dept, &u.HashedPassword, &u.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.ID = id.Bytes
	u.ProfileImageURL = fromText(imageURL)
	u.Phone = fromText(phone)
	u.Department = fromText(dept)
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time

	return &u, nil
}

// Create persists a new account.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, email, first_name, last_name, profile_image_url, phone,
	role, department, hashed_password, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + userColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(user.ID),
		user.Email,
		user.FirstName,
		user.LastName,
		pgText(user.ProfileImageURL),
		pgText(user.Phone),
		string(user.Role),
		pgText(user.Department),
		user.HashedPassword,
		user.Active,
		pgTime(user.CreatedAt),
		pgTime(user.UpdatedAt),
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an account by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves an account by email. Lookups are case-insensitive.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(querier(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListActive retrieves all active accounts ordered by name.
func (r *UserRepository) ListActive(ctx context.Context) ([]*domain.User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE active = TRUE
ORDER BY first_name ASC, last_name ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update persists changes to an existing account.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
UPDATE users
SET email = $2, first_name = $3, last_name = $4, profile_image_url = $5,
	phone = $6, role = $7, department = $8, hashed_password = $9,
	active = $10, updated_at = $11
WHERE id = $1
RETURNING ` + userColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(user.ID),
		user.Email,
		user.FirstName,
		user.LastName,
		pgText(user.ProfileImageURL),
		pgText(user.Phone),
		string(user.Role),
		pgText(user.Department),
		user.HashedPassword,
		user.Active,
		pgTime(user.UpdatedAt),
	)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return updated, nil
}
