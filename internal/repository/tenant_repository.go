package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tenantRepository implements TenantRepository interface
type tenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository wires a repository backed by pgxpool.
func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepository{pool: pool}
}

func (r *tenantRepository) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO tenants (id, name, slug)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, slug, created_at, updated_at`,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
	)

	created, err := scanTenant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Tenant{}, fmt.Errorf("tenant slug %s: %w", tenant.Slug, ErrDuplicate)
		}
		return domain.Tenant{}, fmt.Errorf("failed to create tenant: %w", err)
	}
	return created, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, slug, created_at, updated_at FROM tenants WHERE id = $1`,
		id,
	)

	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, fmt.Errorf("tenant %s: %w", id, ErrNotFound)
		}
		return domain.Tenant{}, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

func (r *tenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, name, slug, created_at, updated_at FROM tenants WHERE slug = $1`,
		slug,
	)

	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, fmt.Errorf("tenant %s: %w", slug, ErrNotFound)
		}
		return domain.Tenant{}, fmt.Errorf("failed to get tenant by slug: %w", err)
	}
	return tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE tenants SET name = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, slug, created_at, updated_at`,
		tenant.ID,
		tenant.Name,
	)

	updated, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tenant{}, fmt.Errorf("tenant %s: %w", tenant.ID, ErrNotFound)
		}
		return domain.Tenant{}, fmt.Errorf("failed to update tenant: %w", err)
	}
	return updated, nil
}

func (r *tenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTenant(row pgx.Row) (domain.Tenant, error) {
	var tenant domain.Tenant
	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		return domain.Tenant{}, err
	}
	return tenant, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
