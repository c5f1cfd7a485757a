package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// categoryRepository implements CategoryRepository interface
type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository wires a repository backed by pgxpool.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	schemaJSON, err := category.GetFieldSchemaAsJSONB()
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to marshal field schema: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO categories (id, tenant_id, name, description, field_schema)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, tenant_id, name, description, field_schema, created_at, updated_at`,
		category.ID,
		category.TenantID,
		category.Name,
		category.Description,
		schemaJSON,
	)

	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("category name %s: %w", category.Name, ErrDuplicate)
		}
		return domain.Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Category, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, tenant_id, name, description, field_schema, created_at, updated_at
		 FROM categories
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID,
		id,
	)

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return domain.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context, tenantID uuid.UUID) ([]domain.Category, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, tenant_id, name, description, field_schema, created_at, updated_at
		 FROM categories
		 WHERE tenant_id = $1
		 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan category: %w", scanErr)
		}
		categories = append(categories, category)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", rowsErr)
	}

	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	schemaJSON, err := category.GetFieldSchemaAsJSONB()
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to marshal field schema: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`UPDATE categories SET name = $3, description = $4, field_schema = $5, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING id, tenant_id, name, description, field_schema, created_at, updated_at`,
		category.TenantID,
		category.ID,
		category.Name,
		category.Description,
		schemaJSON,
	)

	updated, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Category{}, fmt.Errorf("category %s: %w", category.ID, ErrNotFound)
		}
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("category name %s: %w", category.Name, ErrDuplicate)
		}
		return domain.Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

func (r *categoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var category domain.Category
	var schemaJSON json.RawMessage
	if err := row.Scan(
		&category.ID,
		&category.TenantID,
		&category.Name,
		&category.Description,
		&schemaJSON,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return domain.Category{}, err
	}

	schema, err := domain.FromJSONBFieldSchema(schemaJSON)
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to decode field schema: %w", err)
	}
	category.FieldSchema = schema
	return category, nil
}
