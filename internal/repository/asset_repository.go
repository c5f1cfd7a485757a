package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const assetColumns = `id, tenant_id, category_id, name, serial_number, asset_tag, status, condition,
	location, purchase_price, purchase_date, warranty_end, notes, assigned_to, custom_fields,
	created_at, updated_at`

// assetRepository implements AssetRepository interface
type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository wires a repository backed by pgxpool.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) Create(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	customJSON, err := asset.GetCustomFieldsAsJSONB()
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to marshal custom fields: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO assets (id, tenant_id, category_id, name, serial_number, asset_tag, status,
			condition, location, purchase_price, purchase_date, warranty_end, notes, assigned_to, custom_fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING `+assetColumns,
		asset.ID,
		asset.TenantID,
		asset.CategoryID,
		asset.Name,
		asset.SerialNumber,
		asset.AssetTag,
		string(asset.Status),
		string(asset.Condition),
		asset.Location,
		asset.PurchasePrice,
		asset.PurchaseDate,
		asset.WarrantyEnd,
		asset.Notes,
		asset.AssignedTo,
		customJSON,
	)

	created, err := scanAsset(row)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to create asset: %w", err)
	}
	return created, nil
}

// CreateBatch inserts all assets inside one transaction and returns generated
// IDs in input order. The whole batch succeeds or fails together.
func (r *assetRepository) CreateBatch(ctx context.Context, assets []domain.Asset) (AssetBatchResult, error) {
	if len(assets) == 0 {
		return AssetBatchResult{IDs: []uuid.UUID{}}, nil
	}

	batch := &pgx.Batch{}
	for i := range assets {
		asset := assets[i]
		customJSON, err := asset.GetCustomFieldsAsJSONB()
		if err != nil {
			return AssetBatchResult{}, fmt.Errorf("failed to marshal custom fields for %s: %w", asset.Name, err)
		}
		batch.Queue(
			`INSERT INTO assets (id, tenant_id, category_id, name, serial_number, asset_tag, status,
				condition, location, purchase_price, purchase_date, warranty_end, notes, custom_fields)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING id`,
			asset.ID,
			asset.TenantID,
			asset.CategoryID,
			asset.Name,
			asset.SerialNumber,
			asset.AssetTag,
			string(asset.Status),
			string(asset.Condition),
			asset.Location,
			asset.PurchasePrice,
			asset.PurchaseDate,
			asset.WarrantyEnd,
			asset.Notes,
			customJSON,
		)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AssetBatchResult{}, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	ids := make([]uuid.UUID, 0, len(assets))
	for range assets {
		var id uuid.UUID
		if scanErr := results.QueryRow().Scan(&id); scanErr != nil {
			_ = results.Close()
			return AssetBatchResult{}, fmt.Errorf("failed to insert asset batch: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if closeErr := results.Close(); closeErr != nil {
		return AssetBatchResult{}, fmt.Errorf("failed to close asset batch: %w", closeErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return AssetBatchResult{}, fmt.Errorf("failed to commit asset batch: %w", err)
	}

	return AssetBatchResult{IDs: ids}, nil
}

func (r *assetRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Asset, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+assetColumns+` FROM assets WHERE tenant_id = $1 AND id = $2`,
		tenantID,
		id,
	)

	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		return domain.Asset{}, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

func (r *assetRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	filter *domain.AssetFilter,
	sort *domain.AssetSort,
	limit int,
	offset int,
) ([]domain.Asset, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}

	if filter != nil {
		if filter.CategoryID != nil {
			args = append(args, *filter.CategoryID)
			where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
		}
		if filter.Status != nil {
			args = append(args, string(*filter.Status))
			where = append(where, fmt.Sprintf("status = $%d", len(args)))
		}
		if filter.Condition != nil {
			args = append(args, string(*filter.Condition))
			where = append(where, fmt.Sprintf("condition = $%d", len(args)))
		}
		if filter.AssignedTo != nil {
			args = append(args, *filter.AssignedTo)
			where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
		}
		if search := strings.TrimSpace(filter.TextSearch); search != "" {
			args = append(args, "%"+search+"%")
			idx := len(args)
			where = append(where, fmt.Sprintf("(name ILIKE $%d OR serial_number ILIKE $%d OR asset_tag ILIKE $%d)", idx, idx, idx))
		}
	}

	orderBy := buildAssetOrderBy(sort)

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total_count FROM assets WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		assetColumns,
		strings.Join(where, " AND "),
		orderBy,
		len(args)-1,
		len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	totalCount := 0
	for rows.Next() {
		asset, total, scanErr := scanAssetWithCount(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan asset: %w", scanErr)
		}
		assets = append(assets, asset)
		totalCount = total
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("failed to iterate assets: %w", rowsErr)
	}

	return assets, totalCount, nil
}

func (r *assetRepository) Update(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	customJSON, err := asset.GetCustomFieldsAsJSONB()
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to marshal custom fields: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`UPDATE assets SET category_id = $3, name = $4, serial_number = $5, asset_tag = $6,
			status = $7, condition = $8, location = $9, purchase_price = $10, purchase_date = $11,
			warranty_end = $12, notes = $13, assigned_to = $14, custom_fields = $15, updated_at = now()
		 WHERE tenant_id = $1 AND id = $2
		 RETURNING `+assetColumns,
		asset.TenantID,
		asset.ID,
		asset.CategoryID,
		asset.Name,
		asset.SerialNumber,
		asset.AssetTag,
		string(asset.Status),
		string(asset.Condition),
		asset.Location,
		asset.PurchasePrice,
		asset.PurchaseDate,
		asset.WarrantyEnd,
		asset.Notes,
		asset.AssignedTo,
		customJSON,
	)

	updated, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, fmt.Errorf("asset %s: %w", asset.ID, ErrNotFound)
		}
		return domain.Asset{}, fmt.Errorf("failed to update asset: %w", err)
	}
	return updated, nil
}

func (r *assetRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *assetRepository) ExistsSerialNumber(ctx context.Context, tenantID uuid.UUID, serialNumber string, excludeID *uuid.UUID) (bool, error) {
	return r.existsColumn(ctx, "serial_number", tenantID, serialNumber, excludeID)
}

func (r *assetRepository) ExistsAssetTag(ctx context.Context, tenantID uuid.UUID, assetTag string, excludeID *uuid.UUID) (bool, error) {
	return r.existsColumn(ctx, "asset_tag", tenantID, assetTag, excludeID)
}

func (r *assetRepository) existsColumn(ctx context.Context, column string, tenantID uuid.UUID, value string, excludeID *uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM assets WHERE tenant_id = $1 AND %s = $2`, column)
	args := []any{tenantID, value}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += " AND id <> $3"
	}
	query += ")"

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s uniqueness: %w", column, err)
	}
	return exists, nil
}

func (r *assetRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

func (r *assetRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.AssetStatus]int64, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT status, COUNT(*) FROM assets WHERE tenant_id = $1 GROUP BY status`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.AssetStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", scanErr)
		}
		counts[domain.AssetStatus(status)] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", rowsErr)
	}

	return counts, nil
}

func (r *assetRepository) CountByCategory(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT category_id, COUNT(*) FROM assets WHERE tenant_id = $1 GROUP BY category_id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var categoryID uuid.UUID
		var count int64
		if scanErr := rows.Scan(&categoryID, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", scanErr)
		}
		counts[categoryID] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", rowsErr)
	}

	return counts, nil
}

func buildAssetOrderBy(sort *domain.AssetSort) string {
	field := "created_at"
	direction := "DESC"
	if sort != nil {
		switch sort.Field {
		case domain.AssetSortFieldName:
			field = "name"
		case domain.AssetSortFieldStatus:
			field = "status"
		case domain.AssetSortFieldCondition:
			field = "condition"
		case domain.AssetSortFieldCreatedAt:
			field = "created_at"
		case domain.AssetSortFieldUpdatedAt:
			field = "updated_at"
		}
		if sort.Direction == domain.SortDirectionAsc {
			direction = "ASC"
		}
	}
	return field + " " + direction
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var asset domain.Asset
	var status, condition string
	var customJSON json.RawMessage
	if err := row.Scan(
		&asset.ID,
		&asset.TenantID,
		&asset.CategoryID,
		&asset.Name,
		&asset.SerialNumber,
		&asset.AssetTag,
		&status,
		&condition,
		&asset.Location,
		&asset.PurchasePrice,
		&asset.PurchaseDate,
		&asset.WarrantyEnd,
		&asset.Notes,
		&asset.AssignedTo,
		&customJSON,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return domain.Asset{}, err
	}
	return finishAsset(asset, status, condition, customJSON)
}

func scanAssetWithCount(row pgx.Row) (domain.Asset, int, error) {
	var asset domain.Asset
	var status, condition string
	var customJSON json.RawMessage
	var totalCount int
	if err := row.Scan(
		&asset.ID,
		&asset.TenantID,
		&asset.CategoryID,
		&asset.Name,
		&asset.SerialNumber,
		&asset.AssetTag,
		&status,
		&condition,
		&asset.Location,
		&asset.PurchasePrice,
		&asset.PurchaseDate,
		&asset.WarrantyEnd,
		&asset.Notes,
		&asset.AssignedTo,
		&customJSON,
		&asset.CreatedAt,
		&asset.UpdatedAt,
		&totalCount,
	); err != nil {
		return domain.Asset{}, 0, err
	}
	finished, err := finishAsset(asset, status, condition, customJSON)
	if err != nil {
		return domain.Asset{}, 0, err
	}
	return finished, totalCount, nil
}

func finishAsset(asset domain.Asset, status, condition string, customJSON json.RawMessage) (domain.Asset, error) {
	asset.Status = domain.AssetStatus(status)
	asset.Condition = domain.AssetCondition(condition)

	fields, err := domain.FromJSONBCustomFields(customJSON)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to decode custom fields: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	asset.CustomFields = fields
	return asset, nil
}
