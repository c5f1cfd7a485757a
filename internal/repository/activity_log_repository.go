package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// activityLogRepository implements ActivityLogRepository interface
type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository wires a repository backed by pgxpool.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Record(ctx context.Context, entry domain.ActivityLogEntry) (domain.ActivityLogEntry, error) {
	detailsJSON, err := entry.GetDetailsAsJSONB()
	if err != nil {
		return domain.ActivityLogEntry{}, fmt.Errorf("failed to marshal activity details: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO activity_logs (id, tenant_id, actor_id, action, asset_ids, details)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, tenant_id, actor_id, action, asset_ids, details, created_at`,
		entry.ID,
		entry.TenantID,
		entry.ActorID,
		string(entry.Action),
		entry.AssetIDs,
		detailsJSON,
	)

	recorded, err := scanActivityLogEntry(row)
	if err != nil {
		return domain.ActivityLogEntry{}, fmt.Errorf("failed to record activity log: %w", err)
	}
	return recorded, nil
}

func (r *activityLogRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, tenant_id, actor_id, action, asset_ids, details, created_at
		 FROM activity_logs
		 WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		tenantID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	return collectActivityLogEntries(rows)
}

func (r *activityLogRepository) ListByAsset(ctx context.Context, tenantID, assetID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, tenant_id, actor_id, action, asset_ids, details, created_at
		 FROM activity_logs
		 WHERE tenant_id = $1 AND $2 = ANY(asset_ids)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		tenantID,
		assetID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset activity: %w", err)
	}
	defer rows.Close()

	return collectActivityLogEntries(rows)
}

func collectActivityLogEntries(rows pgx.Rows) ([]domain.ActivityLogEntry, error) {
	entries := []domain.ActivityLogEntry{}
	for rows.Next() {
		entry, scanErr := scanActivityLogEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate activity logs: %w", rowsErr)
	}
	return entries, nil
}

func scanActivityLogEntry(row pgx.Row) (domain.ActivityLogEntry, error) {
	var entry domain.ActivityLogEntry
	var action string
	var detailsJSON json.RawMessage
	if err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.ActorID,
		&action,
		&entry.AssetIDs,
		&detailsJSON,
		&entry.CreatedAt,
	); err != nil {
		return domain.ActivityLogEntry{}, err
	}

	entry.Action = domain.ActivityAction(action)
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			return domain.ActivityLogEntry{}, fmt.Errorf("failed to decode activity details: %w", err)
		}
	}
	return entry, nil
}
