package repository

import (
	"context"
	"fmt"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importLogRepository struct {
	pool *pgxpool.Pool
}

// NewImportLogRepository wires a repository backed by pgxpool.
func NewImportLogRepository(pool *pgxpool.Pool) ImportLogRepository {
	return &importLogRepository{pool: pool}
}

func (r *importLogRepository) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("import log repository not initialized")
	}

	var rowNumber any
	if entry.RowNumber != nil {
		rowNumber = *entry.RowNumber
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO import_logs (tenant_id, category_id, file_name, row_number, error_message)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.TenantID,
		entry.CategoryID,
		entry.FileName,
		rowNumber,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record import log: %w", err)
	}

	return nil
}

func (r *importLogRepository) List(ctx context.Context, tenantID, categoryID uuid.UUID, fileName string, limit, offset int) ([]domain.ImportLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("import log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, tenant_id, category_id, file_name, row_number, error_message, created_at
		 FROM import_logs
		 WHERE tenant_id = $1 AND category_id = $2`
	args := []any{tenantID, categoryID}
	if fileName != "" {
		args = append(args, fileName)
		query += fmt.Sprintf(" AND file_name = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.ImportLogEntry{}
	for rows.Next() {
		var (
			entry     domain.ImportLogEntry
			rowNumber pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.CategoryID,
			&entry.FileName,
			&rowNumber,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", scanErr)
		}

		if rowNumber.Valid {
			value := int(rowNumber.Int32)
			entry.RowNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", rowsErr)
	}

	return logs, nil
}
