package repository

import (
	"context"
	"errors"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist within the caller's
// tenant scope.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness check fails (tenant slug, user
// email, category name, or single-asset serial/tag).
var ErrDuplicate = errors.New("duplicate value")

// TenantRepository defines the interface for tenant operations
type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (domain.Tenant, error)
	Update(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for user and membership operations
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantUser, error)
	CreateMembership(ctx context.Context, membership domain.Membership) (domain.Membership, error)
	GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (domain.Membership, error)
	UpdateMembershipRole(ctx context.Context, tenantID, userID uuid.UUID, role domain.Role) (domain.Membership, error)
}

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Category, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]domain.Category, error)
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// AssetBatchResult reports the outcome of a batch insert. IDs are returned
// directly from the insert, in input order.
type AssetBatchResult struct {
	IDs []uuid.UUID
}

// AssetRepository defines the interface for asset operations
type AssetRepository interface {
	Create(ctx context.Context, asset domain.Asset) (domain.Asset, error)
	CreateBatch(ctx context.Context, assets []domain.Asset) (AssetBatchResult, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Asset, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *domain.AssetFilter, sort *domain.AssetSort, limit, offset int) ([]domain.Asset, int, error)
	Update(ctx context.Context, asset domain.Asset) (domain.Asset, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsSerialNumber(ctx context.Context, tenantID uuid.UUID, serialNumber string, excludeID *uuid.UUID) (bool, error)
	ExistsAssetTag(ctx context.Context, tenantID uuid.UUID, assetTag string, excludeID *uuid.UUID) (bool, error)

	// Aggregations for the dashboard
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[domain.AssetStatus]int64, error)
	CountByCategory(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error)
}

// ActivityLogRepository stores the append-only audit trail.
type ActivityLogRepository interface {
	Record(ctx context.Context, entry domain.ActivityLogEntry) (domain.ActivityLogEntry, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error)
	ListByAsset(ctx context.Context, tenantID, assetID uuid.UUID, limit, offset int) ([]domain.ActivityLogEntry, error)
}

// ImportLogRepository stores import row errors for observability.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, tenantID, categoryID uuid.UUID, fileName string, limit, offset int) ([]domain.ImportLogEntry, error)
}
