package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityAction names a mutation recorded in the activity log.
type ActivityAction string

const (
	ActivityActionAssetCreated  ActivityAction = "asset_created"
	ActivityActionAssetUpdated  ActivityAction = "asset_updated"
	ActivityActionAssetDeleted  ActivityAction = "asset_deleted"
	ActivityActionAssetAssigned ActivityAction = "asset_assigned"
	ActivityActionAssetReturned ActivityAction = "asset_returned"
	ActivityActionBulkImport    ActivityAction = "bulk_import"
)

// ActivityLogEntry is one append-only audit record. Bulk operations write a
// single entry referencing every affected asset ID.
type ActivityLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Action    ActivityAction `json:"action"`
	AssetIDs  []uuid.UUID    `json:"asset_ids"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewActivityLogEntry creates an audit record for the given action.
func NewActivityLogEntry(tenantID, actorID uuid.UUID, action ActivityAction, assetIDs []uuid.UUID, details map[string]any) ActivityLogEntry {
	ids := make([]uuid.UUID, len(assetIDs))
	copy(ids, assetIDs)
	return ActivityLogEntry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    action,
		AssetIDs:  ids,
		Details:   details,
		CreatedAt: time.Now(),
	}
}

// GetDetailsAsJSONB returns the details payload as JSONB for storage
func (e ActivityLogEntry) GetDetailsAsJSONB() (json.RawMessage, error) {
	if e.Details == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(e.Details)
}
