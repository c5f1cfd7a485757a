package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetStatus tracks where an asset sits in its lifecycle.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "AVAILABLE"
	AssetStatusAssigned    AssetStatus = "ASSIGNED"
	AssetStatusMaintenance AssetStatus = "MAINTENANCE"
	AssetStatusRetired     AssetStatus = "RETIRED"
)

// AssetCondition grades the physical state of an asset.
type AssetCondition string

const (
	AssetConditionExcellent AssetCondition = "EXCELLENT"
	AssetConditionGood      AssetCondition = "GOOD"
	AssetConditionFair      AssetCondition = "FAIR"
	AssetConditionPoor      AssetCondition = "POOR"
)

// ParseAssetStatus matches a status case-insensitively.
func ParseAssetStatus(raw string) (AssetStatus, bool) {
	status := AssetStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case AssetStatusAvailable, AssetStatusAssigned, AssetStatusMaintenance, AssetStatusRetired:
		return status, true
	}
	return "", false
}

// ParseAssetCondition matches a condition case-insensitively.
func ParseAssetCondition(raw string) (AssetCondition, bool) {
	condition := AssetCondition(strings.ToUpper(strings.TrimSpace(raw)))
	switch condition {
	case AssetConditionExcellent, AssetConditionGood, AssetConditionFair, AssetConditionPoor:
		return condition, true
	}
	return "", false
}

// AssetStatuses lists the valid statuses in display order.
func AssetStatuses() []AssetStatus {
	return []AssetStatus{AssetStatusAvailable, AssetStatusAssigned, AssetStatusMaintenance, AssetStatusRetired}
}

// AssetConditions lists the valid conditions in display order.
func AssetConditions() []AssetCondition {
	return []AssetCondition{AssetConditionExcellent, AssetConditionGood, AssetConditionFair, AssetConditionPoor}
}

// Asset is a tracked item belonging to one tenant and one category.
// CustomFields stores category-defined values keyed by field key, typed per
// the field definition (float64 for number, bool for boolean, strings
// otherwise).
type Asset struct {
	ID            uuid.UUID      `json:"id"`
	TenantID      uuid.UUID      `json:"tenant_id"`
	CategoryID    uuid.UUID      `json:"category_id"`
	Name          string         `json:"name"`
	SerialNumber  *string        `json:"serial_number,omitempty"`
	AssetTag      *string        `json:"asset_tag,omitempty"`
	Status        AssetStatus    `json:"status"`
	Condition     AssetCondition `json:"condition"`
	Location      *string        `json:"location,omitempty"`
	PurchasePrice *float64       `json:"purchase_price,omitempty"`
	PurchaseDate  *time.Time     `json:"purchase_date,omitempty"`
	WarrantyEnd   *time.Time     `json:"warranty_end,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	AssignedTo    *uuid.UUID     `json:"assigned_to,omitempty"`
	CustomFields  map[string]any `json:"custom_fields"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewAsset creates a new asset with immutable pattern
func NewAsset(tenantID, categoryID uuid.UUID, name string) Asset {
	now := time.Now()
	return Asset{
		ID:           uuid.New(),
		TenantID:     tenantID,
		CategoryID:   categoryID,
		Name:         name,
		Status:       AssetStatusAvailable,
		Condition:    AssetConditionGood,
		CustomFields: map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WithAssignment returns a new asset assigned to the given user.
func (a Asset) WithAssignment(userID uuid.UUID) Asset {
	next := a
	next.AssignedTo = &userID
	next.Status = AssetStatusAssigned
	next.CustomFields = copyCustomFields(a.CustomFields)
	next.UpdatedAt = time.Now()
	return next
}

// WithoutAssignment returns a new asset with the assignment cleared.
func (a Asset) WithoutAssignment() Asset {
	next := a
	next.AssignedTo = nil
	next.Status = AssetStatusAvailable
	next.CustomFields = copyCustomFields(a.CustomFields)
	next.UpdatedAt = time.Now()
	return next
}

// GetCustomFieldsAsJSONB returns the custom field values as JSONB for storage
func (a *Asset) GetCustomFieldsAsJSONB() (json.RawMessage, error) {
	if a.CustomFields == nil {
		a.CustomFields = make(map[string]any)
	}
	return json.Marshal(a.CustomFields)
}

// FromJSONBCustomFields creates a custom field map from JSONB data
func FromJSONBCustomFields(fieldsJSON json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	err := json.Unmarshal(fieldsJSON, &fields)
	return fields, err
}

// copyCustomFields creates a shallow copy of the custom field map.
func copyCustomFields(fields map[string]any) map[string]any {
	newFields := make(map[string]any, len(fields))
	for k, v := range fields {
		newFields[k] = v
	}
	return newFields
}
