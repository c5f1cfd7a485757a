package domain

import (
	"github.com/google/uuid"
)

// AssetFilter represents filtering options for listing assets.
type AssetFilter struct {
	CategoryID *uuid.UUID
	Status     *AssetStatus
	Condition  *AssetCondition
	AssignedTo *uuid.UUID
	TextSearch string
}

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// AssetSortField enumerates fields that can be sorted when listing assets.
type AssetSortField string

const (
	AssetSortFieldName      AssetSortField = "name"
	AssetSortFieldStatus    AssetSortField = "status"
	AssetSortFieldCondition AssetSortField = "condition"
	AssetSortFieldCreatedAt AssetSortField = "created_at"
	AssetSortFieldUpdatedAt AssetSortField = "updated_at"
)

// AssetSort captures ordering preferences for asset listings.
type AssetSort struct {
	Field     AssetSortField
	Direction SortDirection
}
