package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
	"github.com/assetwise/assetwise/pkg/validator"
)

// AssetHandler serves asset CRUD, assignment and listing.
type AssetHandler struct {
	assets     repository.AssetRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	activity   repository.ActivityLogRepository
	fields     *validator.FieldValidator
}

// NewAssetHandler creates the asset HTTP handler.
func NewAssetHandler(
	assets repository.AssetRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	activity repository.ActivityLogRepository,
) *AssetHandler {
	return &AssetHandler{
		assets:     assets,
		categories: categories,
		users:      users,
		activity:   activity,
		fields:     validator.NewFieldValidator(),
	}
}

func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/assets")
	switch {
	case r.Method == http.MethodGet && len(segments) == 0:
		h.handleList(w, r)
	case r.Method == http.MethodPost && len(segments) == 0:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && len(segments) == 1:
		h.handleGet(w, r, segments[0])
	case r.Method == http.MethodPut && len(segments) == 1:
		h.handleUpdate(w, r, segments[0])
	case r.Method == http.MethodDelete && len(segments) == 1:
		h.handleDelete(w, r, segments[0])
	case r.Method == http.MethodPost && len(segments) == 2 && segments[1] == "assign":
		h.handleAssign(w, r, segments[0])
	case r.Method == http.MethodPost && len(segments) == 2 && segments[1] == "return":
		h.handleReturn(w, r, segments[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type assetListResponse struct {
	Assets []domain.Asset `json:"assets"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *AssetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	query := r.URL.Query()
	filter := &domain.AssetFilter{}

	if raw := strings.TrimSpace(query.Get("categoryId")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid categoryId: %v", err))
			return
		}
		filter.CategoryID = &id
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := domain.ParseAssetStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", raw))
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("condition")); raw != "" {
		condition, ok := domain.ParseAssetCondition(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid condition %q", raw))
			return
		}
		filter.Condition = &condition
	}
	if raw := strings.TrimSpace(query.Get("assignedTo")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid assignedTo: %v", err))
			return
		}
		filter.AssignedTo = &id
	}
	filter.TextSearch = strings.TrimSpace(query.Get("q"))

	var sort *domain.AssetSort
	if raw := strings.TrimSpace(query.Get("sortBy")); raw != "" {
		field := domain.AssetSortField(raw)
		switch field {
		case domain.AssetSortFieldName, domain.AssetSortFieldStatus, domain.AssetSortFieldCondition,
			domain.AssetSortFieldCreatedAt, domain.AssetSortFieldUpdatedAt:
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid sortBy %q", raw))
			return
		}
		direction := domain.SortDirectionAsc
		if strings.EqualFold(strings.TrimSpace(query.Get("sortDir")), "desc") {
			direction = domain.SortDirectionDesc
		}
		sort = &domain.AssetSort{Field: field, Direction: direction}
	}

	limit, offset, err := parsePagination(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assets, total, err := h.assets.List(r.Context(), identity.TenantID, filter, sort, limit, offset)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assetListResponse{
		Assets: assets,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

type assetPayload struct {
	CategoryID    string         `json:"categoryId"`
	Name          string         `json:"name"`
	SerialNumber  *string        `json:"serialNumber"`
	AssetTag      *string        `json:"assetTag"`
	Status        string         `json:"status"`
	Condition     string         `json:"condition"`
	Location      *string        `json:"location"`
	PurchasePrice *float64       `json:"purchasePrice"`
	PurchaseDate  *string        `json:"purchaseDate"`
	WarrantyEnd   *string        `json:"warrantyEnd"`
	Notes         *string        `json:"notes"`
	CustomFields  map[string]any `json:"customFields"`
}

func (h *AssetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var payload assetPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	categoryID, err := parseID(payload.CategoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid categoryId: %v", err))
		return
	}

	category, err := h.categories.GetByID(r.Context(), identity.TenantID, categoryID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	asset := domain.NewAsset(identity.TenantID, category.ID, name)
	if err := h.applyPayload(&asset, payload, category); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.fields.ValidateCustomFields(asset.CustomFields, category.FieldSchema)
	if !result.IsValid {
		writeValidationError(w, "custom field validation failed", fieldErrorMessages(result.Errors))
		return
	}

	if conflict, err := h.checkUniqueness(r, identity.TenantID, asset, nil); err != nil {
		writeRepoError(w, err)
		return
	} else if conflict != "" {
		writeError(w, http.StatusConflict, conflict)
		return
	}

	created, err := h.assets.Create(r.Context(), asset)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.recordActivity(r, identity, domain.ActivityActionAssetCreated, created.ID, map[string]any{
		"name":     created.Name,
		"category": category.Name,
	})

	writeJSON(w, http.StatusCreated, created)
}

func (h *AssetHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.assets.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (h *AssetHandler) handleUpdate(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload assetPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.assets.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if name := strings.TrimSpace(payload.Name); name != "" {
		asset.Name = name
	}
	if raw := strings.TrimSpace(payload.CategoryID); raw != "" {
		categoryID, err := parseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid categoryId: %v", err))
			return
		}
		asset.CategoryID = categoryID
	}

	category, err := h.categories.GetByID(r.Context(), identity.TenantID, asset.CategoryID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if err := h.applyPayload(&asset, payload, category); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.fields.ValidateCustomFields(asset.CustomFields, category.FieldSchema)
	if !result.IsValid {
		writeValidationError(w, "custom field validation failed", fieldErrorMessages(result.Errors))
		return
	}

	if conflict, err := h.checkUniqueness(r, identity.TenantID, asset, &asset.ID); err != nil {
		writeRepoError(w, err)
		return
	} else if conflict != "" {
		writeError(w, http.StatusConflict, conflict)
		return
	}

	updated, err := h.assets.Update(r.Context(), asset)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.recordActivity(r, identity, domain.ActivityActionAssetUpdated, updated.ID, map[string]any{
		"name": updated.Name,
	})

	writeJSON(w, http.StatusOK, updated)
}

func (h *AssetHandler) handleDelete(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.assets.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if err := h.assets.Delete(r.Context(), identity.TenantID, id); err != nil {
		writeRepoError(w, err)
		return
	}

	h.recordActivity(r, identity, domain.ActivityActionAssetDeleted, id, map[string]any{
		"name": asset.Name,
	})

	w.WriteHeader(http.StatusNoContent)
}

type assignPayload struct {
	UserID string `json:"userId"`
}

func (h *AssetHandler) handleAssign(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload assignPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := parseID(payload.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid userId: %v", err))
		return
	}

	// The assignee must belong to the same tenant.
	if _, err := h.users.GetMembership(r.Context(), identity.TenantID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "user is not a member of this tenant")
			return
		}
		writeRepoError(w, err)
		return
	}

	asset, err := h.assets.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	updated, err := h.assets.Update(r.Context(), asset.WithAssignment(userID))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.recordActivity(r, identity, domain.ActivityActionAssetAssigned, updated.ID, map[string]any{
		"name":       updated.Name,
		"assignedTo": userID.String(),
	})

	writeJSON(w, http.StatusOK, updated)
}

func (h *AssetHandler) handleReturn(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.assets.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if asset.AssignedTo == nil {
		writeError(w, http.StatusBadRequest, "asset is not assigned")
		return
	}

	updated, err := h.assets.Update(r.Context(), asset.WithoutAssignment())
	if err != nil {
		writeRepoError(w, err)
		return
	}

	h.recordActivity(r, identity, domain.ActivityActionAssetReturned, updated.ID, map[string]any{
		"name": updated.Name,
	})

	writeJSON(w, http.StatusOK, updated)
}

// applyPayload copies payload fields onto the asset, coercing dates and
// normalizing enums. Custom field values keep their JSON types; the schema
// check happens afterwards.
func (h *AssetHandler) applyPayload(asset *domain.Asset, payload assetPayload, category domain.Category) error {
	if payload.SerialNumber != nil {
		asset.SerialNumber = normalizeOptional(*payload.SerialNumber)
	}
	if payload.AssetTag != nil {
		asset.AssetTag = normalizeOptional(*payload.AssetTag)
	}
	if payload.Location != nil {
		asset.Location = normalizeOptional(*payload.Location)
	}
	if payload.Notes != nil {
		asset.Notes = normalizeOptional(*payload.Notes)
	}
	if payload.PurchasePrice != nil {
		asset.PurchasePrice = payload.PurchasePrice
	}

	if raw := strings.TrimSpace(payload.Status); raw != "" {
		status, ok := domain.ParseAssetStatus(raw)
		if !ok {
			return fmt.Errorf("invalid status %q", raw)
		}
		asset.Status = status
	}
	if raw := strings.TrimSpace(payload.Condition); raw != "" {
		condition, ok := domain.ParseAssetCondition(raw)
		if !ok {
			return fmt.Errorf("invalid condition %q", raw)
		}
		asset.Condition = condition
	}

	if payload.PurchaseDate != nil {
		if raw := strings.TrimSpace(*payload.PurchaseDate); raw != "" {
			date, err := validator.ParseDate(raw)
			if err != nil {
				return fmt.Errorf("purchaseDate must be a valid date")
			}
			asset.PurchaseDate = &date
		} else {
			asset.PurchaseDate = nil
		}
	}
	if payload.WarrantyEnd != nil {
		if raw := strings.TrimSpace(*payload.WarrantyEnd); raw != "" {
			date, err := validator.ParseDate(raw)
			if err != nil {
				return fmt.Errorf("warrantyEnd must be a valid date")
			}
			asset.WarrantyEnd = &date
		} else {
			asset.WarrantyEnd = nil
		}
	}

	if payload.CustomFields != nil {
		asset.CustomFields = payload.CustomFields
	}
	if asset.CustomFields == nil {
		asset.CustomFields = map[string]any{}
	}

	return nil
}

// checkUniqueness enforces serial number and asset tag uniqueness for
// single-asset writes. Returns a conflict message when a duplicate exists.
func (h *AssetHandler) checkUniqueness(r *http.Request, tenantID uuid.UUID, asset domain.Asset, excludeID *uuid.UUID) (string, error) {
	if asset.SerialNumber != nil {
		exists, err := h.assets.ExistsSerialNumber(r.Context(), tenantID, *asset.SerialNumber, excludeID)
		if err != nil {
			return "", err
		}
		if exists {
			return fmt.Sprintf("serial number %q is already in use", *asset.SerialNumber), nil
		}
	}
	if asset.AssetTag != nil {
		exists, err := h.assets.ExistsAssetTag(r.Context(), tenantID, *asset.AssetTag, excludeID)
		if err != nil {
			return "", err
		}
		if exists {
			return fmt.Sprintf("asset tag %q is already in use", *asset.AssetTag), nil
		}
	}
	return "", nil
}

func (h *AssetHandler) recordActivity(r *http.Request, identity auth.Identity, action domain.ActivityAction, assetID uuid.UUID, details map[string]any) {
	entry := domain.NewActivityLogEntry(identity.TenantID, identity.UserID, action, []uuid.UUID{assetID}, details)
	if _, err := h.activity.Record(r.Context(), entry); err != nil {
		log.Printf("[api] failed to record %s activity for asset %s: %v", action, assetID, err)
	}
}

func fieldErrorMessages(errs []validator.FieldError) []string {
	messages := make([]string, len(errs))
	for i, fieldErr := range errs {
		messages[i] = fieldErr.Message
	}
	return messages
}

func normalizeOptional(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
