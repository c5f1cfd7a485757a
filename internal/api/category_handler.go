package api

import (
	"net/http"
	"strings"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// CategoryHandler serves category CRUD including the per-category custom
// field schema.
type CategoryHandler struct {
	categories repository.CategoryRepository
}

// NewCategoryHandler creates the category HTTP handler.
func NewCategoryHandler(categories repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/categories")
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
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *CategoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	categories, err := h.categories.List(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type categoryPayload struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	FieldSchema []domain.FieldDefinition `json:"fieldSchema"`
}

func (h *CategoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleManager)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var payload categoryPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := domain.ValidateFieldSchema(payload.FieldSchema); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categories.Create(r.Context(), domain.NewCategory(identity.TenantID, name, strings.TrimSpace(payload.Description), payload.FieldSchema))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
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

	category, err := h.categories.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request, rawID string) {
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

	var payload categoryPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := domain.ValidateFieldSchema(payload.FieldSchema); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categories.GetByID(r.Context(), identity.TenantID, id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	category = category.WithName(name).WithFieldSchema(payload.FieldSchema)
	category.Description = strings.TrimSpace(payload.Description)

	updated, err := h.categories.Update(r.Context(), category)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CategoryHandler) handleDelete(w http.ResponseWriter, r *http.Request, rawID string) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleAdmin)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categories.Delete(r.Context(), identity.TenantID, id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
