package export

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// Handler streams asset exports over HTTP.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET download endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	query := r.URL.Query()

	format, err := ParseFormat(strings.TrimSpace(query.Get("format")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := Request{
		TenantID: identity.TenantID,
		Format:   format,
	}

	if raw := strings.TrimSpace(query.Get("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid categoryId: %v", err), http.StatusBadRequest)
			return
		}
		req.CategoryID = &id
	}

	filter := &domain.AssetFilter{}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := domain.ParseAssetStatus(raw)
		if !ok {
			http.Error(w, fmt.Sprintf("invalid status %q", raw), http.StatusBadRequest)
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("condition")); raw != "" {
		condition, ok := domain.ParseAssetCondition(raw)
		if !ok {
			http.Error(w, fmt.Sprintf("invalid condition %q", raw), http.StatusBadRequest)
			return
		}
		filter.Condition = &condition
	}
	filter.TextSearch = strings.TrimSpace(query.Get("search"))
	req.Filter = filter

	file, err := h.service.ExportAssets(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			http.Error(w, "category not found", http.StatusNotFound)
		case errors.Is(err, ErrUnsupportedFormat):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
