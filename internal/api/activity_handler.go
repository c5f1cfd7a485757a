package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// ActivityHandler serves the tenant audit trail, most recent first.
type ActivityHandler struct {
	activity repository.ActivityLogRepository
}

// NewActivityHandler creates the activity HTTP handler.
func NewActivityHandler(activity repository.ActivityLogRepository) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	limit, offset, err := parsePagination(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("assetId")); raw != "" {
		assetID, err := parseID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid assetId: %v", err))
			return
		}
		entries, err := h.activity.ListByAsset(r.Context(), identity.TenantID, assetID, limit, offset)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	entries, err := h.activity.List(r.Context(), identity.TenantID, limit, offset)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
