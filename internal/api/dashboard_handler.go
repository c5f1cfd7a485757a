package api

import (
	"net/http"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// DashboardHandler aggregates tenant-wide counts for the overview page.
type DashboardHandler struct {
	assets     repository.AssetRepository
	categories repository.CategoryRepository
	activity   repository.ActivityLogRepository
}

// NewDashboardHandler creates the dashboard HTTP handler.
func NewDashboardHandler(
	assets repository.AssetRepository,
	categories repository.CategoryRepository,
	activity repository.ActivityLogRepository,
) *DashboardHandler {
	return &DashboardHandler{assets: assets, categories: categories, activity: activity}
}

type categoryCount struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int64  `json:"count"`
}

type dashboardResponse struct {
	TotalAssets    int64                        `json:"totalAssets"`
	ByStatus       map[domain.AssetStatus]int64 `json:"byStatus"`
	ByCategory     []categoryCount              `json:"byCategory"`
	RecentActivity []domain.ActivityLogEntry    `json:"recentActivity"`
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	total, err := h.assets.Count(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	byStatus, err := h.assets.CountByStatus(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	// Zero-count statuses still show up on the dashboard.
	for _, status := range domain.AssetStatuses() {
		if _, ok := byStatus[status]; !ok {
			byStatus[status] = 0
		}
	}

	byCategoryRaw, err := h.assets.CountByCategory(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	categories, err := h.categories.List(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	byCategory := make([]categoryCount, 0, len(categories))
	for _, category := range categories {
		byCategory = append(byCategory, categoryCount{
			CategoryID:   category.ID.String(),
			CategoryName: category.Name,
			Count:        byCategoryRaw[category.ID],
		})
	}

	recent, err := h.activity.List(r.Context(), identity.TenantID, 5, 0)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalAssets:    total,
		ByStatus:       byStatus,
		ByCategory:     byCategory,
		RecentActivity: recent,
	})
}
