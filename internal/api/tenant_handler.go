package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// TenantHandler serves tenant bootstrap and management.
type TenantHandler struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	tokens  *auth.TokenManager
}

// NewTenantHandler creates the tenant HTTP handler.
func NewTenantHandler(tenants repository.TenantRepository, users repository.UserRepository, tokens *auth.TokenManager) *TenantHandler {
	return &TenantHandler{tenants: tenants, users: users, tokens: tokens}
}

func (h *TenantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/tenants")
	switch {
	case r.Method == http.MethodPost && len(segments) == 0:
		h.handleBootstrap(w, r)
	case r.Method == http.MethodGet && len(segments) == 1:
		h.handleGet(w, r, segments[0])
	case r.Method == http.MethodPut && len(segments) == 1:
		h.handleUpdate(w, r, segments[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type bootstrapPayload struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	AdminEmail string `json:"adminEmail"`
	AdminName  string `json:"adminName"`
}

type bootstrapResponse struct {
	Tenant domain.Tenant `json:"tenant"`
	Admin  domain.User   `json:"admin"`
	Token  string        `json:"token"`
}

// handleBootstrap creates a tenant together with its first ADMIN user and
// returns a token scoped to the new tenant. This is the only unauthenticated
// write in the API.
func (h *TenantHandler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	var payload bootstrapPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(payload.Name)
	slug := strings.ToLower(strings.TrimSpace(payload.Slug))
	email := strings.ToLower(strings.TrimSpace(payload.AdminEmail))
	if name == "" || slug == "" || email == "" {
		writeError(w, http.StatusBadRequest, "name, slug and adminEmail are required")
		return
	}

	tenant, err := h.tenants.Create(r.Context(), domain.NewTenant(name, slug))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	admin, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			writeRepoError(w, err)
			return
		}
		admin, err = h.users.Create(r.Context(), domain.NewUser(email, strings.TrimSpace(payload.AdminName)))
		if err != nil {
			writeRepoError(w, err)
			return
		}
	}

	if _, err := h.users.CreateMembership(r.Context(), domain.NewMembership(tenant.ID, admin.ID, domain.RoleAdmin)); err != nil {
		writeRepoError(w, err)
		return
	}

	token, err := h.tokens.Issue(auth.Identity{
		UserID:   admin.ID,
		TenantID: tenant.ID,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, bootstrapResponse{Tenant: tenant, Admin: admin, Token: token})
}

func (h *TenantHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.EnforceTenantScope(r.Context(), id); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	tenant, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

type tenantUpdatePayload struct {
	Name string `json:"name"`
}

func (h *TenantHandler) handleUpdate(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.EnforceTenantScope(r.Context(), id); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if _, err := auth.RequireRole(r.Context(), domain.RoleAdmin); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var payload tenantUpdatePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	updated, err := h.tenants.Update(r.Context(), tenant.WithName(name))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
