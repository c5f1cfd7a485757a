package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"
	"github.com/assetwise/assetwise/internal/repository"
)

// UserHandler serves the tenant roster and invitations.
type UserHandler struct {
	users repository.UserRepository
}

// NewUserHandler creates the user HTTP handler.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/users")
	switch {
	case r.Method == http.MethodGet && len(segments) == 0:
		h.handleList(w, r)
	case r.Method == http.MethodPost && len(segments) == 1 && segments[0] == "invite":
		h.handleInvite(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleViewer)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	roster, err := h.users.ListByTenant(r.Context(), identity.TenantID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

type invitePayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// handleInvite adds a user to the caller's tenant, creating the account if
// the email is new. Existing memberships surface as 409.
func (h *UserHandler) handleInvite(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireRole(r.Context(), domain.RoleAdmin)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var payload invitePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	role := domain.RoleMember
	if raw := strings.TrimSpace(payload.Role); raw != "" {
		parsed, ok := domain.ParseRole(strings.ToUpper(raw))
		if !ok {
			writeError(w, http.StatusBadRequest, "role must be one of: VIEWER, MEMBER, MANAGER, ADMIN")
			return
		}
		role = parsed
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			writeRepoError(w, err)
			return
		}
		user, err = h.users.Create(r.Context(), domain.NewUser(email, strings.TrimSpace(payload.Name)))
		if err != nil {
			writeRepoError(w, err)
			return
		}
	}

	membership, err := h.users.CreateMembership(r.Context(), domain.NewMembership(identity.TenantID, user.ID, role))
	if err != nil {
		writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.TenantUser{User: user, Role: membership.Role})
}
