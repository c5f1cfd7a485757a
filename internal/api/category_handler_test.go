package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
)

func TestCategoryCreateRejectsDuplicateFieldKeys(t *testing.T) {
	tenantID := uuid.New()
	handler := NewCategoryHandler(&memCategoryRepo{})

	body := `{"name":"Laptops","fieldSchema":[
		{"key":"ram","label":"RAM","type":"number"},
		{"key":"ram","label":"RAM again","type":"number"}
	]}`
	req := requestWithIdentity(t, http.MethodPost, "/api/categories", body, managerIdentity(tenantID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate keys, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryCreateRejectsSelectWithoutOptions(t *testing.T) {
	tenantID := uuid.New()
	handler := NewCategoryHandler(&memCategoryRepo{})

	body := `{"name":"Laptops","fieldSchema":[{"key":"tier","label":"Tier","type":"select"}]}`
	req := requestWithIdentity(t, http.MethodPost, "/api/categories", body, managerIdentity(tenantID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for select without options, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryDeleteRequiresAdmin(t *testing.T) {
	tenantID := uuid.New()
	repo := &memCategoryRepo{categories: []domain.Category{
		{ID: uuid.New(), TenantID: tenantID, Name: "Laptops"},
	}}
	handler := NewCategoryHandler(repo)

	req := requestWithIdentity(t, http.MethodDelete, "/api/categories/"+repo.categories[0].ID.String(), "", managerIdentity(tenantID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager delete, got %d", rec.Code)
	}

	admin := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin}
	req = requestWithIdentity(t, http.MethodDelete, "/api/categories/"+repo.categories[0].ID.String(), "", admin)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin delete, got %d", rec.Code)
	}
	if len(repo.categories) != 0 {
		t.Fatalf("expected category removed")
	}
}

func TestUserInviteCreatesMembership(t *testing.T) {
	tenantID := uuid.New()
	users := &memUserRepo{}
	handler := NewUserHandler(users)

	admin := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin}
	body := `{"email":"New.Member@Example.com","name":"New Member","role":"member"}`
	req := requestWithIdentity(t, http.MethodPost, "/api/users/invite", body, admin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(users.users) != 1 || users.users[0].Email != "new.member@example.com" {
		t.Fatalf("expected lowercased user created, got %+v", users.users)
	}
	if len(users.memberships) != 1 {
		t.Fatalf("expected membership created")
	}
	for _, membership := range users.memberships {
		if membership.Role != domain.RoleMember || membership.TenantID != tenantID {
			t.Fatalf("unexpected membership %+v", membership)
		}
	}
}

func TestUserInviteDefaultsRoleToMember(t *testing.T) {
	tenantID := uuid.New()
	users := &memUserRepo{}
	handler := NewUserHandler(users)

	admin := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin}
	body := `{"email":"new@example.com"}`
	req := requestWithIdentity(t, http.MethodPost, "/api/users/invite", body, admin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 when role omitted, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, membership := range users.memberships {
		if membership.Role != domain.RoleMember {
			t.Fatalf("expected omitted role to default to MEMBER, got %s", membership.Role)
		}
	}
	if len(users.memberships) != 1 {
		t.Fatalf("expected membership created")
	}
}

func TestUserInviteRejectsExistingMembership(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	users := &memUserRepo{
		users: []domain.User{{ID: userID, Email: "dup@example.com"}},
		memberships: map[uuid.UUID]domain.Membership{
			userID: {TenantID: tenantID, UserID: userID, Role: domain.RoleMember},
		},
	}
	handler := NewUserHandler(users)

	admin := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin}
	body := `{"email":"dup@example.com","role":"VIEWER"}`
	req := requestWithIdentity(t, http.MethodPost, "/api/users/invite", body, admin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for existing membership, got %d", rec.Code)
	}
}
