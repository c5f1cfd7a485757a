package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	identity := Identity{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     domain.RoleManager,
	}

	token, err := tm.Issue(identity)
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	verified, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify returned error: %v", err)
	}
	if verified != identity {
		t.Fatalf("identity mismatch: issued %+v, verified %+v", identity, verified)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a", time.Hour)
	verifier, _ := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleViewer})
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected verification to fail with wrong secret")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleViewer})
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	if _, err := tm.Verify(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenZeroTTLDefaultsToValid(t *testing.T) {
	tm, err := NewTokenManager("test-secret", 0)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	token, err := tm.Issue(Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleViewer})
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	if _, err := tm.Verify(token); err != nil {
		t.Fatalf("expected token issued with default ttl to verify, got %v", err)
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", time.Hour)
	identity := Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin}
	token, err := tm.Issue(identity)
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	var got Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := Middleware(tm)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ok || got != identity {
		t.Fatalf("expected identity in context, got %+v (%v)", got, ok)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be reached")
	})
	handler := Middleware(tm)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestEnforceTenantScope(t *testing.T) {
	identity := Identity{UserID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleMember}
	ctx := ContextWithIdentity(context.Background(), identity)

	if err := EnforceTenantScope(ctx, identity.TenantID); err != nil {
		t.Fatalf("expected matching tenant to pass, got %v", err)
	}
	if err := EnforceTenantScope(ctx, uuid.New()); err == nil {
		t.Fatalf("expected foreign tenant to be rejected")
	}
	if err := EnforceTenantScope(context.Background(), identity.TenantID); err == nil {
		t.Fatalf("expected missing identity to be rejected")
	}
}
