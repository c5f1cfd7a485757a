package auth

import (
	"context"
	"fmt"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller: who they are, which tenant they are
// acting in, and the role their membership grants there.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     domain.Role
}

// ContextWithIdentity returns a new context carrying the authenticated identity.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated identity from the context, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	value := ctx.Value(identityKey)
	if value == nil {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	if !ok {
		return Identity{}, false
	}
	if identity.UserID == uuid.Nil || identity.TenantID == uuid.Nil {
		return Identity{}, false
	}
	return identity, true
}

// EnforceTenantScope ensures the provided tenant matches the authenticated scope.
func EnforceTenantScope(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return fmt.Errorf("tenantId is required")
	}
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return fmt.Errorf("no authenticated identity")
	}
	if identity.TenantID != tenantID {
		return fmt.Errorf("tenantId %s does not match authenticated scope", tenantID)
	}
	return nil
}

// RequireRole ensures the authenticated identity holds at least the given role.
func RequireRole(ctx context.Context, min domain.Role) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, fmt.Errorf("no authenticated identity")
	}
	if !identity.Role.AtLeast(min) {
		return Identity{}, fmt.Errorf("role %s required", min)
	}
	return identity, nil
}
