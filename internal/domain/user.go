package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role grants a user capabilities within a single tenant. Roles are ordered:
// a higher role implies every capability of the roles below it.
type Role string

const (
	RoleViewer  Role = "VIEWER"
	RoleMember  Role = "MEMBER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleViewer:  0,
	RoleMember:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ParseRole normalizes a role string, returning false when it is not one of
// the known roles.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	if _, ok := roleRank[role]; !ok {
		return "", false
	}
	return role, true
}

// AtLeast reports whether the role grants the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	minRank, ok := roleRank[min]
	if !ok {
		return false
	}
	return rank >= minRank
}

// User is a person that can sign in. A user may belong to several tenants
// through memberships.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new user with immutable pattern
func NewUser(email, name string) User {
	now := time.Now()
	return User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Membership ties a user to a tenant with a role.
type Membership struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMembership creates a membership for a user within a tenant.
func NewMembership(tenantID, userID uuid.UUID, role Role) Membership {
	now := time.Now()
	return Membership{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithRole returns a new membership with updated role
func (m Membership) WithRole(role Role) Membership {
	return Membership{
		ID:        m.ID,
		TenantID:  m.TenantID,
		UserID:    m.UserID,
		Role:      role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: time.Now(),
	}
}

// TenantUser is a roster entry: a user joined with their membership role.
type TenantUser struct {
	User
	Role Role `json:"role"`
}
