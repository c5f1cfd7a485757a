package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated organization/customer scope. All asset and
// user data is partitioned by tenant ID.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTenant creates a new tenant with immutable pattern
func NewTenant(name, slug string) Tenant {
	now := time.Now()
	return Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithName returns a new tenant with updated name
func (t Tenant) WithName(name string) Tenant {
	return Tenant{
		ID:        t.ID,
		Name:      name,
		Slug:      t.Slug,
		CreatedAt: t.CreatedAt,
		UpdatedAt: time.Now(),
	}
}
