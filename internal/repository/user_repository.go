package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/assetwise/assetwise/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepository implements UserRepository interface
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wires a repository backed by pgxpool.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (id, email, name)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, name, created_at, updated_at`,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.Name,
	)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("user email %s: %w", user.Email, ErrDuplicate)
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1`,
		id,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, name, created_at, updated_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.TenantUser, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT u.id, u.email, u.name, u.created_at, u.updated_at, m.role
		 FROM users u
		 JOIN memberships m ON m.user_id = u.id
		 WHERE m.tenant_id = $1
		 ORDER BY u.email`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant users: %w", err)
	}
	defer rows.Close()

	users := []domain.TenantUser{}
	for rows.Next() {
		var tu domain.TenantUser
		var role string
		if scanErr := rows.Scan(&tu.ID, &tu.Email, &tu.Name, &tu.CreatedAt, &tu.UpdatedAt, &role); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tenant user: %w", scanErr)
		}
		tu.Role = domain.Role(role)
		users = append(users, tu)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate tenant users: %w", rowsErr)
	}

	return users, nil
}

func (r *userRepository) CreateMembership(ctx context.Context, membership domain.Membership) (domain.Membership, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO memberships (id, tenant_id, user_id, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, tenant_id, user_id, role, created_at, updated_at`,
		membership.ID,
		membership.TenantID,
		membership.UserID,
		string(membership.Role),
	)

	created, err := scanMembership(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Membership{}, fmt.Errorf("membership for user %s: %w", membership.UserID, ErrDuplicate)
		}
		return domain.Membership{}, fmt.Errorf("failed to create membership: %w", err)
	}
	return created, nil
}

func (r *userRepository) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (domain.Membership, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, tenant_id, user_id, role, created_at, updated_at
		 FROM memberships
		 WHERE tenant_id = $1 AND user_id = $2`,
		tenantID,
		userID,
	)

	membership, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, fmt.Errorf("membership for user %s: %w", userID, ErrNotFound)
		}
		return domain.Membership{}, fmt.Errorf("failed to get membership: %w", err)
	}
	return membership, nil
}

func (r *userRepository) UpdateMembershipRole(ctx context.Context, tenantID, userID uuid.UUID, role domain.Role) (domain.Membership, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE memberships SET role = $3, updated_at = now()
		 WHERE tenant_id = $1 AND user_id = $2
		 RETURNING id, tenant_id, user_id, role, created_at, updated_at`,
		tenantID,
		userID,
		string(role),
	)

	membership, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, fmt.Errorf("membership for user %s: %w", userID, ErrNotFound)
		}
		return domain.Membership{}, fmt.Errorf("failed to update membership role: %w", err)
	}
	return membership, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func scanMembership(row pgx.Row) (domain.Membership, error) {
	var membership domain.Membership
	var role string
	if err := row.Scan(&membership.ID, &membership.TenantID, &membership.UserID, &role, &membership.CreatedAt, &membership.UpdatedAt); err != nil {
		return domain.Membership{}, err
	}
	membership.Role = domain.Role(role)
	return membership, nil
}
