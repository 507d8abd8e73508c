package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whitepages/keystone/internal/platform/db"
	"github.com/whitepages/keystone/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles and
// implication edges.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.NewNotFound("role", id)
	}
	return role, err
}

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListRolesByIDs resolves a set of role IDs to entities.
func (r *Repository) ListRolesByIDs(ctx context.Context, ids []string) ([]Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`,
		role.ID, role.Name, role.Description)
	return classifyConflict(err)
}

// DeleteRole removes a role by ID together with every implication edge that
// references it, atomically: a surviving edge to a deleted role would make
// inference expansion produce phantom assignments.
func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM implied_roles WHERE prior_role_id = $1 OR implied_role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.NewNotFound("role", id)
		}
		return nil
	})
}

// ListImplied returns the one-hop implication edges for the prior role.
func (r *Repository) ListImplied(ctx context.Context, priorRoleID string) ([]ImpliedRole, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT prior_role_id, implied_role_id FROM implied_roles WHERE prior_role_id = $1`, priorRoleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []ImpliedRole
	for rows.Next() {
		var e ImpliedRole
		if err := rows.Scan(&e.PriorRoleID, &e.ImpliedRoleID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ListImplications returns every implication edge.
func (r *Repository) ListImplications(ctx context.Context) ([]ImpliedRole, error) {
	rows, err := r.pool.Query(ctx, `SELECT prior_role_id, implied_role_id FROM implied_roles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var edges []ImpliedRole
	for rows.Next() {
		var e ImpliedRole
		if err := rows.Scan(&e.PriorRoleID, &e.ImpliedRoleID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CreateImplication inserts an implication edge.
func (r *Repository) CreateImplication(ctx context.Context, e ImpliedRole) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO implied_roles (prior_role_id, implied_role_id) VALUES ($1, $2)`,
		e.PriorRoleID, e.ImpliedRoleID)
	return classifyConflict(err)
}

// DeleteImplication removes an implication edge.
func (r *Repository) DeleteImplication(ctx context.Context, e ImpliedRole) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM implied_roles WHERE prior_role_id = $1 AND implied_role_id = $2`,
		e.PriorRoleID, e.ImpliedRoleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("implied role", e.PriorRoleID+"/"+e.ImpliedRoleID)
	}
	return nil
}

func classifyConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrConflict
	}
	return err
}
