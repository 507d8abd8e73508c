package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whitepages/keystone/internal/shared"
)

// Repository provides PostgreSQL backed persistence for users and groups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, domain_id, name, email, password_hash, enabled, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.DomainID, &u.Name, &u.Email, &u.PasswordHash, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUser fetches a user by ID.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NewNotFound("user", id)
	}
	return u, err
}

// GetGroup fetches a group by ID.
func (r *Repository) GetGroup(ctx context.Context, id string) (Group, error) {
	var g Group
	err := r.pool.QueryRow(ctx,
		`SELECT id, domain_id, name, description, created_at, updated_at FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.DomainID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, shared.NewNotFound("group", id)
	}
	return g, err
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, domain_id, name, email, password_hash, enabled, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		u.ID, u.DomainID, u.Name, u.Email, u.PasswordHash, u.Enabled)
	return classifyConflict(err)
}

// CreateGroup inserts a new group.
func (r *Repository) CreateGroup(ctx context.Context, g Group) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO groups (id, domain_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		g.ID, g.DomainID, g.Name, g.Description)
	return classifyConflict(err)
}

// DeleteUser removes a user.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("user", id)
	}
	return nil
}

// DeleteGroup removes a group and its memberships.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("group", id)
	}
	return nil
}

// AddUserToGroup records a membership.
func (r *Repository) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_group_membership (user_id, group_id, created_at) VALUES ($1, $2, NOW())`,
		userID, groupID)
	return classifyConflict(err)
}

// RemoveUserFromGroup drops a membership.
func (r *Repository) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_group_membership WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("membership", userID+"/"+groupID)
	}
	return nil
}

// ListUsersInGroup returns all members of the group.
func (r *Repository) ListUsersInGroup(ctx context.Context, groupID string) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.domain_id, u.name, u.email, u.password_hash, u.enabled, u.created_at, u.updated_at
		FROM users u
		JOIN user_group_membership m ON m.user_id = u.id
		WHERE m.group_id = $1
		ORDER BY u.name`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListGroupsForUser returns all groups the user belongs to.
func (r *Repository) ListGroupsForUser(ctx context.Context, userID string) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.domain_id, g.name, g.description, g.created_at, g.updated_at
		FROM groups g
		JOIN user_group_membership m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.DomainID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CheckUserInGroup reports whether the membership exists.
func (r *Repository) CheckUserInGroup(ctx context.Context, userID, groupID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_group_membership WHERE user_id = $1 AND group_id = $2)`,
		userID, groupID).Scan(&exists)
	return exists, err
}

// classifyConflict maps unique violations onto the shared conflict error.
func classifyConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrConflict
	}
	return err
}
