package resource

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whitepages/keystone/internal/shared"
)

// Repository provides PostgreSQL backed persistence for domains and projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, domain_id, COALESCE(parent_id, ''), name, description, enabled, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.DomainID, &p.ParentID, &p.Name, &p.Description, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a project by ID.
func (r *Repository) GetProject(ctx context.Context, id string) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, shared.NewNotFound("project", id)
	}
	return p, err
}

// GetDomain fetches a domain by ID.
func (r *Repository) GetDomain(ctx context.Context, id string) (Domain, error) {
	var d Domain
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, enabled, created_at, updated_at FROM domains WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Description, &d.Enabled, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Domain{}, shared.NewNotFound("domain", id)
	}
	return d, err
}

// CreateDomain inserts a new domain.
func (r *Repository) CreateDomain(ctx context.Context, d Domain) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO domains (id, name, description, enabled, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		d.ID, d.Name, d.Description, d.Enabled)
	return err
}

// CreateProject inserts a new project.
func (r *Repository) CreateProject(ctx context.Context, p Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, domain_id, parent_id, name, description, enabled, created_at, updated_at) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NOW(), NOW())`,
		p.ID, p.DomainID, p.ParentID, p.Name, p.Description, p.Enabled)
	return err
}

// UpdateProject updates name, description, enabled flag and parent.
func (r *Repository) UpdateProject(ctx context.Context, p Project) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET name = $2, description = $3, enabled = $4, parent_id = NULLIF($5, ''), updated_at = NOW() WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Enabled, p.ParentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("project", p.ID)
	}
	return nil
}

// DeleteProject removes a project by ID.
func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("project", id)
	}
	return nil
}

// ListAncestors returns the parent chain of the project, nearest parent
// first, excluding the project itself.
func (r *Repository) ListAncestors(ctx context.Context, projectID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE parents AS (
			SELECT p.*, 1 AS depth FROM projects p
			WHERE p.id = (SELECT parent_id FROM projects WHERE id = $1)
			UNION ALL
			SELECT p.*, parents.depth + 1 FROM projects p
			JOIN parents ON p.id = parents.parent_id
		)
		SELECT `+projectColumns+` FROM parents ORDER BY depth`, projectID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListSubtree returns every descendant of the project, excluding the project
// itself.
func (r *Repository) ListSubtree(ctx context.Context, projectID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE children AS (
			SELECT p.* FROM projects p WHERE p.parent_id = $1
			UNION ALL
			SELECT p.* FROM projects p
			JOIN children ON p.parent_id = children.id
		)
		SELECT `+projectColumns+` FROM children`, projectID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListProjectsInDomain returns all projects owned by the domain.
func (r *Repository) ListProjectsInDomain(ctx context.Context, domainID string) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE domain_id = $1 ORDER BY name`, domainID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListProjectsByIDs returns the projects matching the given IDs.
func (r *Repository) ListProjectsByIDs(ctx context.Context, ids []string) ([]Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListDomainsByIDs returns the domains matching the given IDs.
func (r *Repository) ListDomainsByIDs(ctx context.Context, ids []string) ([]Domain, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, enabled, created_at, updated_at FROM domains WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var domains []Domain
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Enabled, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// CountChildren returns the number of direct children of the project.
func (r *Repository) CountChildren(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE parent_id = $1`, projectID).Scan(&n)
	return n, err
}
