package assignment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whitepages/keystone/internal/shared"
)

const (
	actorUser  = "user"
	actorGroup = "group"

	targetProject = "project"
	targetDomain  = "domain"
)

// Store persists raw role assignments in Postgres. It implements Driver.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListRoleAssignments(ctx context.Context, f Filter) ([]Assignment, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if f.RoleID != "" {
		conditions = append(conditions, fmt.Sprintf("role_id = $%d", argPos))
		args = append(args, f.RoleID)
		argPos++
	}
	if f.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(actor_type = '%s' AND actor_id = $%d)", actorUser, argPos))
		args = append(args, f.UserID)
		argPos++
	}
	if len(f.GroupIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("(actor_type = '%s' AND actor_id = ANY($%d))", actorGroup, argPos))
		args = append(args, f.GroupIDs)
		argPos++
	}
	if f.DomainID != "" {
		conditions = append(conditions, fmt.Sprintf("(target_type = '%s' AND target_id = $%d)", targetDomain, argPos))
		args = append(args, f.DomainID)
		argPos++
	}
	if len(f.ProjectIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("(target_type = '%s' AND target_id = ANY($%d))", targetProject, argPos))
		args = append(args, f.ProjectIDs)
		argPos++
	}
	if f.Inherited != nil {
		conditions = append(conditions, fmt.Sprintf("inherited = $%d", argPos))
		args = append(args, *f.Inherited)
		argPos++
	}

	query := "SELECT actor_type, actor_id, target_type, target_id, role_id, inherited FROM role_assignments"
	if len(conditions) > 0 {
		whereClause := conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
		query += " WHERE " + whereClause
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var actorType, actorID, targetType, targetID string
		var a Assignment
		if err := rows.Scan(&actorType, &actorID, &targetType, &targetID, &a.RoleID, &a.Inherited); err != nil {
			return nil, err
		}
		switch actorType {
		case actorUser:
			a.UserID = actorID
		case actorGroup:
			a.GroupID = actorID
		}
		switch targetType {
		case targetProject:
			a.ProjectID = targetID
		case targetDomain:
			a.DomainID = targetID
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// grantKey maps an assignment onto the storage row shape. Callers validate
// that exactly one actor and one target are set before reaching the store.
func grantKey(a Assignment) (actorType, actorID, targetType, targetID string) {
	actorType, actorID = actorUser, a.UserID
	if a.GroupID != "" {
		actorType, actorID = actorGroup, a.GroupID
	}
	targetType, targetID = targetProject, a.ProjectID
	if a.DomainID != "" {
		targetType, targetID = targetDomain, a.DomainID
	}
	return actorType, actorID, targetType, targetID
}

func (s *Store) CreateGrant(ctx context.Context, a Assignment) error {
	actorType, actorID, targetType, targetID := grantKey(a)
	_, err := s.db.Exec(ctx, `
		INSERT INTO role_assignments (actor_type, actor_id, target_type, target_id, role_id, inherited)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (actor_type, actor_id, target_type, target_id, role_id, inherited) DO NOTHING
	`, actorType, actorID, targetType, targetID, a.RoleID, a.Inherited)
	return err
}

func (s *Store) DeleteGrant(ctx context.Context, a Assignment) error {
	actorType, actorID, targetType, targetID := grantKey(a)
	tag, err := s.db.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE actor_type = $1 AND actor_id = $2 AND target_type = $3 AND target_id = $4
		  AND role_id = $5 AND inherited = $6
	`, actorType, actorID, targetType, targetID, a.RoleID, a.Inherited)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("grant", a.RoleID)
	}
	return nil
}

func (s *Store) CheckGrant(ctx context.Context, a Assignment) error {
	actorType, actorID, targetType, targetID := grantKey(a)
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_assignments
			WHERE actor_type = $1 AND actor_id = $2 AND target_type = $3 AND target_id = $4
			  AND role_id = $5 AND inherited = $6
		)
	`, actorType, actorID, targetType, targetID, a.RoleID, a.Inherited).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewNotFound("grant", a.RoleID)
	}
	return nil
}

func (s *Store) DeleteProjectAssignments(ctx context.Context, projectID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM role_assignments WHERE target_type = $1 AND target_id = $2`,
		targetProject, projectID)
	return err
}

func (s *Store) DeleteDomainAssignments(ctx context.Context, domainID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM role_assignments WHERE target_type = $1 AND target_id = $2`,
		targetDomain, domainID)
	return err
}

func (s *Store) DeleteRoleAssignments(ctx context.Context, roleID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM role_assignments WHERE role_id = $1`, roleID)
	return err
}

func (s *Store) DeleteUserAssignments(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM role_assignments WHERE actor_type = $1 AND actor_id = $2`,
		actorUser, userID)
	return err
}

func (s *Store) DeleteGroupAssignments(ctx context.Context, groupID string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM role_assignments WHERE actor_type = $1 AND actor_id = $2`,
		actorGroup, groupID)
	return err
}
