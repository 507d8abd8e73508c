package roles

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/whitepages/keystone/internal/shared"
)

// RepositoryPort defines data access methods for roles and implications.
type RepositoryPort interface {
	GetRole(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListRolesByIDs(ctx context.Context, ids []string) ([]Role, error)
	CreateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id string) error
	ListImplied(ctx context.Context, priorRoleID string) ([]ImpliedRole, error)
	ListImplications(ctx context.Context) ([]ImpliedRole, error)
	CreateImplication(ctx context.Context, e ImpliedRole) error
	DeleteImplication(ctx context.Context, e ImpliedRole) error
}

// AssignmentPurger removes every grant of a deleted role and schedules
// token revocation for the users that held it.
type AssignmentPurger interface {
	PurgeRole(ctx context.Context, roleID string) error
}

// Service handles role business logic, including write-time validation of
// implication edges.
type Service struct {
	repo        RepositoryPort
	purger      AssignmentPurger
	invalidator shared.Invalidator
	logger      *slog.Logger
	rootRoleID  string
}

// NewService builds Service instance. rootRoleID names the protected role
// that may never appear as an implication target.
func NewService(repo RepositoryPort, purger AssignmentPurger, invalidator shared.Invalidator, logger *slog.Logger, rootRoleID string) *Service {
	if invalidator == nil {
		invalidator = shared.NoopInvalidator{}
	}
	return &Service{repo: repo, purger: purger, invalidator: invalidator, logger: logger, rootRoleID: rootRoleID}
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListRolesByIDs resolves role IDs to entities.
func (s *Service) ListRolesByIDs(ctx context.Context, ids []string) ([]Role, error) {
	return s.repo.ListRolesByIDs(ctx, ids)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, shared.NewInvalidArgument("name", "role name required")
	}
	role := Role{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return Role{}, err
	}
	return s.repo.GetRole(ctx, role.ID)
}

// DeleteRole removes a role. Grants of the role are purged first so that
// affected tokens can be revoked while the grants are still readable.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	if _, err := s.repo.GetRole(ctx, id); err != nil {
		return err
	}
	if s.purger != nil {
		if err := s.purger.PurgeRole(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// ListImplied returns the roles directly implied by the prior role.
func (s *Service) ListImplied(ctx context.Context, priorRoleID string) ([]ImpliedRole, error) {
	return s.repo.ListImplied(ctx, priorRoleID)
}

// ListImplications returns every implication edge.
func (s *Service) ListImplications(ctx context.Context) ([]ImpliedRole, error) {
	return s.repo.ListImplications(ctx)
}

// CreateImplication records that priorRoleID implies impliedRoleID. The
// protected root role may never be implied, and a role cannot imply itself;
// both are write-time guarantees the resolver relies on.
func (s *Service) CreateImplication(ctx context.Context, priorRoleID, impliedRoleID string) error {
	if priorRoleID == impliedRoleID {
		return shared.NewInvalidArgument("implied_role_id", "role cannot imply itself")
	}
	if impliedRoleID == s.rootRoleID {
		return shared.NewInvalidArgument("implied_role_id", "protected role cannot be implied")
	}
	if _, err := s.repo.GetRole(ctx, priorRoleID); err != nil {
		return err
	}
	if _, err := s.repo.GetRole(ctx, impliedRoleID); err != nil {
		return err
	}
	if err := s.repo.CreateImplication(ctx, ImpliedRole{PriorRoleID: priorRoleID, ImpliedRoleID: impliedRoleID}); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// DeleteImplication removes an implication edge.
func (s *Service) DeleteImplication(ctx context.Context, priorRoleID, impliedRoleID string) error {
	if err := s.repo.DeleteImplication(ctx, ImpliedRole{PriorRoleID: priorRoleID, ImpliedRoleID: impliedRoleID}); err != nil {
		return err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}
