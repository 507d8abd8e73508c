package resource

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/whitepages/keystone/internal/shared"
)

// RepositoryPort defines data access methods for domains and projects.
type RepositoryPort interface {
	GetProject(ctx context.Context, id string) (Project, error)
	GetDomain(ctx context.Context, id string) (Domain, error)
	CreateDomain(ctx context.Context, d Domain) error
	CreateProject(ctx context.Context, p Project) error
	UpdateProject(ctx context.Context, p Project) error
	DeleteProject(ctx context.Context, id string) error
	ListAncestors(ctx context.Context, projectID string) ([]Project, error)
	ListSubtree(ctx context.Context, projectID string) ([]Project, error)
	ListProjectsInDomain(ctx context.Context, domainID string) ([]Project, error)
	ListProjectsByIDs(ctx context.Context, ids []string) ([]Project, error)
	ListDomainsByIDs(ctx context.Context, ids []string) ([]Domain, error)
	CountChildren(ctx context.Context, projectID string) (int, error)
}

// AssignmentPurger removes stored grants targeting a deleted scope.
type AssignmentPurger interface {
	DeleteProjectAssignments(ctx context.Context, projectID string) error
	DeleteDomainAssignments(ctx context.Context, domainID string) error
}

// Service handles domain and project business logic, including hierarchy
// integrity (cycle prevention, depth bounds) at write time.
type Service struct {
	repo        RepositoryPort
	purger      AssignmentPurger
	invalidator shared.Invalidator
	logger      *slog.Logger
	maxDepth    int
}

// NewService builds a Service instance. purger may be nil when grant cleanup
// is handled elsewhere; invalidator may be nil when no cache is wired.
func NewService(repo RepositoryPort, purger AssignmentPurger, invalidator shared.Invalidator, logger *slog.Logger, maxDepth int) *Service {
	if invalidator == nil {
		invalidator = shared.NoopInvalidator{}
	}
	return &Service{repo: repo, purger: purger, invalidator: invalidator, logger: logger, maxDepth: maxDepth}
}

// GetProject fetches a project, failing with a NotFound error when absent.
func (s *Service) GetProject(ctx context.Context, id string) (Project, error) {
	return s.repo.GetProject(ctx, id)
}

// GetDomain fetches a domain.
func (s *Service) GetDomain(ctx context.Context, id string) (Domain, error) {
	return s.repo.GetDomain(ctx, id)
}

// CheckDomain fails with a NotFound error when the domain does not exist.
func (s *Service) CheckDomain(ctx context.Context, id string) error {
	_, err := s.repo.GetDomain(ctx, id)
	return err
}

// CreateDomain inserts a new domain.
func (s *Service) CreateDomain(ctx context.Context, name, description string) (Domain, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Domain{}, shared.NewInvalidArgument("name", "domain name required")
	}
	d := Domain{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description), Enabled: true}
	if err := s.repo.CreateDomain(ctx, d); err != nil {
		return Domain{}, err
	}
	return s.repo.GetDomain(ctx, d.ID)
}

// CreateProject inserts a new project after validating the domain, the
// parent linkage and the hierarchy depth bound.
func (s *Service) CreateProject(ctx context.Context, p Project) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Project{}, shared.NewInvalidArgument("name", "project name required")
	}
	if _, err := s.repo.GetDomain(ctx, p.DomainID); err != nil {
		return Project{}, err
	}
	if p.ParentID != "" {
		parent, err := s.repo.GetProject(ctx, p.ParentID)
		if err != nil {
			return Project{}, err
		}
		if parent.DomainID != p.DomainID {
			return Project{}, shared.NewInvalidArgument("parent_id", "parent project belongs to a different domain")
		}
		if s.maxDepth > 0 {
			ancestors, err := s.repo.ListAncestors(ctx, p.ParentID)
			if err != nil {
				return Project{}, err
			}
			if len(ancestors)+2 > s.maxDepth {
				return Project{}, shared.NewInvalidArgument("parent_id", "project hierarchy depth limit exceeded")
			}
		}
	}
	p.ID = uuid.NewString()
	p.Enabled = true
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return Project{}, err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return s.repo.GetProject(ctx, p.ID)
}

// UpdateProject applies mutable fields. Re-parenting is validated so the
// tree never gains a cycle: the new parent must not be the project itself
// nor any project in its subtree.
func (s *Service) UpdateProject(ctx context.Context, p Project) (Project, error) {
	current, err := s.repo.GetProject(ctx, p.ID)
	if err != nil {
		return Project{}, err
	}
	if p.ParentID != current.ParentID && p.ParentID != "" {
		if p.ParentID == p.ID {
			return Project{}, shared.NewInvalidArgument("parent_id", "project cannot be its own parent")
		}
		parent, err := s.repo.GetProject(ctx, p.ParentID)
		if err != nil {
			return Project{}, err
		}
		if parent.DomainID != current.DomainID {
			return Project{}, shared.NewInvalidArgument("parent_id", "parent project belongs to a different domain")
		}
		subtree, err := s.repo.ListSubtree(ctx, p.ID)
		if err != nil {
			return Project{}, err
		}
		for _, child := range subtree {
			if child.ID == p.ParentID {
				return Project{}, shared.NewInvalidArgument("parent_id", "re-parenting would create a cycle")
			}
		}
	}
	p.DomainID = current.DomainID
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return Project{}, err
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return s.repo.GetProject(ctx, p.ID)
}

// DeleteProject removes a leaf project and purges its grants.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.repo.GetProject(ctx, id); err != nil {
		return err
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return shared.NewInvalidArgument("project_id", "cannot delete a project with children")
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	if s.purger != nil {
		if err := s.purger.DeleteProjectAssignments(ctx, id); err != nil {
			return err
		}
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
	return nil
}

// ListAncestors returns the project's parent chain, nearest first.
func (s *Service) ListAncestors(ctx context.Context, projectID string) ([]Project, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListAncestors(ctx, projectID)
}

// ListSubtree returns all descendants of the project, excluding itself.
func (s *Service) ListSubtree(ctx context.Context, projectID string) ([]Project, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListSubtree(ctx, projectID)
}

// ListProjectsInDomain returns all projects owned by the domain.
func (s *Service) ListProjectsInDomain(ctx context.Context, domainID string) ([]Project, error) {
	if _, err := s.repo.GetDomain(ctx, domainID); err != nil {
		return nil, err
	}
	return s.repo.ListProjectsInDomain(ctx, domainID)
}

// ListProjectsByIDs resolves a set of project IDs to entities.
func (s *Service) ListProjectsByIDs(ctx context.Context, ids []string) ([]Project, error) {
	return s.repo.ListProjectsByIDs(ctx, ids)
}

// ListDomainsByIDs resolves a set of domain IDs to entities.
func (s *Service) ListDomainsByIDs(ctx context.Context, ids []string) ([]Domain, error) {
	return s.repo.ListDomainsByIDs(ctx, ids)
}
