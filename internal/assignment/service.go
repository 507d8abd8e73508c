package assignment

import (
	"context"
	"log/slog"
	"sort"

	"github.com/whitepages/keystone/internal/resource"
	"github.com/whitepages/keystone/internal/roles"
	"github.com/whitepages/keystone/internal/shared"
)

// Notifier hands revocation scopes to the background revocation pipeline.
type Notifier interface {
	NotifyRevocation(ctx context.Context, scope RevocationScope) error
}

// Service owns grant lifecycle and the computed role-set queries built on
// top of the resolver. Computed role sets are memoized in the cache region
// and every mutation drops the whole region.
type Service struct {
	driver   Driver
	resolver *Resolver
	projects HierarchyPort
	users    IdentityPort
	roles    RolesPort
	region   *Region
	notifier Notifier
	logger   *slog.Logger
}

// ServiceConfig wires the service's collaborators. Region and Notifier are
// optional; a nil Region disables memoization and a nil Notifier disables
// revocation enqueueing.
type ServiceConfig struct {
	Driver   Driver
	Resolver *Resolver
	Projects HierarchyPort
	Users    IdentityPort
	Roles    RolesPort
	Region   *Region
	Notifier Notifier
	Logger   *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		driver:   cfg.Driver,
		resolver: cfg.Resolver,
		projects: cfg.Projects,
		users:    cfg.Users,
		roles:    cfg.Roles,
		region:   cfg.Region,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
}

// ListRoleAssignments answers an assignment listing, see
// Resolver.ListRoleAssignments.
func (s *Service) ListRoleAssignments(ctx context.Context, q Query) ([]ResolvedAssignment, error) {
	return s.resolver.ListRoleAssignments(ctx, q)
}

// ListNamedRoleAssignments answers an assignment listing with entity names
// resolved alongside the IDs.
func (s *Service) ListNamedRoleAssignments(ctx context.Context, q Query) ([]NamedAssignment, error) {
	refs, err := s.resolver.ListRoleAssignments(ctx, q)
	if err != nil {
		return nil, err
	}
	return newNamer(s.projects, s.users, s.roles).enrich(ctx, refs)
}

// validateGrantShape rejects grants that do not name exactly one actor and
// exactly one target.
func validateGrantShape(a Assignment) error {
	if (a.UserID == "") == (a.GroupID == "") {
		return shared.NewInvalidArgument("actor", "exactly one of user_id and group_id required")
	}
	if (a.ProjectID == "") == (a.DomainID == "") {
		return shared.NewInvalidArgument("target", "exactly one of project_id and domain_id required")
	}
	if a.RoleID == "" {
		return shared.NewInvalidArgument("role_id", "role_id required")
	}
	return nil
}

// validateGrantEntities checks that the role, actor and target named by the
// grant all exist.
func (s *Service) validateGrantEntities(ctx context.Context, a Assignment) error {
	if _, err := s.roles.GetRole(ctx, a.RoleID); err != nil {
		return err
	}
	if a.DomainID != "" {
		if _, err := s.projects.GetDomain(ctx, a.DomainID); err != nil {
			return err
		}
	} else {
		if _, err := s.projects.GetProject(ctx, a.ProjectID); err != nil {
			return err
		}
	}
	if a.UserID != "" {
		if _, err := s.users.GetUser(ctx, a.UserID); err != nil {
			return err
		}
	} else {
		if _, err := s.users.GetGroup(ctx, a.GroupID); err != nil {
			return err
		}
	}
	return nil
}

// CreateGrant stores a grant after validating the entities it names.
// Re-creating an existing grant is a no-op.
func (s *Service) CreateGrant(ctx context.Context, a Assignment) error {
	if err := validateGrantShape(a); err != nil {
		return err
	}
	if err := s.validateGrantEntities(ctx, a); err != nil {
		return err
	}
	if err := s.driver.CreateGrant(ctx, a); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteGrant removes a grant and schedules token revocation for the users
// it affected.
func (s *Service) DeleteGrant(ctx context.Context, a Assignment) error {
	if err := validateGrantShape(a); err != nil {
		return err
	}
	if _, err := s.roles.GetRole(ctx, a.RoleID); err != nil {
		return err
	}
	scope, err := s.revocationScopeForAssignments(ctx, []Assignment{a})
	if err != nil {
		return err
	}
	if err := s.driver.DeleteGrant(ctx, a); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.notifyRevocation(ctx, scope)
	return nil
}

// CheckGrant fails with a NotFound error when the grant is absent.
func (s *Service) CheckGrant(ctx context.Context, a Assignment) error {
	if err := validateGrantShape(a); err != nil {
		return err
	}
	if _, err := s.roles.GetRole(ctx, a.RoleID); err != nil {
		return err
	}
	return s.driver.CheckGrant(ctx, a)
}

// ListGrantRoles returns the roles held by the actor on the target through
// grants of the requested inheritance kind, without any expansion.
func (s *Service) ListGrantRoles(ctx context.Context, a Assignment) ([]roles.Role, error) {
	if (a.UserID == "") == (a.GroupID == "") {
		return nil, shared.NewInvalidArgument("actor", "exactly one of user_id and group_id required")
	}
	if (a.ProjectID == "") == (a.DomainID == "") {
		return nil, shared.NewInvalidArgument("target", "exactly one of project_id and domain_id required")
	}
	f := Filter{
		UserID:    a.UserID,
		DomainID:  a.DomainID,
		Inherited: &a.Inherited,
	}
	if a.GroupID != "" {
		f.GroupIDs = []string{a.GroupID}
	}
	if a.ProjectID != "" {
		f.ProjectIDs = []string{a.ProjectID}
	}
	refs, err := s.driver.ListRoleAssignments(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RoleID)
	}
	return s.roles.ListRolesByIDs(ctx, uniqueSorted(ids))
}

// RolesForUserAndProject returns the IDs of every role the user effectively
// holds on the project, implied roles and inherited or group grants
// included. The computed set is memoized until the next mutation.
func (s *Service) RolesForUserAndProject(ctx context.Context, userID, projectID string) ([]string, error) {
	return s.computedRoleIDs(ctx, keyRolesForUserProject(userID, projectID), Query{
		UserID:    userID,
		ProjectID: projectID,
		Effective: true,
	})
}

// RolesForUserAndDomain returns the IDs of every role the user effectively
// holds on the domain. The computed set is memoized until the next
// mutation.
func (s *Service) RolesForUserAndDomain(ctx context.Context, userID, domainID string) ([]string, error) {
	return s.computedRoleIDs(ctx, keyRolesForUserDomain(userID, domainID), Query{
		UserID:    userID,
		DomainID:  domainID,
		Effective: true,
	})
}

func (s *Service) computedRoleIDs(ctx context.Context, key string, q Query) ([]string, error) {
	load := func(ctx context.Context) (interface{}, error) {
		refs, err := s.resolver.ListRoleAssignments(ctx, q)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			ids = append(ids, ref.RoleID)
		}
		return uniqueSorted(ids), nil
	}
	versionedKey, err := s.region.BuildKey(ctx, key)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := s.region.FetchJSON(ctx, versionedKey, &ids, load); err != nil {
		return nil, err
	}
	return ids, nil
}

// RolesForGroups returns the roles the groups collectively hold on the
// target, inherited grants expanded but membership untouched.
func (s *Service) RolesForGroups(ctx context.Context, groupIDs []string, projectID, domainID string) ([]roles.Role, error) {
	refs, err := s.resolver.ListRoleAssignments(ctx, Query{
		ProjectID:          projectID,
		DomainID:           domainID,
		Effective:          true,
		SourceFromGroupIDs: groupIDs,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RoleID)
	}
	return s.roles.ListRolesByIDs(ctx, uniqueSorted(ids))
}

// ListProjectsForUser returns every project on which the user effectively
// holds at least one role.
func (s *Service) ListProjectsForUser(ctx context.Context, userID string) ([]resource.Project, error) {
	refs, err := s.resolver.ListRoleAssignments(ctx, Query{UserID: userID, Effective: true})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ProjectID != "" {
			ids = append(ids, ref.ProjectID)
		}
	}
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return []resource.Project{}, nil
	}
	return s.projects.ListProjectsByIDs(ctx, ids)
}

// ListDomainsForUser returns every domain on which the user effectively
// holds at least one role.
func (s *Service) ListDomainsForUser(ctx context.Context, userID string) ([]resource.Domain, error) {
	refs, err := s.resolver.ListRoleAssignments(ctx, Query{UserID: userID, Effective: true})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.DomainID != "" {
			ids = append(ids, ref.DomainID)
		}
	}
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return []resource.Domain{}, nil
	}
	return s.projects.ListDomainsByIDs(ctx, ids)
}

// UserIDsForProject returns every user that effectively holds a role on
// the project.
func (s *Service) UserIDsForProject(ctx context.Context, projectID string) ([]string, error) {
	refs, err := s.resolver.ListRoleAssignments(ctx, Query{ProjectID: projectID, Effective: true})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.UserID != "" {
			ids = append(ids, ref.UserID)
		}
	}
	return uniqueSorted(ids), nil
}

// PurgeRole removes every grant of the role and schedules token revocation
// for the affected users. Called when the role itself is deleted.
func (s *Service) PurgeRole(ctx context.Context, roleID string) error {
	scope, err := s.RevocationScopeForRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.driver.DeleteRoleAssignments(ctx, roleID); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.notifyRevocation(ctx, scope)
	return nil
}

// DeleteProjectAssignments removes every grant targeting the project.
func (s *Service) DeleteProjectAssignments(ctx context.Context, projectID string) error {
	if err := s.driver.DeleteProjectAssignments(ctx, projectID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteDomainAssignments removes every grant targeting the domain.
func (s *Service) DeleteDomainAssignments(ctx context.Context, domainID string) error {
	if err := s.driver.DeleteDomainAssignments(ctx, domainID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteUserAssignments removes every grant held directly by the user.
func (s *Service) DeleteUserAssignments(ctx context.Context, userID string) error {
	if err := s.driver.DeleteUserAssignments(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteGroupAssignments removes every grant held by the group.
func (s *Service) DeleteGroupAssignments(ctx context.Context, groupID string) error {
	if err := s.driver.DeleteGroupAssignments(ctx, groupID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.region.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate assignments cache", slog.Any("error", err))
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
