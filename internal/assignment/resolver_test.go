package assignment

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whitepages/keystone/internal/identity"
	"github.com/whitepages/keystone/internal/resource"
	"github.com/whitepages/keystone/internal/roles"
	"github.com/whitepages/keystone/internal/shared"
)

type memoryGrants struct {
	grants []Assignment

	listCalls int
}

func (m *memoryGrants) ListRoleAssignments(ctx context.Context, f Filter) ([]Assignment, error) {
	m.listCalls++
	var out []Assignment
	for _, a := range m.grants {
		if matchesFilter(a, f) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryGrants) CreateGrant(ctx context.Context, a Assignment) error {
	for _, existing := range m.grants {
		if existing == a {
			return nil
		}
	}
	m.grants = append(m.grants, a)
	return nil
}

func (m *memoryGrants) DeleteGrant(ctx context.Context, a Assignment) error {
	for i, existing := range m.grants {
		if existing == a {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return nil
		}
	}
	return shared.NewNotFound("grant", a.RoleID)
}

func (m *memoryGrants) CheckGrant(ctx context.Context, a Assignment) error {
	for _, existing := range m.grants {
		if existing == a {
			return nil
		}
	}
	return shared.NewNotFound("grant", a.RoleID)
}

func (m *memoryGrants) deleteWhere(keep func(Assignment) bool) {
	var out []Assignment
	for _, a := range m.grants {
		if keep(a) {
			out = append(out, a)
		}
	}
	m.grants = out
}

func (m *memoryGrants) DeleteProjectAssignments(ctx context.Context, projectID string) error {
	m.deleteWhere(func(a Assignment) bool { return a.ProjectID != projectID })
	return nil
}

func (m *memoryGrants) DeleteDomainAssignments(ctx context.Context, domainID string) error {
	m.deleteWhere(func(a Assignment) bool { return a.DomainID != domainID })
	return nil
}

func (m *memoryGrants) DeleteRoleAssignments(ctx context.Context, roleID string) error {
	m.deleteWhere(func(a Assignment) bool { return a.RoleID != roleID })
	return nil
}

func (m *memoryGrants) DeleteUserAssignments(ctx context.Context, userID string) error {
	m.deleteWhere(func(a Assignment) bool { return a.UserID != userID })
	return nil
}

func (m *memoryGrants) DeleteGroupAssignments(ctx context.Context, groupID string) error {
	m.deleteWhere(func(a Assignment) bool { return a.GroupID != groupID })
	return nil
}

type memoryHierarchy struct {
	domains  map[string]resource.Domain
	projects map[string]resource.Project
}

func (m *memoryHierarchy) GetProject(ctx context.Context, id string) (resource.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return resource.Project{}, shared.NewNotFound("project", id)
	}
	return p, nil
}

func (m *memoryHierarchy) GetDomain(ctx context.Context, id string) (resource.Domain, error) {
	d, ok := m.domains[id]
	if !ok {
		return resource.Domain{}, shared.NewNotFound("domain", id)
	}
	return d, nil
}

func (m *memoryHierarchy) ListAncestors(ctx context.Context, projectID string) ([]resource.Project, error) {
	p, ok := m.projects[projectID]
	if !ok {
		return nil, shared.NewNotFound("project", projectID)
	}
	var out []resource.Project
	for p.ParentID != "" {
		p = m.projects[p.ParentID]
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryHierarchy) ListSubtree(ctx context.Context, projectID string) ([]resource.Project, error) {
	if _, ok := m.projects[projectID]; !ok {
		return nil, shared.NewNotFound("project", projectID)
	}
	var out []resource.Project
	frontier := []string{projectID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		for _, p := range m.projects {
			if p.ParentID == next {
				out = append(out, p)
				frontier = append(frontier, p.ID)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryHierarchy) ListProjectsInDomain(ctx context.Context, domainID string) ([]resource.Project, error) {
	var out []resource.Project
	for _, p := range m.projects {
		if p.DomainID == domainID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryHierarchy) ListProjectsByIDs(ctx context.Context, ids []string) ([]resource.Project, error) {
	var out []resource.Project
	for _, id := range ids {
		if p, ok := m.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryHierarchy) ListDomainsByIDs(ctx context.Context, ids []string) ([]resource.Domain, error) {
	var out []resource.Domain
	for _, id := range ids {
		if d, ok := m.domains[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type memoryDirectory struct {
	users   map[string]identity.User
	groups  map[string]identity.Group
	members map[string][]string
}

func (m *memoryDirectory) GetUser(ctx context.Context, id string) (identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return identity.User{}, shared.NewNotFound("user", id)
	}
	return u, nil
}

func (m *memoryDirectory) GetGroup(ctx context.Context, id string) (identity.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return identity.Group{}, shared.NewNotFound("group", id)
	}
	return g, nil
}

func (m *memoryDirectory) ListUsersInGroup(ctx context.Context, groupID string) ([]identity.User, error) {
	if _, ok := m.groups[groupID]; !ok {
		return nil, shared.NewNotFound("group", groupID)
	}
	var out []identity.User
	for _, id := range m.members[groupID] {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *memoryDirectory) ListGroupsForUser(ctx context.Context, userID string) ([]identity.Group, error) {
	var out []identity.Group
	for groupID, ids := range m.members {
		for _, id := range ids {
			if id == userID {
				out = append(out, m.groups[groupID])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryRoleCatalog struct {
	roles   map[string]roles.Role
	implied map[string][]roles.ImpliedRole

	listImpliedErr   error
	listImpliedCalls int
}

func (m *memoryRoleCatalog) GetRole(ctx context.Context, id string) (roles.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return roles.Role{}, shared.NewNotFound("role", id)
	}
	return role, nil
}

func (m *memoryRoleCatalog) ListRolesByIDs(ctx context.Context, ids []string) ([]roles.Role, error) {
	var out []roles.Role
	for _, id := range ids {
		if role, ok := m.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *memoryRoleCatalog) ListImplied(ctx context.Context, priorRoleID string) ([]roles.ImpliedRole, error) {
	m.listImpliedCalls++
	if m.listImpliedErr != nil {
		return nil, m.listImpliedErr
	}
	return m.implied[priorRoleID], nil
}

func (m *memoryRoleCatalog) addImplication(prior, implied string) {
	m.implied[prior] = append(m.implied[prior], roles.ImpliedRole{PriorRoleID: prior, ImpliedRoleID: implied})
}

// fixture builds the hierarchy used across the resolver tests:
//
//	domain d1
//	  root
//	    child-a
//	      leaf
//	    child-b
//
// with users alice and bob in group devs, and carol outside it.
type fixture struct {
	grants   *memoryGrants
	projects *memoryHierarchy
	users    *memoryDirectory
	roles    *memoryRoleCatalog
}

func newFixture() *fixture {
	return &fixture{
		grants: &memoryGrants{},
		projects: &memoryHierarchy{
			domains: map[string]resource.Domain{
				"d1": {ID: "d1", Name: "Default"},
			},
			projects: map[string]resource.Project{
				"root":    {ID: "root", DomainID: "d1", Name: "root"},
				"child-a": {ID: "child-a", DomainID: "d1", ParentID: "root", Name: "child-a"},
				"child-b": {ID: "child-b", DomainID: "d1", ParentID: "root", Name: "child-b"},
				"leaf":    {ID: "leaf", DomainID: "d1", ParentID: "child-a", Name: "leaf"},
			},
		},
		users: &memoryDirectory{
			users: map[string]identity.User{
				"alice": {ID: "alice", DomainID: "d1", Name: "alice"},
				"bob":   {ID: "bob", DomainID: "d1", Name: "bob"},
				"carol": {ID: "carol", DomainID: "d1", Name: "carol"},
			},
			groups: map[string]identity.Group{
				"devs": {ID: "devs", DomainID: "d1", Name: "devs"},
			},
			members: map[string][]string{
				"devs": {"alice", "bob"},
			},
		},
		roles: &memoryRoleCatalog{
			roles: map[string]roles.Role{
				"admin":  {ID: "admin", Name: "admin"},
				"member": {ID: "member", Name: "member"},
				"reader": {ID: "reader", Name: "reader"},
			},
			implied: map[string][]roles.ImpliedRole{},
		},
	}
}

func (f *fixture) resolver(opts ...func(*ResolverConfig)) *Resolver {
	cfg := ResolverConfig{
		Driver:             f.grants,
		Projects:           f.projects,
		Users:              f.users,
		Roles:              f.roles,
		Logger:             slog.Default(),
		InferRoles:         true,
		InheritanceEnabled: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewResolver(cfg)
}

func boolPtr(b bool) *bool { return &b }

func roleIDsOf(refs []ResolvedAssignment) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RoleID)
	}
	sort.Strings(ids)
	return ids
}

func TestListRoleAssignmentsDirectMode(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "member"},
		{GroupID: "devs", ProjectID: "root", RoleID: "admin"},
		{UserID: "alice", DomainID: "d1", RoleID: "reader", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, refs, 3)

	// Direct mode returns group grants unexpanded.
	refs, err = r.ListRoleAssignments(context.Background(), Query{GroupID: "devs"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "devs", refs[0].GroupID)
	require.Empty(t, refs[0].UserID)

	// The role filter applies to stored grants, not implied ones.
	f.roles.addImplication("admin", "member")
	refs, err = r.ListRoleAssignments(context.Background(), Query{RoleID: "member"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "alice", refs[0].UserID)

	refs, err = r.ListRoleAssignments(context.Background(), Query{Inherited: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.True(t, refs[0].Inherited)
}

func TestEffectiveGroupExpansion(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{GroupID: "devs", ProjectID: "child-a", RoleID: "member"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{ProjectID: "child-a", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	users := []string{refs[0].UserID, refs[1].UserID}
	sort.Strings(users)
	require.Equal(t, []string{"alice", "bob"}, users)
	for _, ref := range refs {
		require.Empty(t, ref.GroupID)
		require.Equal(t, "devs", ref.Indirect.GroupID)
		require.Equal(t, "child-a", ref.ProjectID)
	}
}

func TestEffectiveUserFilterSkipsMembershipExpansion(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{GroupID: "devs", ProjectID: "child-a", RoleID: "member"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "alice", refs[0].UserID)
	require.Equal(t, "devs", refs[0].Indirect.GroupID)

	// carol is not in devs, so the group grant never reaches her.
	refs, err = r.ListRoleAssignments(context.Background(), Query{UserID: "carol", Effective: true})
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestEffectiveInheritedDomainGrant(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", DomainID: "d1", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 4)
	seen := map[string]bool{}
	for _, ref := range refs {
		require.False(t, ref.Inherited)
		require.Empty(t, ref.DomainID)
		require.Equal(t, "d1", ref.Indirect.DomainID)
		seen[ref.ProjectID] = true
	}
	require.Equal(t, map[string]bool{"root": true, "child-a": true, "child-b": true, "leaf": true}, seen)
}

func TestEffectiveInheritedDomainGrantScopedToProject(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", DomainID: "d1", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:    "alice",
		ProjectID: "child-b",
		Effective: true,
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "child-b", refs[0].ProjectID)
	require.Equal(t, "d1", refs[0].Indirect.DomainID)
}

func TestEffectiveInheritedProjectGrantCoversSubtreeOnly(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "root", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, ref := range refs {
		require.Equal(t, "root", ref.Indirect.ProjectID)
		seen[ref.ProjectID] = true
	}
	// The grant point itself gets nothing; only its descendants do.
	require.Equal(t, map[string]bool{"child-a": true, "child-b": true, "leaf": true}, seen)
}

func TestEffectiveSubtreeListingReexpandsInteriorGrantPoint(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:         "alice",
		ProjectID:      "root",
		IncludeSubtree: true,
		Effective:      true,
	})
	require.NoError(t, err)
	// The grant point is inside the requested subtree, so the assignment
	// lands only on the grant point's own descendants.
	require.Len(t, refs, 1)
	require.Equal(t, "leaf", refs[0].ProjectID)
	require.Equal(t, "child-a", refs[0].Indirect.ProjectID)
}

func TestEffectiveSubtreeListingNoDuplication(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "root", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:         "alice",
		ProjectID:      "root",
		IncludeSubtree: true,
		Effective:      true,
	})
	require.NoError(t, err)
	// Each descendant gets exactly one entry even though the grant point is
	// both the filtered project and an inherited source.
	seen := map[string]int{}
	for _, ref := range refs {
		seen[ref.ProjectID]++
	}
	require.Equal(t, map[string]int{"child-a": 1, "child-b": 1, "leaf": 1}, seen)
}

func TestEffectiveProjectFilterPinsAncestorGrant(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "root", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:    "alice",
		ProjectID: "leaf",
		Effective: true,
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "leaf", refs[0].ProjectID)
	require.Equal(t, "root", refs[0].Indirect.ProjectID)
}

func TestEffectiveImpliedRoleClosure(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "member")
	f.roles.addImplication("member", "reader")
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	require.Equal(t, []string{"admin", "member", "reader"}, roleIDsOf(refs))
	for _, ref := range refs {
		switch ref.RoleID {
		case "admin":
			require.Empty(t, ref.Indirect.RoleID)
		case "member":
			require.Equal(t, "admin", ref.Indirect.RoleID)
		case "reader":
			// Provenance records the immediate prior role, not the root.
			require.Equal(t, "member", ref.Indirect.RoleID)
		}
	}
}

func TestEffectiveRoleFilterAppliedAfterImplication(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "reader")
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
	}
	r := f.resolver()

	// A reader filter must still surface the assignment implied by the
	// stored admin grant.
	refs, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:    "alice",
		RoleID:    "reader",
		Effective: true,
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "reader", refs[0].RoleID)
	require.Equal(t, "admin", refs[0].Indirect.RoleID)
}

func TestEffectiveImpliedCycleTerminates(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "member")
	f.roles.addImplication("member", "admin")
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	// Termination matters more than the exact count; alice must hold both
	// roles exactly as reachable, with no infinite duplication.
	require.LessOrEqual(t, len(refs), 3)
	require.Contains(t, roleIDsOf(refs), "admin")
	require.Contains(t, roleIDsOf(refs), "member")
}

func TestEffectiveImpliedRolesUnsupportedBackend(t *testing.T) {
	f := newFixture()
	f.roles.listImpliedErr = shared.ErrNotSupported
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "admin", refs[0].RoleID)
}

func TestInheritanceDisabled(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "member"},
		{UserID: "alice", ProjectID: "root", RoleID: "member", Inherited: true},
	}
	r := f.resolver(func(cfg *ResolverConfig) { cfg.InheritanceEnabled = false })

	refs, err := r.ListRoleAssignments(context.Background(), Query{Inherited: boolPtr(true)})
	require.NoError(t, err)
	require.Empty(t, refs)

	// With no inherited filter, only non-inherited grants are visible.
	refs, err = r.ListRoleAssignments(context.Background(), Query{UserID: "alice", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "child-a", refs[0].ProjectID)
}

func TestEffectiveShortCircuits(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{GroupID: "devs", ProjectID: "child-a", RoleID: "member"},
		{UserID: "alice", DomainID: "d1", RoleID: "member"},
	}
	r := f.resolver()

	// Group filters cannot match expanded results.
	refs, err := r.ListRoleAssignments(context.Background(), Query{GroupID: "devs", Effective: true})
	require.NoError(t, err)
	require.Empty(t, refs)

	// Domains never receive inherited assignments.
	refs, err = r.ListRoleAssignments(context.Background(), Query{
		DomainID:  "d1",
		Inherited: boolPtr(true),
		Effective: true,
	})
	require.NoError(t, err)
	require.Empty(t, refs)

	// A domain filter still matches non-inherited grants.
	refs, err = r.ListRoleAssignments(context.Background(), Query{DomainID: "d1", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "alice", refs[0].UserID)
}

func TestEffectiveSourceFromGroupsWithUserFails(t *testing.T) {
	f := newFixture()
	r := f.resolver()

	_, err := r.ListRoleAssignments(context.Background(), Query{
		UserID:             "alice",
		SourceFromGroupIDs: []string{"devs"},
		Effective:          true,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrUnexpected))
}

func TestEffectiveSourceFromGroupsKeepsGroupRefs(t *testing.T) {
	f := newFixture()
	f.grants.grants = []Assignment{
		{GroupID: "devs", ProjectID: "child-a", RoleID: "member"},
		{UserID: "carol", ProjectID: "child-a", RoleID: "admin"},
	}
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{
		SourceFromGroupIDs: []string{"devs"},
		ProjectID:          "child-a",
		Effective:          true,
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "devs", refs[0].GroupID)
	require.Empty(t, refs[0].UserID)
}

func TestInheritedGroupDomainGrantEndToEnd(t *testing.T) {
	f := newFixture()
	for _, id := range []string{"dave", "erin", "frank"} {
		f.users.users[id] = identity.User{ID: id, DomainID: "d1", Name: id}
		f.users.members["devs"] = append(f.users.members["devs"], id)
	}
	f.grants.grants = []Assignment{
		{GroupID: "devs", DomainID: "d1", RoleID: "member", Inherited: true},
	}
	r := f.resolver()

	// The domain itself never receives inherited assignments.
	refs, err := r.ListRoleAssignments(context.Background(), Query{DomainID: "d1", Effective: true})
	require.NoError(t, err)
	require.Empty(t, refs)

	// Every project in the domain receives one assignment per member.
	refs, err = r.ListRoleAssignments(context.Background(), Query{ProjectID: "child-b", Effective: true})
	require.NoError(t, err)
	require.Len(t, refs, 5)
	seen := map[string]bool{}
	for _, ref := range refs {
		require.Equal(t, "child-b", ref.ProjectID)
		require.Equal(t, "member", ref.RoleID)
		require.Equal(t, "devs", ref.Indirect.GroupID)
		require.Equal(t, "d1", ref.Indirect.DomainID)
		seen[ref.UserID] = true
	}
	require.Len(t, seen, 5)
}

func TestEffectiveEmptyResultIsNotNil(t *testing.T) {
	f := newFixture()
	r := f.resolver()

	refs, err := r.ListRoleAssignments(context.Background(), Query{UserID: "carol", Effective: true})
	require.NoError(t, err)
	require.NotNil(t, refs)
	require.Empty(t, refs)
}
