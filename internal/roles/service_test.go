package roles

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whitepages/keystone/internal/shared"
)

type memoryRoleRepo struct {
	roles map[string]Role
	edges []ImpliedRole
}

func newMemoryRoleRepo(ids ...string) *memoryRoleRepo {
	repo := &memoryRoleRepo{roles: map[string]Role{}}
	for _, id := range ids {
		repo.roles[id] = Role{ID: id, Name: id}
	}
	return repo
}

func (m *memoryRoleRepo) GetRole(ctx context.Context, id string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.NewNotFound("role", id)
	}
	return role, nil
}

func (m *memoryRoleRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *memoryRoleRepo) ListRolesByIDs(ctx context.Context, ids []string) ([]Role, error) {
	var out []Role
	for _, id := range ids {
		if role, ok := m.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (m *memoryRoleRepo) CreateRole(ctx context.Context, role Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *memoryRoleRepo) DeleteRole(ctx context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return shared.NewNotFound("role", id)
	}
	delete(m.roles, id)
	var kept []ImpliedRole
	for _, e := range m.edges {
		if e.PriorRoleID != id && e.ImpliedRoleID != id {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

func (m *memoryRoleRepo) ListImplied(ctx context.Context, priorRoleID string) ([]ImpliedRole, error) {
	var out []ImpliedRole
	for _, e := range m.edges {
		if e.PriorRoleID == priorRoleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRoleRepo) ListImplications(ctx context.Context) ([]ImpliedRole, error) {
	return append([]ImpliedRole(nil), m.edges...), nil
}

func (m *memoryRoleRepo) CreateImplication(ctx context.Context, e ImpliedRole) error {
	for _, existing := range m.edges {
		if existing == e {
			return shared.ErrConflict
		}
	}
	m.edges = append(m.edges, e)
	return nil
}

func (m *memoryRoleRepo) DeleteImplication(ctx context.Context, e ImpliedRole) error {
	for i, existing := range m.edges {
		if existing == e {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return shared.NewNotFound("implied role", e.ImpliedRoleID)
}

type recordingPurger struct {
	roleIDs []string
	err     error
}

func (p *recordingPurger) PurgeRole(ctx context.Context, roleID string) error {
	p.roleIDs = append(p.roleIDs, roleID)
	return p.err
}

func newRoleService(repo RepositoryPort, purger AssignmentPurger) *Service {
	return NewService(repo, purger, nil, slog.Default(), "admin")
}

func TestCreateImplicationRejectsSelfReference(t *testing.T) {
	repo := newMemoryRoleRepo("admin", "member")
	svc := newRoleService(repo, nil)

	err := svc.CreateImplication(context.Background(), "member", "member")
	require.True(t, errors.Is(err, shared.ErrInvalidArgument))
	require.Empty(t, repo.edges)
}

func TestCreateImplicationProtectsRootRole(t *testing.T) {
	repo := newMemoryRoleRepo("admin", "member")
	svc := newRoleService(repo, nil)

	err := svc.CreateImplication(context.Background(), "member", "admin")
	require.True(t, errors.Is(err, shared.ErrInvalidArgument))

	// The protected role may still imply others.
	require.NoError(t, svc.CreateImplication(context.Background(), "admin", "member"))
	require.Len(t, repo.edges, 1)
}

func TestCreateImplicationRequiresBothRoles(t *testing.T) {
	repo := newMemoryRoleRepo("member")
	svc := newRoleService(repo, nil)

	err := svc.CreateImplication(context.Background(), "member", "ghost")
	require.True(t, errors.Is(err, shared.ErrNotFound))
	err = svc.CreateImplication(context.Background(), "ghost", "member")
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeleteRolePurgesGrantsFirst(t *testing.T) {
	repo := newMemoryRoleRepo("admin", "member")
	purger := &recordingPurger{}
	svc := newRoleService(repo, purger)

	require.NoError(t, svc.DeleteRole(context.Background(), "member"))
	require.Equal(t, []string{"member"}, purger.roleIDs)
	_, err := repo.GetRole(context.Background(), "member")
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeleteRolePurgeFailureKeepsRole(t *testing.T) {
	repo := newMemoryRoleRepo("member")
	purger := &recordingPurger{err: errors.New("queue down")}
	svc := newRoleService(repo, purger)

	err := svc.DeleteRole(context.Background(), "member")
	require.Error(t, err)
	_, getErr := repo.GetRole(context.Background(), "member")
	require.NoError(t, getErr)
}

func TestDeleteRoleUnknownRole(t *testing.T) {
	repo := newMemoryRoleRepo()
	purger := &recordingPurger{}
	svc := newRoleService(repo, purger)

	err := svc.DeleteRole(context.Background(), "ghost")
	require.True(t, errors.Is(err, shared.ErrNotFound))
	require.Empty(t, purger.roleIDs)
}

func TestCreateRoleValidatesName(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := newRoleService(repo, nil)

	_, err := svc.CreateRole(context.Background(), "  ", "blank")
	require.True(t, errors.Is(err, shared.ErrInvalidArgument))

	role, err := svc.CreateRole(context.Background(), " auditor ", " read everything ")
	require.NoError(t, err)
	require.Equal(t, "auditor", role.Name)
	require.Equal(t, "read everything", role.Description)
	require.NotEmpty(t, role.ID)
}
