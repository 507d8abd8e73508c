package identity

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/whitepages/keystone/internal/shared"
)

type memoryIdentityRepo struct {
	users   map[string]User
	groups  map[string]Group
	members map[string]map[string]bool
}

func newMemoryIdentityRepo() *memoryIdentityRepo {
	return &memoryIdentityRepo{
		users:   map[string]User{},
		groups:  map[string]Group{},
		members: map[string]map[string]bool{},
	}
}

func (m *memoryIdentityRepo) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.NewNotFound("user", id)
	}
	return u, nil
}

func (m *memoryIdentityRepo) GetGroup(ctx context.Context, id string) (Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return Group{}, shared.NewNotFound("group", id)
	}
	return g, nil
}

func (m *memoryIdentityRepo) CreateUser(ctx context.Context, u User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memoryIdentityRepo) CreateGroup(ctx context.Context, g Group) error {
	m.groups[g.ID] = g
	return nil
}

func (m *memoryIdentityRepo) DeleteUser(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return shared.NewNotFound("user", id)
	}
	delete(m.users, id)
	for _, members := range m.members {
		delete(members, id)
	}
	return nil
}

func (m *memoryIdentityRepo) DeleteGroup(ctx context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return shared.NewNotFound("group", id)
	}
	delete(m.groups, id)
	delete(m.members, id)
	return nil
}

func (m *memoryIdentityRepo) AddUserToGroup(ctx context.Context, userID, groupID string) error {
	if m.members[groupID] == nil {
		m.members[groupID] = map[string]bool{}
	}
	m.members[groupID][userID] = true
	return nil
}

func (m *memoryIdentityRepo) RemoveUserFromGroup(ctx context.Context, userID, groupID string) error {
	if !m.members[groupID][userID] {
		return shared.NewNotFound("membership", userID)
	}
	delete(m.members[groupID], userID)
	return nil
}

func (m *memoryIdentityRepo) ListUsersInGroup(ctx context.Context, groupID string) ([]User, error) {
	var out []User
	for id := range m.members[groupID] {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *memoryIdentityRepo) ListGroupsForUser(ctx context.Context, userID string) ([]Group, error) {
	var out []Group
	for groupID, members := range m.members {
		if members[userID] {
			out = append(out, m.groups[groupID])
		}
	}
	return out, nil
}

func (m *memoryIdentityRepo) CheckUserInGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return m.members[groupID][userID], nil
}

type staticDomains struct {
	known map[string]bool
}

func (d staticDomains) CheckDomain(ctx context.Context, domainID string) error {
	if !d.known[domainID] {
		return shared.NewNotFound("domain", domainID)
	}
	return nil
}

func newIdentityService(repo RepositoryPort) *Service {
	return NewService(repo, staticDomains{known: map[string]bool{"d1": true}}, nil, slog.Default())
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemoryIdentityRepo()
	svc := newIdentityService(repo)

	u, err := svc.CreateUser(context.Background(), "d1", " alice ", " alice@example.test ", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Name)
	require.Equal(t, "alice@example.test", u.Email)
	require.NotEqual(t, "hunter2", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")))
	require.True(t, u.Enabled)
}

func TestCreateUserValidatesDomain(t *testing.T) {
	repo := newMemoryIdentityRepo()
	svc := newIdentityService(repo)

	_, err := svc.CreateUser(context.Background(), "ghost", "alice", "", "")
	require.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = svc.CreateUser(context.Background(), "d1", "  ", "", "")
	require.True(t, errors.Is(err, shared.ErrInvalidArgument))
}

func TestGroupMembershipLifecycle(t *testing.T) {
	repo := newMemoryIdentityRepo()
	svc := newIdentityService(repo)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "d1", "alice", "", "")
	require.NoError(t, err)
	g, err := svc.CreateGroup(ctx, "d1", "devs", "")
	require.NoError(t, err)

	err = svc.AddUserToGroup(ctx, "nobody", g.ID)
	require.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, svc.AddUserToGroup(ctx, u.ID, g.ID))
	in, err := svc.CheckUserInGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)
	require.True(t, in)

	members, err := svc.ListUsersInGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, svc.RemoveUserFromGroup(ctx, u.ID, g.ID))
	in, err = svc.CheckUserInGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)
	require.False(t, in)

	_, err = svc.ListUsersInGroup(ctx, "ghost")
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
