package assignment

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImpliedExpandCachesRuleLookups(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "member")
	f.roles.addImplication("member", "reader")
	e := &impliedExpander{roles: f.roles, logger: slog.Default(), enabled: true}

	refs := []ResolvedAssignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
		{UserID: "bob", ProjectID: "child-b", RoleID: "admin"},
	}
	out, err := e.expand(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, out, 6)
	// admin, member and reader are each resolved exactly once despite two
	// assignments sharing every role.
	require.Equal(t, 3, f.roles.listImpliedCalls)
}

func TestImpliedExpandDisabledReturnsInputUnchanged(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "member")
	e := &impliedExpander{roles: f.roles, logger: slog.Default(), enabled: false}

	refs := []ResolvedAssignment{{UserID: "alice", ProjectID: "child-a", RoleID: "admin"}}
	out, err := e.expand(context.Background(), refs)
	require.NoError(t, err)
	require.Equal(t, refs, out)
	require.Zero(t, f.roles.listImpliedCalls)
}

func TestImpliedExpandRecordsImmediatePriorRole(t *testing.T) {
	f := newFixture()
	f.roles.addImplication("admin", "member")
	f.roles.addImplication("member", "reader")
	e := &impliedExpander{roles: f.roles, logger: slog.Default(), enabled: true}

	out, err := e.expand(context.Background(), []ResolvedAssignment{
		{UserID: "alice", ProjectID: "child-a", RoleID: "admin"},
	})
	require.NoError(t, err)
	byRole := map[string]ResolvedAssignment{}
	for _, ref := range out {
		byRole[ref.RoleID] = ref
	}
	require.Empty(t, byRole["admin"].Indirect.RoleID)
	require.Equal(t, "admin", byRole["member"].Indirect.RoleID)
	require.Equal(t, "member", byRole["reader"].Indirect.RoleID)
}
